package loader

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }

func (s *stubFeature) Load(app fiber.Router) error {
	if s.err != nil {
		return s.err
	}
	app.Get("/"+s.name, func(c *fiber.Ctx) error { return c.SendString(s.name) })
	return nil
}

func TestManager_LoadAll(t *testing.T) {
	app := fiber.New()
	mgr := NewManager()
	mgr.Register(&stubFeature{name: "activation", enabled: true})
	mgr.Register(&stubFeature{name: "disabled", enabled: false})

	loaded, err := mgr.LoadAll(app)
	require.NoError(t, err)
	assert.Equal(t, []string{"activation"}, loaded)
	assert.Len(t, mgr.Features(), 2)

	resp, err := app.Test(httptest.NewRequest("GET", "/activation", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/disabled", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestManager_LoadAll_Error(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&stubFeature{name: "first", enabled: true})
	mgr.Register(&stubFeature{name: "broken", enabled: true, err: errors.New("no database")})
	mgr.Register(&stubFeature{name: "never", enabled: true})

	loaded, err := mgr.LoadAll(fiber.New())
	assert.ErrorContains(t, err, "failed to load feature broken: no database")
	assert.Equal(t, []string{"first"}, loaded)
}
