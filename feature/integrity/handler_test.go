package integrity

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"treediff/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T, db *gorm.DB) (*fiber.App, *mocks.Client) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, testTarget, db, zap.NewNop())
	NewHandler(svc).RegisterRoutes(app)
	return app, mockClient
}

func decode(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandleStorageCheck(t *testing.T) {
	app, mockClient := setupTestApp(t, nil)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)

	status, body := decode(t, app, "/integrity/storage")
	assert.Equal(t, 200, status)
	assert.Equal(t, "missing", body["status"])
	assert.Equal(t, false, body["exists"])
	mockClient.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleStorageCheck_Fix(t *testing.T) {
	app, mockClient := setupTestApp(t, nil)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)
	mockClient.On("MakeBucket", mock.Anything, "test-bucket", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)

	status, body := decode(t, app, "/integrity/storage?fix=true")
	assert.Equal(t, 200, status)
	assert.Equal(t, "fixed", body["status"])
	mockClient.AssertExpectations(t)
}

func TestHandleStorageCheck_Error(t *testing.T) {
	app, mockClient := setupTestApp(t, nil)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, assert.AnError)

	status, body := decode(t, app, "/integrity/storage")
	assert.Equal(t, 500, status)
	assert.Contains(t, body["error"], "failed to check bucket existence")
}

func TestHandleSchemaCheck_NoDatabase(t *testing.T) {
	app, _ := setupTestApp(t, nil)

	status, body := decode(t, app, "/integrity/schema")
	assert.Equal(t, 503, status)
	assert.NotEmpty(t, body["error"])
}

func TestHandleSchemaCheck_Fix(t *testing.T) {
	app, _ := setupTestApp(t, setupSQLite(t))

	status, body := decode(t, app, "/integrity/schema")
	assert.Equal(t, 200, status)
	assert.Equal(t, false, body["matched"])

	status, body = decode(t, app, "/integrity/schema?fix=true")
	assert.Equal(t, 200, status)
	assert.Equal(t, "fixed", body["status"])

	status, body = decode(t, app, "/integrity/schema")
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["matched"])
}

func TestHandleIntegrityCheck(t *testing.T) {
	app, mockClient := setupTestApp(t, nil)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(nil)

	status, body := decode(t, app, "/integrity")
	assert.Equal(t, 200, status)

	storage := body["storage"].(map[string]any)
	assert.Equal(t, "ok", storage["status"])

	schema := body["schema"].(map[string]any)
	assert.Equal(t, "error", schema["status"])
}
