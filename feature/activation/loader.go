package activation

import (
	"treediff/core/config"
	"treediff/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature builds the activation registry and wires the feature.
func NewFeature(deps Dependencies, cfg config.DiffConfig, logger *zap.Logger) (*Feature, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	svc := NewService(reconcile.New(registry), deps, cfg, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}, nil
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "activation"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service returns the feature's service, used by the CLI.
func (f *Feature) Service() *Service {
	return f.service
}
