package server

import "time"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080" validate:"required,numeric"`
	// ApiKey is the secret key required to access the API. Empty disables auth.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps request bodies; snapshot payloads can be large.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"64" validate:"min=1"`
	// ReadTimeoutSeconds bounds reading a request.
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds" default:"30" validate:"min=0"`
}

// IsAuthEnabled reports whether requests must carry the API key.
func (c Config) IsAuthEnabled() bool {
	return c.ApiKey != ""
}

// BodyLimit returns the body limit in bytes.
func (c Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

// ReadTimeout returns the read timeout, zero meaning unlimited.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}
