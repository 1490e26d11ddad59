package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"treediff/core/database"
	"treediff/core/logger"
	"treediff/core/reconcile"
	"treediff/core/server"
	"treediff/core/storage"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the changelog database.
	Database database.Config `mapstructure:"database"`
	// Diff holds defaults for reconciliation runs.
	Diff DiffConfig `mapstructure:"diff"`
}

// DiffConfig holds the defaults applied to every diff run.
type DiffConfig struct {
	// Equality selects the equality strategy (precompiled, reflect).
	Equality string `mapstructure:"equality" default:"precompiled" validate:"omitempty,oneof=precompiled reflect"`
	// SkipOperations disables the operation log.
	SkipOperations bool `mapstructure:"skip_operations" default:"false"`
	// RejectDuplicateKeys fails a run when a collection holds duplicate keys.
	RejectDuplicateKeys bool `mapstructure:"reject_duplicate_keys" default:"false"`
	// CacheTTLSeconds is how long loaded snapshots are cached; 0 disables the cache.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300" validate:"gte=0"`
	// Archive enables writing run results to object storage.
	Archive bool `mapstructure:"archive" default:"false"`
	// ArchivePrefix is the object prefix for archived runs.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"runs" validate:"required_if=Archive true"`
	// PersistChangelog enables writing operations to the changelog table.
	PersistChangelog bool `mapstructure:"persist_changelog" default:"true"`
}

// Options converts the configuration into engine options.
func (d DiffConfig) Options() (reconcile.DiffOptions, error) {
	mode, err := reconcile.ParseEqualityMode(d.Equality)
	if err != nil {
		return reconcile.DiffOptions{}, err
	}
	return reconcile.DiffOptions{
		Equality:            mode,
		SkipOperations:      d.SkipOperations,
		RejectDuplicateKeys: d.RejectDuplicateKeys,
	}, nil
}

// CacheTTL returns the snapshot cache TTL.
func (d DiffConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheTTLSeconds) * time.Second
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks every section against its validate tags and reports all
// violations at once.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var all error
	for _, fe := range verrs {
		all = multierr.Append(all, fmt.Errorf("invalid %s: failed %q check (value %v)", fieldKey(fe.Namespace()), fe.Tag(), fe.Value()))
	}
	return all
}

// fieldKey turns a validator namespace (Config.Server.Port) into the
// configuration key (server.port) it came from.
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, len(parts))
	for _, name := range parts {
		field, ok := t.FieldByName(name)
		if !ok {
			keys = append(keys, strings.ToLower(name))
			continue
		}
		keys = append(keys, field.Tag.Get("mapstructure"))
		t = field.Type
	}
	return strings.Join(keys, ".")
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
