// Package config loads the application configuration.
//
// Values come from a .env file (optional), environment variables and the
// `default` struct tags, bound through Viper. Environment keys follow the
// SECTION_KEY pattern, e.g. DIFF_EQUALITY or DATABASE_DRIVER.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key and request limits
//   - Database: changelog database driver and connection details
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: logging level and format
//   - Diff: equality mode, duplicate-key policy, snapshot cache and archiving
//
// Validate applies the `validate` tags and returns every violation, combined
// with multierr.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
