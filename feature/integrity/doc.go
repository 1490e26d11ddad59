// Package integrity checks the backends a diff run depends on.
//
// # Checks Provided
//
//   - Storage: the bucket exists; counts the run archives under the archive prefix.
//   - Schema: the changelog table carries every column its GORM model declares.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/storage : Runs the storage check (supports ?fix=true).
//   - GET /integrity/schema : Runs the schema check (supports ?fix=true).
package integrity
