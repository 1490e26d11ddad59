// Package middleware groups the HTTP middleware of the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting every route except skipped paths.
//   - rayid: assigns each request a RayID, stored in the context locals for
//     logger.WithRayID and echoed in the X-Ray-ID response header.
package middleware
