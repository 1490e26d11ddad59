// Package server holds the HTTP server configuration.
//
// The Config struct defines the listen port, the optional API key and the
// request limits applied by the start command when it builds the Fiber app.
package server
