// Package server provides the Gin HTTP server behind the local debug panel,
// with panic recovery, request IDs and request logging, plus health and
// version handlers.
package server
