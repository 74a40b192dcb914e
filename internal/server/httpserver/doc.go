// Package httpserver provides the HTTP server of the run command.
//
// It exposes a session over a small JSON API (tokens, pool settings,
// health) and mounts the Prometheus handler, all behind the standard
// middleware chain: Recover, RequestID, AccessLog.
package httpserver
