// Package logger provides structured logging for cryptogen.
//
//   - logger.go: slog-backed Logger, global level, default logger
//   - context.go: context propagation of logger, session id, request id
//   - redact.go: token and secret redaction
//
// Raw token bytes never reach the output: token.Token values are
// replaced by their fingerprint and byte slices by their length.
package logger
