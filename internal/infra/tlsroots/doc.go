// Package tlsroots builds the TLS configuration of the token server.
//
//   - roots.go: CA pools loaded from PEM files, server tls.Config
//   - watcher.go: certificate hot reload on file change
//
// The serving certificate is read through Watcher.GetCertificate, so a
// rotated key pair takes effect on the next handshake without a restart.
// A client CA file turns on mutual TLS.
package tlsroots
