// Package token provides the fill primitive used by the token pool.
//
// A token is a fixed-length sequence of cryptographically secure random
// bytes. This package never formats or encodes tokens; it only produces
// the raw bytes and a log-safe fingerprint.
//
// Sources:
//
//   - system: crypto/rand (default)
//   - chacha20: ChaCha20 keystream keyed from crypto/rand, rekeyed
//     periodically
//
// Security:
//
//   - Tokens must never be logged; use Fingerprint instead
//   - Fingerprints are truncated SHA-256 digests and cannot be reversed
package token
