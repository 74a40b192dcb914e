// Package token provides the fill primitive used by the token pool.
package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLength is the number of hex characters kept from the digest.
const fingerprintLength = 16

// Fingerprint returns a short, irreversible identifier for a token.
//
// It is the first 16 hex characters of SHA-256(token) and is the only
// representation of a token that may appear in logs.
func Fingerprint(t Token) string {
	h := sha256.Sum256(t)
	return hex.EncodeToString(h[:])[:fingerprintLength]
}
