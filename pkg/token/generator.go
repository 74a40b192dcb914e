// Package token provides the fill primitive used by the token pool.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

// DefaultLength is the default token length in bytes.
const DefaultLength = 32

// Source names accepted by NewSource.
const (
	SourceSystem   = "system"
	SourceChaCha20 = "chacha20"
)

// ErrNegativeLength is returned when a fill is requested with a negative length.
var ErrNegativeLength = errors.New("token: length must be greater than or equal to zero")

// Token is an opaque fixed-length byte sequence.
type Token []byte

// Filler fills new buffers with cryptographically secure random bytes.
type Filler interface {
	// Fill returns n random bytes. n must be >= 0.
	Fill(n int) ([]byte, error)
}

// FillFunc adapts a function to the Filler interface.
type FillFunc func(n int) ([]byte, error)

// Fill implements Filler.
func (f FillFunc) Fill(n int) ([]byte, error) {
	return f(n)
}

// System is the crypto/rand backed filler.
var System Filler = FillFunc(GenerateBytes)

// GenerateBytes generates random bytes from crypto/rand.
func GenerateBytes(length int) ([]byte, error) {
	if length < 0 {
		return nil, ErrNegativeLength
	}
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}

// Generate generates a token of DefaultLength bytes.
func Generate() (Token, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a token with the specified byte length.
func GenerateWithLength(length int) (Token, error) {
	b, err := GenerateBytes(length)
	if err != nil {
		return nil, err
	}
	return Token(b), nil
}

// NewSource returns the filler registered under name.
// An empty name selects the system source.
func NewSource(name string) (Filler, error) {
	switch strings.ToLower(name) {
	case "", SourceSystem:
		return System, nil
	case SourceChaCha20:
		return NewChaCha20()
	default:
		return nil, fmt.Errorf("token: unknown source %q", name)
	}
}
