// Package token provides the fill primitive used by the token pool.
package token

import (
	"crypto/rand"
	"sync"

	"golang.org/x/crypto/chacha20"
)

// DefaultRekeyInterval is the number of output bytes after which the
// ChaCha20 source draws a fresh key and nonce from crypto/rand.
const DefaultRekeyInterval = 1 << 20

// ChaCha20 is a Filler producing the ChaCha20 keystream under a random key.
//
// The key and nonce come from crypto/rand and are replaced every
// rekeyInterval bytes, well below the 256 GiB block counter limit.
type ChaCha20 struct {
	mu            sync.Mutex
	cipher        *chacha20.Cipher
	produced      int
	rekeyInterval int
	reader        func([]byte) (int, error)
}

// ChaChaOption configures a ChaCha20 source.
type ChaChaOption func(*ChaCha20)

// WithRekeyInterval overrides DefaultRekeyInterval.
func WithRekeyInterval(n int) ChaChaOption {
	return func(c *ChaCha20) {
		if n > 0 {
			c.rekeyInterval = n
		}
	}
}

// withSeedReader replaces crypto/rand for tests.
func withSeedReader(read func([]byte) (int, error)) ChaChaOption {
	return func(c *ChaCha20) {
		c.reader = read
	}
}

// NewChaCha20 creates a ChaCha20 source keyed from crypto/rand.
func NewChaCha20(opts ...ChaChaOption) (*ChaCha20, error) {
	c := &ChaCha20{
		rekeyInterval: DefaultRekeyInterval,
		reader:        rand.Read,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.rekey(); err != nil {
		return nil, err
	}
	return c, nil
}

// Fill implements Filler.
func (c *ChaCha20) Fill(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.produced+n > c.rekeyInterval {
		if err := c.rekey(); err != nil {
			return nil, err
		}
	}

	out := make([]byte, n)
	c.cipher.XORKeyStream(out, out)
	c.produced += n
	return out, nil
}

// rekey must be called with mu held (or during construction).
func (c *ChaCha20) rekey() error {
	seed := make([]byte, chacha20.KeySize+chacha20.NonceSize)
	if _, err := c.reader(seed); err != nil {
		return err
	}
	defer clear(seed)

	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:chacha20.KeySize], seed[chacha20.KeySize:])
	if err != nil {
		return err
	}
	c.cipher = cipher
	c.produced = 0
	return nil
}
