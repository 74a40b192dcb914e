// Package pool implements a self-refilling buffer of pre-generated tokens.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// Default pool settings.
const (
	DefaultMaxSize         = 100
	DefaultTokenByteLength = token.DefaultLength
)

// Setting names reported through Observer.ConfigChanged.
const (
	SettingMaxSize         = "max_size"
	SettingTokenByteLength = "token_byte_length"
)

// Options holds the pool configuration.
type Options struct {
	// MaxSize is the number of tokens the pool refills up to.
	MaxSize int
	// TokenByteLength is the byte length of every token.
	TokenByteLength int
	// Filler produces the random bytes. Defaults to token.System.
	Filler token.Filler
}

// DefaultOptions returns the default pool options.
func DefaultOptions() Options {
	return Options{
		MaxSize:         DefaultMaxSize,
		TokenByteLength: DefaultTokenByteLength,
		Filler:          token.System,
	}
}

// Option configures optional pool collaborators.
type Option func(*Pool)

// WithObserver registers an observer for lifecycle notifications.
func WithObserver(o Observer) Option {
	return func(p *Pool) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Size            int
	MaxSize         int
	TokenByteLength int
	Waiting         int
	Refilling       bool
	Refills         uint64
	RefillFailures  uint64
	Served          uint64
}

// refillOp is the handle shared by every caller waiting on one refill.
// err is written before done is closed.
type refillOp struct {
	done chan struct{}
	err  error
}

// Pool is a bounded buffer of tokens refilled in the background.
//
// At most one refill runs at a time. Callers that find the pool empty
// all wait on the same refill; the refill produces enough tokens for
// max(MaxSize, waiting callers), re-evaluated for every token generated.
type Pool struct {
	mu              sync.Mutex
	tokens          []token.Token
	maxSize         int
	tokenByteLength int
	generation      uint64
	pending         *refillOp
	waiting         int

	refills  uint64
	failures uint64
	served   uint64

	filler    token.Filler
	observers []Observer
	log       logger.Logger
}

// New creates a pool and starts filling it to MaxSize.
func New(opts Options, options ...Option) (*Pool, error) {
	if opts.MaxSize < 0 {
		return nil, domain.InvalidArgument("max size must be greater than or equal to zero, got %d", opts.MaxSize)
	}
	if opts.TokenByteLength < 0 {
		return nil, domain.InvalidArgument("token byte length must be greater than or equal to zero, got %d", opts.TokenByteLength)
	}

	p := &Pool{
		maxSize:         opts.MaxSize,
		tokenByteLength: opts.TokenByteLength,
		filler:          opts.Filler,
		log:             logger.Default(),
	}
	if p.filler == nil {
		p.filler = token.System
	}
	for _, opt := range options {
		opt(p)
	}
	p.log = p.log.With("component", "pool")

	p.mu.Lock()
	p.ensureRefillLocked()
	p.mu.Unlock()

	return p, nil
}

// GetToken returns a token, waiting for a refill when the pool is empty.
//
// Pop order is unspecified. A refill failure is returned to every caller
// waiting on that refill; the next call starts a fresh refill.
func (p *Pool) GetToken(ctx context.Context) (token.Token, error) {
	for {
		p.mu.Lock()
		if n := len(p.tokens); n > 0 {
			tok := p.tokens[n-1]
			p.tokens[n-1] = nil
			p.tokens = p.tokens[:n-1]
			p.served++
			p.mu.Unlock()

			p.notifySize(n - 1)
			return tok, nil
		}

		p.waiting++
		op := p.pending
		if op == nil {
			op = p.startRefillLocked()
		}
		p.mu.Unlock()

		var err error
		select {
		case <-op.done:
			err = op.err
		case <-ctx.Done():
			err = ctx.Err()
		}

		p.mu.Lock()
		p.waiting--
		p.mu.Unlock()

		if err != nil {
			return nil, err
		}
	}
}

// Wait blocks until the in-flight refill, if any, completes and returns its error.
func (p *Pool) Wait(ctx context.Context) error {
	p.mu.Lock()
	op := p.pending
	p.mu.Unlock()

	if op == nil {
		return nil
	}
	select {
	case <-op.done:
		return op.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MaxSize returns the refill ceiling.
func (p *Pool) MaxSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxSize
}

// SetMaxSize changes the refill ceiling.
//
// Growing starts a refill unless one is running. Shrinking is lazy: no
// tokens are discarded, future refills simply stop at the new ceiling.
func (p *Pool) SetMaxSize(n int) error {
	if n < 0 {
		return domain.InvalidArgument("max size must be greater than or equal to zero, got %d", n)
	}

	p.mu.Lock()
	if n == p.maxSize {
		p.mu.Unlock()
		return nil
	}
	p.maxSize = n
	p.ensureRefillLocked()
	p.mu.Unlock()

	p.log.Debug("max size changed", "max_size", n)
	p.notifyConfig(SettingMaxSize, n)
	return nil
}

// TokenByteLength returns the byte length of pooled tokens.
func (p *Pool) TokenByteLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenByteLength
}

// SetTokenByteLength changes the token length.
//
// Pooled tokens are discarded and a refill at the new length starts. A
// refill already running drops what it generated at the old length.
func (p *Pool) SetTokenByteLength(n int) error {
	if n < 0 {
		return domain.InvalidArgument("token byte length must be greater than or equal to zero, got %d", n)
	}

	p.mu.Lock()
	if n == p.tokenByteLength {
		p.mu.Unlock()
		return nil
	}
	p.tokenByteLength = n
	p.generation++
	clear(p.tokens)
	p.tokens = p.tokens[:0]
	p.ensureRefillLocked()
	p.mu.Unlock()

	p.log.Debug("token byte length changed", "token_byte_length", n)
	p.notifyConfig(SettingTokenByteLength, n)
	p.notifySize(0)
	return nil
}

// Size returns the number of pooled tokens.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tokens)
}

// Refilling reports whether a refill is in flight.
func (p *Pool) Refilling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Size:            len(p.tokens),
		MaxSize:         p.maxSize,
		TokenByteLength: p.tokenByteLength,
		Waiting:         p.waiting,
		Refilling:       p.pending != nil,
		Refills:         p.refills,
		RefillFailures:  p.failures,
		Served:          p.served,
	}
}

// targetLocked is the size a refill fills up to.
func (p *Pool) targetLocked() int {
	return max(p.maxSize, p.waiting)
}

// ensureRefillLocked starts a refill when below target and idle.
func (p *Pool) ensureRefillLocked() {
	if p.pending == nil && len(p.tokens) < p.targetLocked() {
		p.startRefillLocked()
	}
}

func (p *Pool) startRefillLocked() *refillOp {
	op := &refillOp{done: make(chan struct{})}
	p.pending = op
	go p.refill(op)
	return op
}

// refill generates tokens until the pool reaches its target. The batch
// is only exposed on success; a fill failure drops it.
func (p *Pool) refill(op *refillOp) {
	start := time.Now()
	p.notifyRefillStarted()

	var (
		batch []token.Token
		gen   uint64
		first = true
	)

	for {
		p.mu.Lock()
		if first || gen != p.generation {
			batch = batch[:0]
			gen = p.generation
			first = false
		}
		deficit := p.targetLocked() - len(p.tokens) - len(batch)
		length := p.tokenByteLength

		if deficit <= 0 {
			p.tokens = append(p.tokens, batch...)
			size := len(p.tokens)
			p.refills++
			p.pending = nil
			close(op.done)
			p.mu.Unlock()

			p.log.Debug("refill completed",
				"produced", len(batch),
				"size", size,
				"duration", time.Since(start))
			p.notifyRefillCompleted(len(batch), nil)
			p.notifySize(size)
			return
		}
		p.mu.Unlock()

		b, err := p.fill(length)
		if err == nil && len(b) != length {
			err = fmt.Errorf("fill returned %d bytes, want %d", len(b), length)
		}
		if err != nil {
			err = domain.ErrRefillFailed.Wrap(err)

			p.mu.Lock()
			p.failures++
			p.pending = nil
			op.err = err
			close(op.done)
			p.mu.Unlock()

			p.log.Warn("refill failed", "error", err, "discarded", len(batch))
			p.notifyRefillCompleted(0, err)
			return
		}
		batch = append(batch, token.Token(b))
	}
}

// fill calls the filler, turning a panic into an error.
func (p *Pool) fill(n int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("filler panicked: %v", r)
		}
	}()
	return p.filler.Fill(n)
}
