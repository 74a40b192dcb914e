package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/yndnr/cryptogen-go/internal/core/pool"
	"github.com/yndnr/cryptogen-go/internal/core/protocol"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/internal/telemetry/metric"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// Config configures a spawned worker.
type Config struct {
	// Pool holds the initial pool settings. A nil Pool.Filler is resolved
	// from Source.
	Pool pool.Options

	// Source names the fill primitive (token.SourceSystem or
	// token.SourceChaCha20).
	Source string
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	opts := pool.DefaultOptions()
	opts.Filler = nil
	return Config{Pool: opts, Source: token.SourceSystem}
}

// SpawnOption configures Spawn.
type SpawnOption func(*spawnOptions)

type spawnOptions struct {
	log      logger.Logger
	metrics  *metric.Registry
	buffer   int
	handlers []Handler
}

// WithLogger sets the worker logger.
func WithLogger(l logger.Logger) SpawnOption {
	return func(o *spawnOptions) {
		o.log = l
	}
}

// WithMetrics reports pool activity to reg.
func WithMetrics(reg *metric.Registry) SpawnOption {
	return func(o *spawnOptions) {
		o.metrics = reg
	}
}

// WithBuffer sets the per-direction pipe buffer.
func WithBuffer(n int) SpawnOption {
	return func(o *spawnOptions) {
		o.buffer = n
	}
}

// WithHandlers replaces the default handler set.
func WithHandlers(handlers ...Handler) SpawnOption {
	return func(o *spawnOptions) {
		o.handlers = handlers
	}
}

// Run announces readiness on the dispatcher's port, then dispatches every
// inbound message in its own goroutine until the port terminates or ctx
// is done. In-flight handlers are cancelled and awaited before Run
// returns.
func Run(ctx context.Context, d *Dispatcher) error {
	port := d.hctx.Port

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	if err := port.Send(protocol.NewReady()); err != nil {
		return err
	}

	for {
		select {
		case msg := <-port.Receive():
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.Dispatch(ctx, msg)
			}()
		case <-port.Done():
			return port.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Spawn returns a function that starts a worker goroutine and hands back
// the caller's end of its port.
//
// If the pool cannot be built the worker sends an untargeted error
// instead of ready. A panic in the worker goroutine fails the port.
func Spawn(cfg Config, opts ...SpawnOption) func(context.Context) (protocol.Port, error) {
	o := spawnOptions{
		log:      logger.Default(),
		buffer:   protocol.DefaultPipeBuffer,
		handlers: DefaultHandlers(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(ctx context.Context) (protocol.Port, error) {
		caller, end := protocol.Pipe(o.buffer)

		// The worker outlives the spawn call; only port closure stops it.
		wctx := context.WithoutCancel(ctx)

		go func() {
			log := o.log.With("component", "worker")
			defer func() {
				if r := recover(); r != nil {
					log.Error("worker panic recovered", "panic", r)
					end.Fail(fmt.Errorf("worker panic: %v", r))
				}
			}()

			p, err := newPool(cfg, o, log)
			if err != nil {
				log.Error("worker initialization failed", "error", err)
				_ = end.Send(protocol.NewError(err.Error()))
				return
			}

			if o.metrics != nil {
				o.metrics.ConfigChanged(pool.SettingMaxSize, p.MaxSize())
				o.metrics.ConfigChanged(pool.SettingTokenByteLength, p.TokenByteLength())

				c := metric.NewPoolCollector(p)
				if err := o.metrics.Register(c); err != nil {
					log.Debug("pool collector not registered", "error", err)
				} else {
					defer o.metrics.Unregister(c)
				}
			}

			d := NewDispatcher(&Context{Pool: p, Port: end, Logger: log}, o.handlers...)
			err = Run(wctx, d)
			log.Debug("worker stopped", "reason", err)
		}()

		return caller, nil
	}
}

func newPool(cfg Config, o spawnOptions, log logger.Logger) (*pool.Pool, error) {
	opts := cfg.Pool
	if opts.Filler == nil {
		filler, err := token.NewSource(cfg.Source)
		if err != nil {
			return nil, err
		}
		opts.Filler = filler
	}

	poolOpts := []pool.Option{pool.WithLogger(log)}
	if o.metrics != nil {
		poolOpts = append(poolOpts, pool.WithObserver(o.metrics))
	}
	return pool.New(opts, poolOpts...)
}
