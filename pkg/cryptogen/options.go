package cryptogen

import (
	"context"
	"time"

	"github.com/yndnr/cryptogen-go/internal/core/pool"
	"github.com/yndnr/cryptogen-go/internal/core/protocol"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/internal/telemetry/metric"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// SpawnFunc starts a worker and returns the session's end of its port.
type SpawnFunc func(ctx context.Context) (protocol.Port, error)

// PoolConfig configures the pool of the default worker.
type PoolConfig struct {
	MaxSize         int
	TokenByteLength int
	Source          string
}

// DefaultPoolConfig returns the default worker pool settings.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxSize:         pool.DefaultMaxSize,
		TokenByteLength: pool.DefaultTokenByteLength,
		Source:          token.SourceSystem,
	}
}

// DefaultInitTimeout bounds the wait for worker readiness in Create.
const DefaultInitTimeout = 5 * time.Second

// Option configures a Session.
type Option func(*options)

type options struct {
	spawn       SpawnFunc
	pool        PoolConfig
	log         logger.Logger
	metrics     *metric.Registry
	idStart     int64
	maxInFlight int64
	rateLimit   float64
	burst       int
	initTimeout time.Duration
}

func defaultOptions() options {
	return options{
		pool:        DefaultPoolConfig(),
		log:         logger.Default(),
		initTimeout: DefaultInitTimeout,
	}
}

// WithSpawn replaces the default in-process worker.
func WithSpawn(spawn SpawnFunc) Option {
	return func(o *options) {
		o.spawn = spawn
	}
}

// WithPool sets the pool settings of the default worker. Ignored when
// WithSpawn is used.
func WithPool(cfg PoolConfig) Option {
	return func(o *options) {
		o.pool = cfg
	}
}

// WithLogger sets the session logger. The default worker inherits it.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records session and pool metrics in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(o *options) {
		o.metrics = reg
	}
}

// WithIDStart sets the first request id.
func WithIDStart(start int64) Option {
	return func(o *options) {
		o.idStart = start
	}
}

// WithMaxInFlight bounds the number of outstanding requests. Callers
// beyond the bound wait for a slot. n <= 0 means unbounded.
func WithMaxInFlight(n int64) Option {
	return func(o *options) {
		o.maxInFlight = n
	}
}

// WithRateLimit throttles request issue to perSecond with the given burst.
// perSecond <= 0 disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = perSecond
		o.burst = burst
	}
}

// WithInitTimeout bounds the wait for worker readiness. 0 waits for ctx only.
func WithInitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.initTimeout = d
	}
}
