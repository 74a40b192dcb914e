package command

import (
	"context"

	"github.com/yndnr/cryptogen-go/internal/config"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/internal/telemetry/metric"
	"github.com/yndnr/cryptogen-go/pkg/cryptogen"
)

// sessionOptions maps the effective configuration onto session options.
// reg may be nil.
func sessionOptions(cfg *config.Config, log logger.Logger, reg *metric.Registry) []cryptogen.Option {
	opts := []cryptogen.Option{
		cryptogen.WithPool(cryptogen.PoolConfig{
			MaxSize:         cfg.Pool.MaxSize,
			TokenByteLength: cfg.Pool.TokenByteLength,
			Source:          cfg.Pool.Source,
		}),
		cryptogen.WithLogger(log),
		cryptogen.WithIDStart(cfg.Session.IDStart),
		cryptogen.WithMaxInFlight(cfg.Session.MaxInFlight),
		cryptogen.WithRateLimit(cfg.Session.RateLimit, cfg.Session.Burst),
		cryptogen.WithInitTimeout(cfg.Session.InitTimeout),
	}
	if reg != nil {
		opts = append(opts, cryptogen.WithMetrics(reg))
	}
	return opts
}

// newSession creates a session for cfg.
func newSession(ctx context.Context, cfg *config.Config, log logger.Logger, reg *metric.Registry) (*cryptogen.Session, error) {
	return cryptogen.Create(ctx, sessionOptions(cfg, log, reg)...)
}
