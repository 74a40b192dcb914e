// Package config defines the cryptogen configuration structure.
package config

import (
	"time"

	"github.com/yndnr/cryptogen-go/pkg/token"
)

// Default configuration values.
const (
	DefaultMaxSize         = 100
	DefaultTokenByteLength = token.DefaultLength
	DefaultSource          = token.SourceSystem

	DefaultBurst       = 1
	DefaultInitTimeout = 5 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultServerAddr      = "127.0.0.1:8080"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultMetricsPath = "/metrics"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Pool: PoolSection{
			MaxSize:         DefaultMaxSize,
			TokenByteLength: DefaultTokenByteLength,
			Source:          DefaultSource,
		},
		Session: SessionSection{
			Burst:       DefaultBurst,
			InitTimeout: DefaultInitTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Server: ServerSection{
			Addr:            DefaultServerAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}
