// Package config defines the cryptogen configuration structure.
package config

import (
	"net"
	"strings"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/core/protocol"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyPool(&cfg.Pool); err != nil {
		return err
	}
	if err := verifySession(&cfg.Session); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return nil
}

func verifyPool(cfg *PoolSection) error {
	if cfg.MaxSize < 0 {
		return domain.InvalidArgument("pool.max_size must be greater than or equal to zero")
	}
	if cfg.TokenByteLength < 0 {
		return domain.InvalidArgument("pool.token_byte_length must be greater than or equal to zero")
	}
	switch cfg.Source {
	case token.SourceSystem, token.SourceChaCha20:
	default:
		return domain.InvalidArgument("pool.source must be %q or %q, got %q",
			token.SourceSystem, token.SourceChaCha20, cfg.Source)
	}
	return nil
}

func verifySession(cfg *SessionSection) error {
	if cfg.IDStart < 0 || cfg.IDStart > protocol.MaxSafeID {
		return domain.InvalidArgument("session.id_start must be between 0 and %d", protocol.MaxSafeID)
	}
	if cfg.MaxInFlight < 0 {
		return domain.InvalidArgument("session.max_in_flight must be greater than or equal to zero")
	}
	if cfg.RateLimit < 0 {
		return domain.InvalidArgument("session.rate_limit must be greater than or equal to zero")
	}
	if cfg.RateLimit > 0 && cfg.Burst < 1 {
		return domain.InvalidArgument("session.burst must be at least 1 when rate_limit is set")
	}
	if cfg.InitTimeout < 0 {
		return domain.InvalidArgument("session.init_timeout must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return domain.InvalidArgument("log.level %q is not supported", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return domain.InvalidArgument("log.format %q is not supported", cfg.Format)
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
			return domain.InvalidArgument("server.addr %q is not host:port", cfg.Addr)
		}
	}
	if cfg.ShutdownTimeout < 0 {
		return domain.InvalidArgument("server.shutdown_timeout must not be negative")
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return domain.InvalidArgument("server.tls_cert_file and server.tls_key_file must be set together")
	}
	if cfg.TLSClientCAFile != "" && cfg.TLSCertFile == "" {
		return domain.InvalidArgument("server.tls_client_ca_file requires server.tls_cert_file")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Enabled && !strings.HasPrefix(cfg.Path, "/") {
		return domain.InvalidArgument("metrics.path must start with /")
	}
	return nil
}
