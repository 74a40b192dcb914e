// Package config defines the cryptogen configuration structure.
package config

import "time"

// Config is the root configuration for cryptogen.
type Config struct {
	Pool    PoolSection    `koanf:"pool" yaml:"pool" json:"pool"`
	Session SessionSection `koanf:"session" yaml:"session" json:"session"`
	Log     LogSection     `koanf:"log" yaml:"log" json:"log"`
	Server  ServerSection  `koanf:"server" yaml:"server" json:"server"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics" json:"metrics"`
}

// PoolSection configures the worker's token pool.
type PoolSection struct {
	// MaxSize is the refill ceiling. 0 disables pooling: every request
	// triggers a refill sized to the waiting callers.
	MaxSize int `koanf:"max_size" yaml:"max_size" json:"max_size"`

	// TokenByteLength is the length of every generated token in bytes.
	TokenByteLength int `koanf:"token_byte_length" yaml:"token_byte_length" json:"token_byte_length"`

	// Source selects the fill primitive: "system" or "chacha20".
	Source string `koanf:"source" yaml:"source" json:"source"`
}

// SessionSection configures the caller-side session.
type SessionSection struct {
	// IDStart is the first request id.
	IDStart int64 `koanf:"id_start" yaml:"id_start" json:"id_start"`

	// MaxInFlight bounds outstanding requests. 0 means unbounded.
	MaxInFlight int64 `koanf:"max_in_flight" yaml:"max_in_flight" json:"max_in_flight"`

	// RateLimit is the allowed requests per second. 0 disables throttling.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	Burst     int     `koanf:"burst" yaml:"burst" json:"burst"`

	// InitTimeout bounds the wait for worker readiness.
	InitTimeout time.Duration `koanf:"init_timeout" yaml:"init_timeout" json:"init_timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// ServerSection configures the HTTP listener of the run command.
type ServerSection struct {
	Addr            string        `koanf:"addr" yaml:"addr" json:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// TLSCertFile and TLSKeyFile enable HTTPS. Both are reloaded when
	// either file changes.
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file" json:"tls_key_file"`

	// TLSClientCAFile, when set, requires clients to present a
	// certificate signed by one of its CAs.
	TLSClientCAFile string `koanf:"tls_client_ca_file" yaml:"tls_client_ca_file" json:"tls_client_ca_file"`
}

// TLSEnabled reports whether the server should serve HTTPS.
func (s ServerSection) TLSEnabled() bool {
	return s.TLSCertFile != ""
}

// MetricsSection configures the Prometheus endpoint mounted on the server.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `koanf:"path" yaml:"path" json:"path"`
}
