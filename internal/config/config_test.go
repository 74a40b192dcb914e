package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/core/protocol"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Pool.MaxSize != DefaultMaxSize {
		t.Errorf("Pool.MaxSize = %d, want %d", cfg.Pool.MaxSize, DefaultMaxSize)
	}
	if cfg.Pool.TokenByteLength != DefaultTokenByteLength {
		t.Errorf("Pool.TokenByteLength = %d, want %d", cfg.Pool.TokenByteLength, DefaultTokenByteLength)
	}
	if cfg.Pool.Source != DefaultSource {
		t.Errorf("Pool.Source = %q, want %q", cfg.Pool.Source, DefaultSource)
	}
	if cfg.Session.IDStart != 0 || cfg.Session.MaxInFlight != 0 || cfg.Session.RateLimit != 0 {
		t.Errorf("Session = %+v, want unbounded defaults", cfg.Session)
	}
	if cfg.Session.InitTimeout != DefaultInitTimeout {
		t.Errorf("Session.InitTimeout = %v, want %v", cfg.Session.InitTimeout, DefaultInitTimeout)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics = %+v, want enabled at %s", cfg.Metrics, DefaultMetricsPath)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative max size", func(c *Config) { c.Pool.MaxSize = -1 }},
		{"negative token length", func(c *Config) { c.Pool.TokenByteLength = -1 }},
		{"unknown source", func(c *Config) { c.Pool.Source = "math/rand" }},
		{"negative id start", func(c *Config) { c.Session.IDStart = -1 }},
		{"unsafe id start", func(c *Config) { c.Session.IDStart = protocol.MaxSafeID + 1 }},
		{"negative in-flight", func(c *Config) { c.Session.MaxInFlight = -1 }},
		{"negative rate", func(c *Config) { c.Session.RateLimit = -1 }},
		{"rate without burst", func(c *Config) { c.Session.RateLimit = 10; c.Session.Burst = 0 }},
		{"negative init timeout", func(c *Config) { c.Session.InitTimeout = -time.Second }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"bad server addr", func(c *Config) { c.Server.Addr = "localhost" }},
		{"negative shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = -time.Second }},
		{"tls cert without key", func(c *Config) { c.Server.TLSCertFile = "server.crt" }},
		{"client ca without cert", func(c *Config) { c.Server.TLSClientCAFile = "ca.crt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := Verify(cfg); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("Verify() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestVerify_ValidEdges(t *testing.T) {
	cfg := Default()
	cfg.Pool.MaxSize = 0
	cfg.Pool.TokenByteLength = 0
	cfg.Pool.Source = "chacha20"
	cfg.Session.IDStart = protocol.MaxSafeID
	cfg.Session.RateLimit = 100
	cfg.Session.Burst = 10
	cfg.Log.Level = "WARNING"
	cfg.Log.Format = "text"

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pool.MaxSize != DefaultMaxSize {
		t.Errorf("Pool.MaxSize = %d, want %d", cfg.Pool.MaxSize, DefaultMaxSize)
	}
}

func TestLoad_FileEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cryptogen.yaml")
	content := `
pool:
  max_size: 10
  token_byte_length: 16
  source: chacha20
session:
  id_start: 1000
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CRYPTOGEN_POOL_TOKEN_BYTE_LENGTH", "48")

	cfg, err := Load(path, map[string]any{"log.level": "error"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pool.MaxSize != 10 {
		t.Errorf("Pool.MaxSize = %d, want 10 from file", cfg.Pool.MaxSize)
	}
	if cfg.Pool.TokenByteLength != 48 {
		t.Errorf("Pool.TokenByteLength = %d, want 48 from env", cfg.Pool.TokenByteLength)
	}
	if cfg.Pool.Source != "chacha20" {
		t.Errorf("Pool.Source = %q, want chacha20", cfg.Pool.Source)
	}
	if cfg.Session.IDStart != 1000 {
		t.Errorf("Session.IDStart = %d, want 1000", cfg.Session.IDStart)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error from overrides", cfg.Log.Level)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want default", cfg.Log.Format)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CRYPTOGEN_POOL_MAX_SIZE", "-5")

	if _, err := Load("", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Load() error = %v, want ErrInvalidArgument", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/cryptogen.yaml", nil); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}
