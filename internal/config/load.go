// Package config defines the cryptogen configuration structure.
package config

import (
	"fmt"

	"github.com/yndnr/cryptogen-go/internal/infra/confloader"
)

// Load builds the effective configuration: defaults, then the YAML file at
// path (optional), then CRYPTOGEN_* environment variables, then overrides
// (typically CLI flags keyed by "section.key").
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()

	opts := []confloader.Option{}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
