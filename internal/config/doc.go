// Package config provides the cryptogen configuration.
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Range and enum validation
//   - load.go: Defaults < file < env < overrides
//
// Configuration is loaded via internal/infra/confloader.
package config
