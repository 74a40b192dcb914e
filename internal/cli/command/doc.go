// Package command provides the cryptogen CLI commands.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, shared config and logger setup
//   - get.go: draw tokens from a one-shot session or a --server
//   - bench.go: measure session throughput and latency
//   - run.go: long-running HTTP server with hot config reload
//   - pool.go: inspect and change the pool of a running server
//   - remote.go: API client for --server
//   - config.go: show and validate the effective configuration
//   - version.go: build information
//
// Commands follow a consistent pattern of parsing flags, building a
// session from the effective configuration, and formatting output.
package command
