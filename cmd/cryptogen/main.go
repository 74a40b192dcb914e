// Package main provides the entry point for cryptogen.
//
// cryptogen generates cryptographically secure tokens from a pooled
// background worker, either one-shot (get, bench) or as a long-running
// HTTP service (run).
package main

import (
	"os"

	"github.com/yndnr/cryptogen-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
