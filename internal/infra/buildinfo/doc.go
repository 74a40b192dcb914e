// Package buildinfo exposes version information for the cryptogen binary.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/cryptogen-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/cryptogen-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Without ldflags, Get falls back to the module and VCS data embedded by
// the Go toolchain.
package buildinfo
