// Package benchmark holds the throughput benchmarks of cryptogen.
//
// Run them with:
//
//	go test -bench . -benchmem ./internal/tests/benchmark/
//
// Suites:
//
//   - token: raw fill sources (system, chacha20) and fingerprints
//   - pool: refill and pop path of the token pool
//   - session: end-to-end Session.Get through the worker
package benchmark
