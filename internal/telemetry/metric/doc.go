// Package metric provides Prometheus metrics for cryptogen.
//
//   - prometheus.go: Registry, pool observer hooks, request metrics
//   - collector.go: scrape-time collector over pool statistics
//
// Metrics are exposed at /metrics by the run command.
package metric
