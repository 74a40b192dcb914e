// Package metric provides Prometheus metrics for cryptogen.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/cryptogen-go/internal/core/pool"
)

// StatsSource is implemented by *pool.Pool.
type StatsSource interface {
	Stats() pool.Stats
}

// PoolCollector reads pool counters at scrape time.
type PoolCollector struct {
	source StatsSource

	waiting *prometheus.Desc
	served  *prometheus.Desc
	refills *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector creates a collector for source.
func NewPoolCollector(source StatsSource) *PoolCollector {
	return &PoolCollector{
		source: source,
		waiting: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "waiting_callers"),
			"Callers blocked on an empty pool.", nil, nil),
		served: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "tokens_served_total"),
			"Tokens handed out by the pool.", nil, nil),
		refills: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "refill_passes_total"),
			"Refill passes completed successfully.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.waiting
	ch <- c.served
	ch <- c.refills
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.waiting, prometheus.GaugeValue, float64(s.Waiting))
	ch <- prometheus.MustNewConstMetric(c.served, prometheus.CounterValue, float64(s.Served))
	ch <- prometheus.MustNewConstMetric(c.refills, prometheus.CounterValue, float64(s.Refills))
}
