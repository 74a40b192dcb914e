// Package metric provides Prometheus metrics for cryptogen.
package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/cryptogen-go/internal/core/pool"
)

const namespace = "cryptogen"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Pool metrics
	PoolSize            prometheus.Gauge
	PoolMaxSize         prometheus.Gauge
	PoolTokenByteLength prometheus.Gauge
	RefillsInFlight     prometheus.Gauge
	RefillsTotal        *prometheus.CounterVec
	TokensGenerated     prometheus.Counter

	// Request metrics
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	GenerationDuration prometheus.Histogram
}

var _ pool.Observer = (*Registry)(nil)

// NewRegistry creates a registry with the cryptogen metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		PoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_size",
			Help:      "Number of tokens currently pooled.",
		}),
		PoolMaxSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_max_size",
			Help:      "Configured pool refill ceiling.",
		}),
		PoolTokenByteLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_token_byte_length",
			Help:      "Configured token length in bytes.",
		}),
		RefillsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_refills_in_flight",
			Help:      "Refills currently running (0 or 1 per pool).",
		}),
		RefillsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_refills_total",
			Help:      "Completed refills by result.",
		}, []string{"result"}),
		TokensGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_tokens_generated_total",
			Help:      "Tokens added to the pool by refills.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Session requests by kind and result.",
		}, []string{"kind", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Round-trip latency of session requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"kind"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Outstanding session requests.",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Worker-reported generation time per token request.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.PoolSize,
		r.PoolMaxSize,
		r.PoolTokenByteLength,
		r.RefillsInFlight,
		r.RefillsTotal,
		r.TokensGenerated,
		r.RequestsTotal,
		r.RequestDuration,
		r.RequestsInFlight,
		r.GenerationDuration,
	)

	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns the /metrics handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns the /metrics handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Register adds an extra collector (see PoolCollector).
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Unregister removes a collector added with Register.
func (r *Registry) Unregister(c prometheus.Collector) bool {
	return r.registry.Unregister(c)
}

// RefillStarted implements pool.Observer.
func (r *Registry) RefillStarted() {
	r.RefillsInFlight.Inc()
}

// RefillCompleted implements pool.Observer.
func (r *Registry) RefillCompleted(produced int, err error) {
	r.RefillsInFlight.Dec()
	if err != nil {
		r.RefillsTotal.WithLabelValues(ResultError).Inc()
		return
	}
	r.RefillsTotal.WithLabelValues(ResultOK).Inc()
	r.TokensGenerated.Add(float64(produced))
}

// SizeChanged implements pool.Observer.
func (r *Registry) SizeChanged(size int) {
	r.PoolSize.Set(float64(size))
}

// ConfigChanged implements pool.Observer.
func (r *Registry) ConfigChanged(setting string, value int) {
	switch setting {
	case pool.SettingMaxSize:
		r.PoolMaxSize.Set(float64(value))
	case pool.SettingTokenByteLength:
		r.PoolTokenByteLength.Set(float64(value))
	}
}

// ObserveRequest records one finished session request.
func (r *Registry) ObserveRequest(kind string, err error, d time.Duration) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.RequestsTotal.WithLabelValues(kind, result).Inc()
	r.RequestDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveGeneration records the worker-reported generation time.
func (r *Registry) ObserveGeneration(d time.Duration) {
	r.GenerationDuration.Observe(d.Seconds())
}
