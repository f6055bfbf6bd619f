// Package metrics exposes Prometheus metrics for the dashboard server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithHistogramBuckets sets the request duration buckets, in seconds.
func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) { m.buckets = b }
}

// WithRegistry registers metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

// Manager owns the server's metrics and the registry they are served from.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry
	auto      promauto.Factory

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter
	exports             *prometheus.CounterVec

	datasetRecords   prometheus.Gauge
	datasetCentroids prometheus.Gauge
	datasetEntities  prometheus.Gauge
	datasetWarnings  prometheus.Gauge
}

// New creates a Manager. Go runtime and process collectors are registered
// alongside the dashboard metrics.
func New(opts ...Option) *Manager {
	m := &Manager{
		namespace: "inetdash",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.auto = promauto.With(m.registry)

	m.httpRequests = m.auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = m.auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   m.buckets,
	}, []string{"route", "method"})

	m.rateLimited = m.auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	m.exports = m.auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "exports_total",
		Help:      "Table exports by format.",
	}, []string{"format"})

	m.datasetRecords = m.auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "records",
		Help:      "Usage records in the loaded dataset.",
	})
	m.datasetCentroids = m.auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "centroids",
		Help:      "Country centroids in the loaded dataset.",
	})
	m.datasetEntities = m.auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "entities",
		Help:      "Distinct selectable entities, excluding All.",
	})
	m.datasetWarnings = m.auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "warnings",
		Help:      "Warnings raised while loading the dataset.",
	})

	return m
}

// Registry returns the registry metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request.
func (m *Manager) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RateLimited counts a request rejected by the rate limiter.
func (m *Manager) RateLimited() { m.rateLimited.Inc() }

// Exported counts a table export.
func (m *Manager) Exported(format string) { m.exports.WithLabelValues(format).Inc() }

// SetDataset publishes the size of the loaded dataset.
func (m *Manager) SetDataset(records, centroids, entities, warnings int) {
	m.datasetRecords.Set(float64(records))
	m.datasetCentroids.Set(float64(centroids))
	m.datasetEntities.Set(float64(entities))
	m.datasetWarnings.Set(float64(warnings))
}

// CacheStatsFunc reports view cache hits, misses and current entries.
// CacheStatsFunc reports view cache hits, misses and current entries.
type CacheStatsFunc func() (hits, misses int64, entries int)

// WatchCache exposes view cache statistics read from stats at scrape time.
// It must be called at most once per Manager.
func (m *Manager) WatchCache(stats CacheStatsFunc) {
	m.auto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "view_cache",
		Name:      "hits_total",
		Help:      "View cache hits.",
	}, func() float64 {
		h, _, _ := stats()
		return float64(h)
	})
	m.auto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "view_cache",
		Name:      "misses_total",
		Help:      "View cache misses.",
	}, func() float64 {
		_, mi, _ := stats()
		return float64(mi)
	})
	m.auto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "view_cache",
		Name:      "entries",
		Help:      "Views currently cached.",
	}, func() float64 {
		_, _, e := stats()
		return float64(e)
	})
}
