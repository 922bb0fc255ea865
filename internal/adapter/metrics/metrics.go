// Package metrics defines the Prometheus collectors for indexing and
// queries and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document outcomes recorded per scan cycle.
const (
	OutcomeIndexed   = "indexed"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
	OutcomeDeleted   = "deleted"
)

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal    *prometheus.CounterVec
	ScanCyclesTotal   *prometheus.CounterVec
	ScanCycleDuration prometheus.Histogram
	IndexedDocuments  prometheus.Gauge
	QueriesTotal      *prometheus.CounterVec
	QueryLatency      *prometheus.HistogramVec
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry along
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdindex_documents_total",
				Help: "Documents processed by scan cycles, by outcome (indexed, unchanged, failed, deleted).",
			},
			[]string{"outcome"},
		),
		ScanCyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdindex_scan_cycles_total",
				Help: "Completed scan cycles by status.",
			},
			[]string{"status"},
		),
		ScanCycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mdindex_scan_cycle_duration_seconds",
				Help:    "Duration of a full scan and cleanup cycle.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mdindex_indexed_documents",
				Help: "Documents observed by the last scan cycle.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdindex_queries_total",
				Help: "Queries served by operation.",
			},
			[]string{"operation"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mdindex_query_latency_seconds",
				Help:    "Query latency in seconds by operation.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mdindex_cache_hits_total",
				Help: "Query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mdindex_cache_misses_total",
				Help: "Query cache misses.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DocumentsTotal,
		m.ScanCyclesTotal,
		m.ScanCycleDuration,
		m.IndexedDocuments,
		m.QueriesTotal,
		m.QueryLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Document(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.DocumentsTotal.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) Cycle(status string, d time.Duration, observed int) {
	if m == nil {
		return
	}
	m.ScanCyclesTotal.WithLabelValues(status).Inc()
	m.ScanCycleDuration.Observe(d.Seconds())
	if status == "ok" {
		m.IndexedDocuments.Set(float64(observed))
	}
}

func (m *Metrics) Query(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(operation).Inc()
	m.QueryLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}
