// Package metrics exposes Prometheus counters for fetches, syncs and queries.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	fetches *prometheus.CounterVec
	writes  *prometheus.CounterVec
	queries *prometheus.CounterVec
	syncs   prometheus.Histogram
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandi_fetch_total",
				Help: "External market API calls by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		writes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandi_upsert_total",
				Help: "Price upserts by source and result (created, updated, error).",
			},
			[]string{"source", "result"},
		),
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandi_query_total",
				Help: "Price queries by the tier that served them.",
			},
			[]string{"source"},
		),
		syncs: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mandi_sync_batch_size",
				Help:    "Candidates per sync or bulk write.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
	}
}

// Fetch counts one provider call.
func (m *Metrics) Fetch(provider, outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(provider, outcome).Inc()
}

// Upsert counts one stored item.
func (m *Metrics) Upsert(source, result string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(source, result).Inc()
}

// Query counts one answered query.
func (m *Metrics) Query(source string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(source).Inc()
}

// Batch observes the size of a sync batch.
func (m *Metrics) Batch(n int) {
	if m == nil {
		return
	}
	m.syncs.Observe(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
