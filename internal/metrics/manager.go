// Package metrics exposes catalog and ingestion counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "animedb"

// Manager owns the registry and the counters updated by the ingest, query,
// and API layers. A nil *Manager is valid and records nothing.
type Manager struct {
	registry *prometheus.Registry

	parses   *prometheus.CounterVec
	records  *prometheus.CounterVec
	rejected prometheus.Counter
	queries  *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewManager registers runtime collectors, the catalog collector for stats,
// and the activity counters. stats may be nil.
func NewManager(stats StatsFunc) *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if stats != nil {
		registry.MustRegister(NewCatalogCollector(stats))
	}

	m := &Manager{
		registry: registry,
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "parses_total",
			Help:      "Bulk listing parses by provenance (structured, fallback, failed).",
		}, []string{"provenance"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Parsed records offered to the catalog by outcome.",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rejected_entries_total",
			Help:      "Listing entries the pattern parser could not read.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "interpretations_total",
			Help:      "Search interpretations by source (structured, pattern).",
		}, []string{"source"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP API requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	registry.MustRegister(m.parses, m.records, m.rejected, m.queries, m.requests)
	return m
}

// Registry returns the Prometheus registry for exposition.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveParse counts one bulk parse.
func (m *Manager) ObserveParse(provenance string, rejected int) {
	if m == nil {
		return
	}
	m.parses.WithLabelValues(provenance).Inc()
	if rejected > 0 {
		m.rejected.Add(float64(rejected))
	}
}

// ObserveRecord counts one catalog add outcome.
func (m *Manager) ObserveRecord(outcome string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(outcome).Inc()
}

// ObserveQuery counts one search interpretation.
func (m *Manager) ObserveQuery(source string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(source).Inc()
}

// ObserveRequest counts one API response.
func (m *Manager) ObserveRequest(route, code string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, code).Inc()
}
