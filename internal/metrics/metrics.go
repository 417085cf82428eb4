// Package metrics defines the Prometheus collectors for search requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "icelastic"

// Outcome labels for SearchRequestsTotal.
const (
	OutcomeOK           = "ok"
	OutcomeClientError  = "client_error"
	OutcomeBackendError = "backend_error"
)

// Metrics holds the search collectors.
type Metrics struct {
	SearchRequestsTotal *prometheus.CounterVec
	BackendLatency      *prometheus.HistogramVec
	SearchResultsCount  prometheus.Histogram
	CompileWarnings     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_requests_total",
				Help:      "Search requests by output format and outcome.",
			},
			[]string{"format", "outcome"},
		),
		BackendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Backend request latency in seconds.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"engine", "operation"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_results_total_hits",
				Help:      "Total hits reported per search.",
				Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
			},
		),
		CompileWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compile_warnings_total",
				Help:      "Recoverable problems found while compiling a search.",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(
		m.SearchRequestsTotal,
		m.BackendLatency,
		m.SearchResultsCount,
		m.CompileWarnings,
	)

	return m
}

// ObserveBackend records the duration of one backend call.
func (m *Metrics) ObserveBackend(engine, operation string, elapsed time.Duration) {
	m.BackendLatency.WithLabelValues(engine, operation).Observe(elapsed.Seconds())
}

// ObserveSearch records the outcome of one search request.
func (m *Metrics) ObserveSearch(format, outcome string) {
	m.SearchRequestsTotal.WithLabelValues(format, outcome).Inc()
}
