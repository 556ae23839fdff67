// Package metrics exposes Prometheus instrumentation for the trust
// service. All collectors live on a private registry so tests can
// create isolated managers without colliding with the default one.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns a Prometheus registry and the service's collectors.
type Manager struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	eventsIngested   *prometheus.CounterVec
	eventsDuplicate  prometheus.Counter
	recomputeRuns    prometheus.Counter
	recomputeLatency prometheus.Histogram
	rankQueries      prometheus.Counter
	leaderboardReads prometheus.Counter
	staleKeys        prometheus.Gauge
}

// Option customizes a Manager during construction.
type Option func(*Manager)

// WithRegistry replaces the Manager's private registry, letting a
// caller aggregate several components onto one registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager builds a Manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{registry: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(m)
	}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustgraph_http_requests_total",
		Help: "HTTP requests handled, by method, path and status code.",
	}, []string{"method", "path", "status"})

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trustgraph_http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"method", "path"})

	m.httpErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustgraph_http_errors_total",
		Help: "HTTP error responses, by path and error kind.",
	}, []string{"path", "kind"})

	m.eventsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustgraph_events_ingested_total",
		Help: "Trust events accepted into the store, by event type.",
	}, []string{"type"})

	m.eventsDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trustgraph_events_duplicate_total",
		Help: "Trust events rejected as duplicates of an earlier reference.",
	})

	m.recomputeRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trustgraph_recompute_runs_total",
		Help: "Score recomputations performed across all windows.",
	})

	m.recomputeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trustgraph_recompute_duration_ms",
		Help:    "Latency of a single subject/skill recomputation in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	m.rankQueries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trustgraph_rank_queries_total",
		Help: "Rank lookups served.",
	})

	m.leaderboardReads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trustgraph_leaderboard_queries_total",
		Help: "Leaderboard reads served.",
	})

	m.staleKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trustgraph_stale_score_keys",
		Help: "Subject/skill keys whose scores lag their newest event.",
	})

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.httpErrors,
		m.eventsIngested,
		m.eventsDuplicate,
		m.recomputeRuns,
		m.recomputeLatency,
		m.rankQueries,
		m.leaderboardReads,
		m.staleKeys,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler returns an http.Handler serving the registry in the
// Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest counts one handled request.
func (m *Manager) RecordHTTPRequest(method, path, status string) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
}

// RecordHTTPRequestDuration observes request latency in milliseconds.
func (m *Manager) RecordHTTPRequestDuration(method, path string, ms float64) {
	m.httpDuration.WithLabelValues(method, path).Observe(ms)
}

// RecordError counts one error response on a path with an error kind.
func (m *Manager) RecordError(path, kind string) {
	m.httpErrors.WithLabelValues(path, kind).Inc()
}

// RecordEventIngested counts one accepted trust event.
func (m *Manager) RecordEventIngested(eventType string) {
	m.eventsIngested.WithLabelValues(eventType).Inc()
}

// RecordEventDuplicate counts one duplicate-rejected trust event.
func (m *Manager) RecordEventDuplicate() { m.eventsDuplicate.Inc() }

// RecordRecompute records one subject/skill recomputation and its latency.
func (m *Manager) RecordRecompute(ms float64) {
	m.recomputeRuns.Inc()
	m.recomputeLatency.Observe(ms)
}

// RecordRankQuery counts one rank lookup.
func (m *Manager) RecordRankQuery() { m.rankQueries.Inc() }

// RecordLeaderboardQuery counts one leaderboard read.
func (m *Manager) RecordLeaderboardQuery() { m.leaderboardReads.Inc() }

// SetStaleKeys updates the stale key backlog gauge.
func (m *Manager) SetStaleKeys(n int) { m.staleKeys.Set(float64(n)) }

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide Manager, creating it on first use.
func Default() *Manager {
	defaultOnce.Do(func() { defaultManager = NewManager() })
	return defaultManager
}

// Package-level helpers delegating to the default Manager. Call sites
// that do not need an isolated registry use these directly.

func RecordHTTPRequest(method, path, status string) {
	Default().RecordHTTPRequest(method, path, status)
}

func RecordHTTPRequestDuration(method, path string, ms float64) {
	Default().RecordHTTPRequestDuration(method, path, ms)
}

func RecordError(path, kind string) { Default().RecordError(path, kind) }

func RecordEventIngested(eventType string) { Default().RecordEventIngested(eventType) }

func RecordEventDuplicate() { Default().RecordEventDuplicate() }

func RecordRecompute(ms float64) { Default().RecordRecompute(ms) }

func RecordRankQuery() { Default().RecordRankQuery() }

func RecordLeaderboardQuery() { Default().RecordLeaderboardQuery() }

func SetStaleKeys(n int) { Default().SetStaleKeys(n) }

// GetRegistry returns the default Manager's registry.
func GetRegistry() *prometheus.Registry { return Default().Registry() }
