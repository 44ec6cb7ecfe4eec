package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dian"

// Result labels of dian_search_total
const (
	ResultSuccess   = "success"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
	ResultCached    = "cached"
	ResultCancelled = "cancelled"
)

// Metrics holds the service collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	challenge      *prometheus.CounterVec
	activeSessions prometheus.Gauge
	cacheHits      prometheus.Counter
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Document searches by result.",
		}, []string{"result"}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall-clock duration of browser search runs.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90, 120},
		}),
		challenge: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_token_total",
			Help:      "Challenge token waits by whether a token was resolved before submit.",
		}, []string{"resolved"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Browser sessions currently running a search.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Searches answered from the outcome cache.",
		}),
	}
}

// ObserveSearch records one finished search
func (m *Metrics) ObserveSearch(result string, duration time.Duration) {
	m.searches.WithLabelValues(result).Inc()
	if result != ResultCached {
		m.searchDuration.Observe(duration.Seconds())
	}
}

// ObserveChallengeToken records the outcome of a token wait
func (m *Metrics) ObserveChallengeToken(resolved bool) {
	label := "false"
	if resolved {
		label = "true"
	}
	m.challenge.WithLabelValues(label).Inc()
}

// SessionStarted increments the active session gauge
func (m *Metrics) SessionStarted() { m.activeSessions.Inc() }

// SessionFinished decrements the active session gauge
func (m *Metrics) SessionFinished() { m.activeSessions.Dec() }

// CacheHit counts a cache hit
func (m *Metrics) CacheHit() { m.cacheHits.Inc() }

// Registry exposes the registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
