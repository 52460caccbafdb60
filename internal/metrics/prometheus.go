package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	selections     prometheus.Counter
	cacheHits      prometheus.Counter
	staleDrops     *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		selections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selections_total",
			Help: "The total number of fresh selections started",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selection_cache_hits_total",
			Help: "The total number of selections answered from saved places",
		}),
		staleDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "selection_stale_drops_total",
			Help: "The total number of async results dropped for stale tokens",
		}, []string{"section"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "The total number of upstream provider failures",
		}, []string{"provider"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "selection_sessions_active",
			Help: "The number of live selection sessions",
		}),
	}
	metrics.register()
	return metrics
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.selections, m.cacheHits, m.staleDrops, m.providerErrors, m.activeSessions)
}

// All increment methods tolerate a nil receiver so callers never need to
// carry a metrics instance in tests.

func (m *Metrics) IncrementSelections() {
	if m == nil {
		return
	}
	m.selections.Inc()
}

func (m *Metrics) IncrementCacheHits() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) IncrementStaleDrops(section string) {
	if m == nil {
		return
	}
	m.staleDrops.WithLabelValues(section).Inc()
}

func (m *Metrics) IncrementProviderErrors(provider string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncrementActiveSessions() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) DecrementActiveSessions() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
