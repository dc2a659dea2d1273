package lookup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lookup service's Prometheus collectors.
type Metrics struct {
	lookups       *prometheus.CounterVec
	invalidations prometheus.Counter
	refreshes     *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics registers the lookup collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "playtime_lookups_total",
			Help: "Title lookups by outcome.",
		}, []string{"outcome"}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "playtime_invalidations_total",
			Help: "Client session invalidations, manual or miss-driven.",
		}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "playtime_background_refreshes_total",
			Help: "Background refreshes of stale cache entries by result.",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "playtime_resolve_duration_seconds",
			Help:    "Time spent resolving a title against the catalog.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeLookup(outcome Outcome) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) observeInvalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

func (m *Metrics) observeRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) observeResolve(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}
