package moversapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client's Prometheus instrumentation. Constructed against
// a caller-supplied registerer so multiple clients can coexist in one
// process without duplicate registration.
type Metrics struct {
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	dedupShared      prometheus.Counter
	retries          prometheus.Counter
	breakerRejected  prometheus.Counter
	globalBlocked    prometheus.Counter
	consentBlocked   prometheus.Counter
	requestsTotal    *prometheus.CounterVec
	notificationsSum prometheus.Counter
}

// NewMetrics registers and returns the client metric set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "moversapi_cache_hits_total",
			Help: "Response cache hits.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "moversapi_cache_misses_total",
			Help: "Response cache misses, including lazy expirations.",
		}),
		dedupShared: factory.NewCounter(prometheus.CounterOpts{
			Name: "moversapi_dedup_shared_total",
			Help: "Calls that joined an identical in-flight request.",
		}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "moversapi_retries_total",
			Help: "Retry attempts after the initial request.",
		}),
		breakerRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "moversapi_breaker_rejected_total",
			Help: "Requests rejected by an open per-endpoint circuit breaker.",
		}),
		globalBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "moversapi_global_blocked_total",
			Help: "Requests rejected by the global request block.",
		}),
		consentBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "moversapi_consent_blocked_total",
			Help: "Requests rejected by the consent gate.",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "moversapi_requests_total",
			Help: "Network requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		notificationsSum: factory.NewCounter(prometheus.CounterOpts{
			Name: "moversapi_notifications_shown_total",
			Help: "Failure notifications shown to the UI layer.",
		}),
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) dedupShare() {
	if m != nil {
		m.dedupShared.Inc()
	}
}

func (m *Metrics) retry() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) breakerReject() {
	if m != nil {
		m.breakerRejected.Inc()
	}
}

func (m *Metrics) globalBlock() {
	if m != nil {
		m.globalBlocked.Inc()
	}
}

func (m *Metrics) consentReject() {
	if m != nil {
		m.consentBlocked.Inc()
	}
}

func (m *Metrics) request(endpoint, outcome string) {
	if m != nil {
		m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	}
}

func (m *Metrics) notificationShown() {
	if m != nil {
		m.notificationsSum.Inc()
	}
}
