package pollbase

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics recorded by a Client.
// All Client call sites tolerate a nil Metrics so instrumentation stays
// opt-in via WithMetrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TokenRefreshes   *prometheus.CounterVec
	AuthRetriesTotal prometheus.Counter
	CacheHitsTotal   prometheus.Counter
}

// NewMetrics creates and registers all client metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pollbase",
				Name:      "requests_total",
				Help:      "Total number of API requests sent",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pollbase",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		TokenRefreshes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pollbase",
				Name:      "token_refreshes_total",
				Help:      "Total token refresh attempts",
			},
			[]string{"result"}, // result=success/failure
		),
		AuthRetriesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "pollbase",
				Name:      "auth_retries_total",
				Help:      "Requests retried after a 401 response",
			},
		),
		CacheHitsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "pollbase",
				Name:      "cache_hits_total",
				Help:      "Cached reads served from the response cache",
			},
		),
	}
}

func (m *Metrics) observeRequest(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) incRefresh(result string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) incAuthRetry() {
	if m == nil {
		return
	}
	m.AuthRetriesTotal.Inc()
}

func (m *Metrics) incCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}
