// Package metrics holds the HTTP-level Prometheus metrics. Module-specific
// metrics live next to their modules.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the request-level Prometheus metrics.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// New creates and registers the request-level metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factgate_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "factgate_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}

// TrackInFlight marks a request as in flight and returns the release func.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.RequestsInFlight.Inc()
	return m.RequestsInFlight.Dec
}
