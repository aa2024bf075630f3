package trigger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks event delivery health.
type Metrics struct {
	Delivered       prometheus.Counter
	Dropped         *prometheus.CounterVec
	DeliveryFailure prometheus.Counter
}

// NewMetrics registers the trigger delivery metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factgate_trigger_events_delivered_total",
			Help: "Total trigger events delivered to the transport",
		}),
		Dropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "factgate_trigger_events_dropped_total",
			Help: "Total trigger events dropped before delivery",
		}, []string{"reason"}), // reason: "buffer_full", "circuit_open"
		DeliveryFailure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factgate_trigger_delivery_failures_total",
			Help: "Total failed delivery attempts to the transport",
		}),
	}
}

func (m *Metrics) incDelivered() {
	if m != nil {
		m.Delivered.Inc()
	}
}

func (m *Metrics) incDropped(reason string) {
	if m != nil {
		m.Dropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) incDeliveryFailure() {
	if m != nil {
		m.DeliveryFailure.Inc()
	}
}
