// Package metrics provides observability for the fact module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ingestion volume and critical path durations.
type Metrics struct {
	Ingested         *prometheus.CounterVec
	IngestDuration   prometheus.Histogram
	RetrieveDuration prometheus.Histogram
}

// New creates a Metrics instance with all fact module metrics registered.
func New() *Metrics {
	return &Metrics{
		Ingested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "factgate_facts_ingested_total",
			Help: "Total facts ingested by outcome",
		}, []string{"outcome"}), // outcome: "created", "refreshed"
		IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "factgate_fact_ingest_duration_seconds",
			Help:    "Duration of full fact ingestion including resolution and commit",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RetrieveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "factgate_fact_retrieve_duration_seconds",
			Help:    "Duration of fact retrieval by ID",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncIngested records one ingestion with its outcome.
func (m *Metrics) IncIngested(outcome string) {
	if m != nil {
		m.Ingested.WithLabelValues(outcome).Inc()
	}
}

// ObserveIngest records the duration of an Ingest call.
func (m *Metrics) ObserveIngest(start time.Time) {
	if m != nil {
		m.IngestDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveRetrieve records the duration of a GetFact call.
func (m *Metrics) ObserveRetrieve(start time.Time) {
	if m != nil {
		m.RetrieveDuration.Observe(time.Since(start).Seconds())
	}
}
