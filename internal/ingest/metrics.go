package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ingestion outcomes. A nil *Metrics records nothing.
type Metrics struct {
	accepted       *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	insertFailures prometheus.Counter
}

// NewMetrics registers the ingestion counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		accepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsmon",
			Subsystem: "ingest",
			Name:      "accepted_total",
			Help:      "Measurements stored, by metric.",
		}, []string{"metric"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsmon",
			Subsystem: "ingest",
			Name:      "rejected_total",
			Help:      "Measurements rejected by validation, by offending field.",
		}, []string{"field"}),
		insertFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vitalsmon",
			Subsystem: "ingest",
			Name:      "insert_failures_total",
			Help:      "Valid measurements the store failed to persist.",
		}),
	}
}

func (m *Metrics) accept(metric string) {
	if m != nil {
		m.accepted.WithLabelValues(metric).Inc()
	}
}

func (m *Metrics) reject(field string) {
	if m != nil {
		m.rejected.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) insertFailed() {
	if m != nil {
		m.insertFailures.Inc()
	}
}
