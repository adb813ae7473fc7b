package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records callback reconciliation outcomes.
type ReconciliationMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// Reconciliation outcome labels.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeUnknown   = "unknown_id"
)

// NewReconciliationMetrics registers the reconciliation metrics on the provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_reconciliation_duration_seconds",
		Help:    "Duration of payment callback reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliation_outcomes_total",
		Help: "Payment callback reconciliation outcomes.",
	}, []string{"outcome"})
	reg.MustRegister(duration, outcomes)
	return &ReconciliationMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveDuration records the reconciliation duration for the given outcome.
func (m *ReconciliationMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncOutcome increments the counter for the given outcome.
func (m *ReconciliationMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
