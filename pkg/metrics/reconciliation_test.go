package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReconciliationMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReconciliationMetrics(reg)

	m.IncOutcome(OutcomeCompleted)
	m.IncOutcome(OutcomeCompleted)
	m.IncOutcome(OutcomeDuplicate)
	m.ObserveDuration(OutcomeCompleted, 5*time.Millisecond)

	completed := testutil.ToFloat64(m.outcomes.WithLabelValues(OutcomeCompleted))
	if completed != 2 {
		t.Fatalf("expected 2 completed, got %v", completed)
	}
	duplicate := testutil.ToFloat64(m.outcomes.WithLabelValues(OutcomeDuplicate))
	if duplicate != 1 {
		t.Fatalf("expected 1 duplicate, got %v", duplicate)
	}
}

func TestReconciliationMetricsNilSafe(t *testing.T) {
	var m *ReconciliationMetrics
	m.IncOutcome(OutcomeFailed)
	m.ObserveDuration(OutcomeFailed, time.Second)

	empty := NewReconciliationMetrics(nil)
	empty.IncOutcome("")
}
