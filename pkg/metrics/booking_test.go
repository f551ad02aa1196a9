package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveReservation(OutcomeCreated, 20*time.Millisecond)
	m.ObserveReservation(OutcomeCreated, 10*time.Millisecond)
	m.ObserveReservation(OutcomeInsufficientInventory, 5*time.Millisecond)
	m.IncTransition("cancelled")

	if got := testutil.ToFloat64(m.reservations.WithLabelValues(OutcomeCreated)); got != 2 {
		t.Fatalf("created count = %v", got)
	}
	if got := testutil.ToFloat64(m.reservations.WithLabelValues(OutcomeInsufficientInventory)); got != 1 {
		t.Fatalf("insufficient count = %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("cancelled")); got != 1 {
		t.Fatalf("transition count = %v", got)
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *BookingMetrics
	m.ObserveReservation(OutcomeError, time.Millisecond)
	m.IncTransition("confirmed")

	empty := NewBookingMetrics(nil)
	empty.ObserveReservation(OutcomeCreated, time.Millisecond)
}
