package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reservation outcome labels.
const (
	OutcomeCreated               = "created"
	OutcomeReplayed              = "replayed"
	OutcomeInsufficientInventory = "insufficient_inventory"
	OutcomeConcurrencyAbort      = "concurrency_abort"
	OutcomeError                 = "error"
)

// BookingMetrics tracks reservation and lifecycle outcomes.
type BookingMetrics struct {
	reservations *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewBookingMetrics registers booking metrics on the provided registerer.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reservations_total",
		Help: "Reservation attempts by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Booking lifecycle transitions by target status.",
	}, []string{"target"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booking_reservation_duration_seconds",
		Help:    "Duration of reservation transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(reservations, transitions, duration)
	return &BookingMetrics{
		reservations: reservations,
		transitions:  transitions,
		duration:     duration,
	}
}

// ObserveReservation records one reservation attempt.
func (b *BookingMetrics) ObserveReservation(outcome string, duration time.Duration) {
	if b == nil || b.reservations == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	b.reservations.WithLabelValues(outcome).Inc()
	b.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncTransition records one lifecycle transition.
func (b *BookingMetrics) IncTransition(target string) {
	if b == nil || b.transitions == nil {
		return
	}
	b.transitions.WithLabelValues(normalizeLabel(target)).Inc()
}
