package enums

import "testing"

func TestBookingStatusTransitions(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to BookingStatus }{
		{BookingStatusProvisional, BookingStatusConfirmed},
		{BookingStatusProvisional, BookingStatusCancelled},
		{BookingStatusConfirmed, BookingStatusCancelled},
		{BookingStatusConfirmed, BookingStatusCompleted},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	rejected := []struct{ from, to BookingStatus }{
		{BookingStatusProvisional, BookingStatusCompleted},
		{BookingStatusCancelled, BookingStatusConfirmed},
		{BookingStatusCancelled, BookingStatusCancelled},
		{BookingStatusCompleted, BookingStatusCancelled},
		{BookingStatusConfirmed, BookingStatusProvisional},
	}
	for _, tc := range rejected {
		if tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	t.Parallel()

	if !BookingStatusCancelled.IsTerminal() || !BookingStatusCompleted.IsTerminal() {
		t.Fatal("cancelled and completed are terminal")
	}
	if BookingStatusProvisional.IsTerminal() || BookingStatusConfirmed.IsTerminal() {
		t.Fatal("provisional and confirmed are not terminal")
	}
}

func TestParseBookingStatus(t *testing.T) {
	t.Parallel()

	status, err := ParseBookingStatus("confirmed")
	if err != nil || status != BookingStatusConfirmed {
		t.Fatalf("parse confirmed: %v %s", err, status)
	}
	if _, err := ParseBookingStatus("checked_in"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
