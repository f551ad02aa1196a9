package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brightstay/booking-backend/pkg/db/models"
	"github.com/brightstay/booking-backend/pkg/errors"
)

// Two requests race for the whole pool. At most one may win; the loser has
// to surface a clean taxonomy error, never a partial decrement. On sqlite
// the loser can abort on the write lock before the availability check runs,
// so a concurrency abort is as acceptable as insufficient inventory.
func TestConcurrentReservesSingleWinner(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	roomTypeID := uuid.New()
	seed(t, conn, roomTypeID, day(2025, time.November, 1), day(2025, time.November, 6), 3)

	start := make(chan struct{})
	outcomes := make([]error, 2)
	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := baseInput(roomTypeID)
			input.RoomsBooked = 3
			<-start
			_, err := svc.Reserve(context.Background(), input)
			outcomes[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range outcomes {
		if err == nil {
			winners++
			continue
		}
		if !errors.IsCode(err, errors.CodeInsufficientInventory) && !errors.IsCode(err, errors.CodeConcurrencyAbort) {
			t.Fatalf("loser surfaced an unexpected error: %v", err)
		}
	}
	if winners > 1 {
		t.Fatalf("two requests for 3 rooms both won over a pool of 3")
	}

	want := 3 - 3*winners
	for d := day(2025, time.November, 1); d.Before(day(2025, time.November, 5)); d = d.AddDate(0, 0, 1) {
		got := availableOn(t, conn, roomTypeID, d)
		if got < 0 {
			t.Fatalf("%s: inventory went negative: %d", d.Format("2006-01-02"), got)
		}
		if got != want {
			t.Fatalf("%s: got %d rooms, want %d", d.Format("2006-01-02"), got, want)
		}
	}

	var bookings int64
	conn.Model(&models.Booking{}).Count(&bookings)
	if int(bookings) != winners {
		t.Fatalf("booking rows (%d) do not match winners (%d)", bookings, winners)
	}
}

// Many single-room requests against a small pool. However the races resolve,
// committed inventory never drops below zero and every booked room is
// accounted for by exactly one booking row.
func TestConcurrentReservesNeverOverdraw(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	roomTypeID := uuid.New()
	seed(t, conn, roomTypeID, day(2025, time.November, 1), day(2025, time.November, 6), 5)

	const attempts = 8
	start := make(chan struct{})
	outcomes := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := baseInput(roomTypeID)
			input.RoomsBooked = 1
			<-start
			_, err := svc.Reserve(context.Background(), input)
			outcomes[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range outcomes {
		if err == nil {
			winners++
			continue
		}
		if !errors.IsCode(err, errors.CodeInsufficientInventory) && !errors.IsCode(err, errors.CodeConcurrencyAbort) {
			t.Fatalf("unexpected error under contention: %v", err)
		}
	}
	if winners > 5 {
		t.Fatalf("%d winners over a pool of 5", winners)
	}

	for d := day(2025, time.November, 1); d.Before(day(2025, time.November, 5)); d = d.AddDate(0, 0, 1) {
		got := availableOn(t, conn, roomTypeID, d)
		if got < 0 {
			t.Fatalf("%s: inventory went negative: %d", d.Format("2006-01-02"), got)
		}
		if got != 5-winners {
			t.Fatalf("%s: got %d rooms, want %d", d.Format("2006-01-02"), got, 5-winners)
		}
	}

	var bookings int64
	conn.Model(&models.Booking{}).Count(&bookings)
	if int(bookings) != winners {
		t.Fatalf("booking rows (%d) do not match winners (%d)", bookings, winners)
	}
}

// The same request raced against itself: both goroutines derive the same
// idempotency key, so whatever interleaving occurs there is at most one
// booking row and at most one decrement. The loser of the bind race either
// resolves as a replay of the winner's booking or aborts cleanly.
func TestConcurrentReservesSameKeySingleBooking(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	roomTypeID := uuid.New()
	seed(t, conn, roomTypeID, day(2025, time.November, 1), day(2025, time.November, 6), 10)

	input := baseInput(roomTypeID)
	start := make(chan struct{})
	results := make([]*ReserveResult, 2)
	outcomes := make([]error, 2)
	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], outcomes[i] = svc.Reserve(context.Background(), input)
		}(i)
	}
	close(start)
	wg.Wait()

	var ids []uuid.UUID
	for i, err := range outcomes {
		if err == nil {
			ids = append(ids, results[i].Booking.ID)
			continue
		}
		if !errors.IsCode(err, errors.CodeConcurrencyAbort) {
			t.Fatalf("unexpected error for an identical racing request: %v", err)
		}
	}
	if len(ids) == 2 && ids[0] != ids[1] {
		t.Fatalf("identical requests produced two bookings: %s vs %s", ids[0], ids[1])
	}

	var bookings int64
	conn.Model(&models.Booking{}).Count(&bookings)
	if bookings > 1 {
		t.Fatalf("expected at most one booking row, got %d", bookings)
	}
	if got := availableOn(t, conn, roomTypeID, day(2025, time.November, 1)); got != 10-2*int(bookings) {
		t.Fatalf("inventory (%d) inconsistent with %d booking rows", got, bookings)
	}
}
