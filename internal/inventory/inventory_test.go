package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/brightstay/booking-backend/pkg/db/models"
	"github.com/brightstay/booking-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.InventoryRecord{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return conn
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func availableOn(t *testing.T, conn *gorm.DB, roomTypeID uuid.UUID, date time.Time) int {
	t.Helper()
	var rec models.InventoryRecord
	err := conn.Where("room_type_id = ? AND date = ?", roomTypeID, date).First(&rec).Error
	if err != nil {
		t.Fatalf("loading inventory row for %s: %v", date.Format("2006-01-02"), err)
	}
	return rec.AvailableRooms
}

func TestSeedRangeLeavesExistingRowsUntouched(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	roomTypeID := uuid.New()
	from, to := day(2026, time.March, 1), day(2026, time.March, 4)

	inserted, err := SeedRange(conn, roomTypeID, from, to, 10)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("expected 3 rows inserted, got %d", inserted)
	}

	if err := Decrement(conn, roomTypeID, []time.Time{from}, 4); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	// Re-seeding the same range must not reset the live count.
	if _, err := SeedRange(conn, roomTypeID, from, to, 10); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if got := availableOn(t, conn, roomTypeID, from); got != 6 {
		t.Fatalf("re-seed clobbered live count: got %d, want 6", got)
	}
}

func TestSeedRangeRejectsBadInput(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	roomTypeID := uuid.New()

	if _, err := SeedRange(conn, roomTypeID, day(2026, time.March, 1), day(2026, time.March, 2), -1); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for negative capacity, got %v", err)
	}
	if _, err := SeedRange(conn, roomTypeID, day(2026, time.March, 2), day(2026, time.March, 2), 5); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for empty range, got %v", err)
	}
}

func TestLockForUpdateReturnsAscendingDates(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	roomTypeID := uuid.New()
	if _, err := SeedRange(conn, roomTypeID, day(2026, time.June, 1), day(2026, time.June, 5), 3); err != nil {
		t.Fatalf("seed: %v", err)
	}

	shuffled := []time.Time{
		day(2026, time.June, 3),
		day(2026, time.June, 1),
		day(2026, time.June, 4),
		day(2026, time.June, 2),
	}
	records, err := LockForUpdate(conn, roomTypeID, shuffled)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if !records[i-1].Date.Before(records[i].Date) {
			t.Fatalf("records out of order at %d: %v then %v", i, records[i-1].Date, records[i].Date)
		}
	}
}

func TestValidateReportsEveryShortDate(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	roomTypeID := uuid.New()
	if _, err := SeedRange(conn, roomTypeID, day(2026, time.July, 1), day(2026, time.July, 3), 2); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// July 3 has no inventory row at all.
	dates := []time.Time{
		day(2026, time.July, 1),
		day(2026, time.July, 2),
		day(2026, time.July, 3),
	}
	records, err := LockForUpdate(conn, roomTypeID, dates)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	shortfalls := Validate(records, dates, 5)
	if len(shortfalls) != 3 {
		t.Fatalf("expected 3 shortfalls, got %d: %+v", len(shortfalls), shortfalls)
	}
	for _, sf := range shortfalls[:2] {
		if sf.Available != 2 || sf.Requested != 5 {
			t.Fatalf("unexpected shortfall %+v", sf)
		}
	}
	if shortfalls[2].Available != 0 {
		t.Fatalf("missing date should report zero availability, got %+v", shortfalls[2])
	}

	if got := Validate(records, dates[:2], 2); got != nil {
		t.Fatalf("satisfiable request should return no shortfalls, got %+v", got)
	}
}

func TestDecrementIncrementRoundtrip(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	roomTypeID := uuid.New()
	dates := []time.Time{day(2026, time.May, 10), day(2026, time.May, 11)}
	if _, err := SeedRange(conn, roomTypeID, dates[0], day(2026, time.May, 12), 7); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := Decrement(conn, roomTypeID, dates, 3); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	for _, d := range dates {
		if got := availableOn(t, conn, roomTypeID, d); got != 4 {
			t.Fatalf("after decrement %s: got %d, want 4", d.Format("2006-01-02"), got)
		}
	}

	if err := Increment(conn, roomTypeID, dates, 3); err != nil {
		t.Fatalf("increment: %v", err)
	}
	for _, d := range dates {
		if got := availableOn(t, conn, roomTypeID, d); got != 7 {
			t.Fatalf("after increment %s: got %d, want 7", d.Format("2006-01-02"), got)
		}
	}
}

func TestDecrementGuardAbortsOnUnderflow(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	roomTypeID := uuid.New()
	dates := []time.Time{day(2026, time.May, 20), day(2026, time.May, 21)}
	if _, err := SeedRange(conn, roomTypeID, dates[0], day(2026, time.May, 22), 2); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := Decrement(conn, roomTypeID, dates, 3)
	if !errors.IsCode(err, errors.CodeConcurrencyAbort) {
		t.Fatalf("expected concurrency abort, got %v", err)
	}

	// The guarded statement must not have touched either row.
	for _, d := range dates {
		if got := availableOn(t, conn, roomTypeID, d); got != 2 {
			t.Fatalf("guard leaked a write on %s: got %d, want 2", d.Format("2006-01-02"), got)
		}
	}
}

func TestIncrementMissingRowAborts(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	roomTypeID := uuid.New()
	if _, err := SeedRange(conn, roomTypeID, day(2026, time.May, 25), day(2026, time.May, 26), 2); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := Increment(conn, roomTypeID, []time.Time{day(2026, time.May, 25), day(2026, time.May, 26)}, 1)
	if !errors.IsCode(err, errors.CodeConcurrencyAbort) {
		t.Fatalf("expected concurrency abort for missing row, got %v", err)
	}
}

func TestSnapshotExcludesEndDate(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	roomTypeID := uuid.New()
	if _, err := SeedRange(conn, roomTypeID, day(2026, time.August, 1), day(2026, time.August, 5), 9); err != nil {
		t.Fatalf("seed: %v", err)
	}

	records, err := Snapshot(conn, roomTypeID, day(2026, time.August, 1), day(2026, time.August, 4))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.AvailableRooms != 9 {
			t.Fatalf("unexpected availability %+v", rec)
		}
	}
}
