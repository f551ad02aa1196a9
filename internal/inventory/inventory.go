package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brightstay/booking-backend/pkg/db"
	"github.com/brightstay/booking-backend/pkg/db/models"
	"github.com/brightstay/booking-backend/pkg/errors"
)

// Shortfall describes one stay night that cannot satisfy the requested
// room count. Available is zero when no inventory row exists for the date.
type Shortfall struct {
	Date      time.Time `json:"date"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// LockForUpdate loads the inventory rows for the given dates under a row
// lock, always in ascending date order so concurrent reservations acquire
// locks in the same sequence. Missing dates are simply absent from the
// result; Validate surfaces them as shortfalls.
func LockForUpdate(tx *gorm.DB, roomTypeID uuid.UUID, dates []time.Time) ([]models.InventoryRecord, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	ordered := make([]time.Time, len(dates))
	copy(ordered, dates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	query := tx.
		Where("room_type_id = ?", roomTypeID).
		Where("date IN ?", ordered).
		Order("date ASC")

	// SQLite serializes writers at the database level, so the explicit row
	// lock is a Postgres-only clause.
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var records []models.InventoryRecord
	if err := query.Find(&records).Error; err != nil {
		if db.IsSerializationFailure(err) {
			return nil, errors.Wrap(errors.CodeConcurrencyAbort, err, "locking inventory rows")
		}
		return nil, fmt.Errorf("locking inventory rows: %w", err)
	}
	return records, nil
}

// Validate checks the locked records against the requested room count and
// returns every date that falls short, including dates with no inventory
// row at all. An empty result means the whole stay can be satisfied.
func Validate(records []models.InventoryRecord, dates []time.Time, rooms int) []Shortfall {
	available := make(map[string]int, len(records))
	for _, rec := range records {
		available[dateKey(rec.Date)] = rec.AvailableRooms
	}

	var shortfalls []Shortfall
	for _, date := range dates {
		have, ok := available[dateKey(date)]
		if !ok {
			shortfalls = append(shortfalls, Shortfall{Date: date, Requested: rooms, Available: 0})
			continue
		}
		if have < rooms {
			shortfalls = append(shortfalls, Shortfall{Date: date, Requested: rooms, Available: have})
		}
	}
	return shortfalls
}

// Decrement subtracts rooms from every date of the stay in one guarded
// statement. The WHERE clause re-checks availability so a concurrent writer
// that slipped between lock and update cannot push a row negative; any
// mismatch in affected rows aborts the transaction.
func Decrement(tx *gorm.DB, roomTypeID uuid.UUID, dates []time.Time, rooms int) error {
	if len(dates) == 0 {
		return nil
	}

	res := tx.Model(&models.InventoryRecord{}).
		Where("room_type_id = ?", roomTypeID).
		Where("date IN ?", dates).
		Where("available_rooms >= ?", rooms).
		UpdateColumn("available_rooms", gorm.Expr("available_rooms - ?", rooms))
	if res.Error != nil {
		if db.IsSerializationFailure(res.Error) {
			return errors.Wrap(errors.CodeConcurrencyAbort, res.Error, "decrementing inventory")
		}
		return fmt.Errorf("decrementing inventory: %w", res.Error)
	}
	if res.RowsAffected != int64(len(dates)) {
		return errors.New(errors.CodeConcurrencyAbort,
			fmt.Sprintf("inventory changed underneath the transaction: decremented %d of %d dates", res.RowsAffected, len(dates)))
	}
	return nil
}

// Increment returns rooms to every date of the stay. The rows are locked
// first so the add pairs with the same ordering discipline as Decrement.
func Increment(tx *gorm.DB, roomTypeID uuid.UUID, dates []time.Time, rooms int) error {
	if len(dates) == 0 {
		return nil
	}

	records, err := LockForUpdate(tx, roomTypeID, dates)
	if err != nil {
		return err
	}
	if len(records) != len(dates) {
		return errors.New(errors.CodeConcurrencyAbort,
			fmt.Sprintf("restoring inventory: found %d of %d dates", len(records), len(dates)))
	}

	res := tx.Model(&models.InventoryRecord{}).
		Where("room_type_id = ?", roomTypeID).
		Where("date IN ?", dates).
		UpdateColumn("available_rooms", gorm.Expr("available_rooms + ?", rooms))
	if res.Error != nil {
		if db.IsSerializationFailure(res.Error) {
			return errors.Wrap(errors.CodeConcurrencyAbort, res.Error, "restoring inventory")
		}
		return fmt.Errorf("restoring inventory: %w", res.Error)
	}
	if res.RowsAffected != int64(len(dates)) {
		return errors.New(errors.CodeConcurrencyAbort,
			fmt.Sprintf("restoring inventory: updated %d of %d dates", res.RowsAffected, len(dates)))
	}
	return nil
}

// Snapshot reads availability without locking. Counts may be stale by the
// time the caller acts on them; reservations always re-check under lock.
func Snapshot(tx *gorm.DB, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := tx.
		Where("room_type_id = ?", roomTypeID).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("reading inventory snapshot: %w", err)
	}
	return records, nil
}

// SeedRange inserts inventory rows for [from, to) at the given capacity.
// Existing rows are left untouched so a re-seed never clobbers live counts.
func SeedRange(tx *gorm.DB, roomTypeID uuid.UUID, from, to time.Time, capacity int) (int64, error) {
	if capacity < 0 {
		return 0, errors.New(errors.CodeValidation, "capacity must not be negative")
	}
	if !to.After(from) {
		return 0, errors.New(errors.CodeValidation, "seed range must cover at least one date")
	}

	var rows []models.InventoryRecord
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		rows = append(rows, models.InventoryRecord{
			RoomTypeID:     roomTypeID,
			Date:           d,
			AvailableRooms: capacity,
		})
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("seeding inventory: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
