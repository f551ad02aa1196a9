package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brightstay/booking-backend/internal/inventory"
	"github.com/brightstay/booking-backend/pkg/db"
	"github.com/brightstay/booking-backend/pkg/db/models"
	"github.com/brightstay/booking-backend/pkg/enums"
	"github.com/brightstay/booking-backend/pkg/errors"
)

// Confirm moves a provisional booking to confirmed. Inventory is untouched;
// the rooms were already decremented at reservation time.
func (s *Service) Confirm(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, bookingID, enums.BookingStatusConfirmed)
}

// Cancel releases a booking and returns its rooms to inventory in the same
// transaction. Cancelling an already-cancelled booking is a no-op that
// returns the booking unchanged; the restore never runs twice.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, bookingID, enums.BookingStatusCancelled)
}

// Complete marks a confirmed booking as completed after the stay.
func (s *Service) Complete(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, bookingID, enums.BookingStatusCompleted)
}

func (s *Service) transition(ctx context.Context, bookingID uuid.UUID, target enums.BookingStatus) (*models.Booking, error) {
	var record models.Booking

	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		query := tx.Where("id = ?", bookingID)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.CodeNotFound, "booking not found")
			}
			return fmt.Errorf("loading booking: %w", err)
		}

		if target == enums.BookingStatusCancelled && record.Status == enums.BookingStatusCancelled {
			return nil
		}

		if !record.Status.CanTransitionTo(target) {
			return errors.New(errors.CodeInvalidState,
				fmt.Sprintf("cannot move booking from %s to %s", record.Status, target)).
				WithDetails(map[string]string{"from": record.Status.String(), "to": target.String()})
		}

		if target == enums.BookingStatusCancelled {
			dates, err := StayNights(record.StartDate, record.EndDate, 0)
			if err != nil {
				return err
			}
			if err := inventory.Increment(tx, record.RoomTypeID, dates, record.RoomsBooked); err != nil {
				return err
			}
		}

		record.Status = target
		if err := tx.Model(&models.Booking{}).
			Where("id = ?", record.ID).
			UpdateColumn("status", target).Error; err != nil {
			return fmt.Errorf("updating booking status: %w", err)
		}
		return nil
	})
	if err != nil {
		if db.IsSerializationFailure(err) {
			return nil, errors.Wrap(errors.CodeConcurrencyAbort, err, "transition transaction aborted")
		}
		return nil, err
	}

	s.metrics.IncTransition(target.String())
	s.logg.Info(s.logg.WithBookingID(ctx, record.ID.String()), "booking "+target.String())
	return &record, nil
}

// ExpireStaleProvisional cancels provisional bookings older than cutoff, at
// most batch per call. Each expiry runs in its own transaction so one stuck
// booking cannot wedge the whole sweep.
func (s *Service) ExpireStaleProvisional(ctx context.Context, cutoff time.Time, batch int) (int, error) {
	if batch < 1 {
		batch = 1
	}

	var stale []models.Booking
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.
			Where("status = ?", enums.BookingStatusProvisional).
			Where("created_at < ?", cutoff).
			Order("created_at ASC").
			Limit(batch).
			Find(&stale).Error
	})
	if err != nil {
		return 0, fmt.Errorf("listing stale provisional bookings: %w", err)
	}

	expired := 0
	for _, record := range stale {
		didExpire, err := s.expireOne(ctx, record.ID)
		if err != nil {
			return expired, err
		}
		if didExpire {
			expired++
		}
	}
	return expired, nil
}

// expireOne cancels a single provisional booking, re-checking the status
// under lock. A booking confirmed between the listing and this call is not
// stale anymore and is left alone.
func (s *Service) expireOne(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	expired := false
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		var record models.Booking
		query := tx.Where("id = ?", bookingID)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return fmt.Errorf("loading booking: %w", err)
		}
		if record.Status != enums.BookingStatusProvisional {
			return nil
		}

		dates, err := StayNights(record.StartDate, record.EndDate, 0)
		if err != nil {
			return err
		}
		if err := inventory.Increment(tx, record.RoomTypeID, dates, record.RoomsBooked); err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).
			Where("id = ?", record.ID).
			UpdateColumn("status", enums.BookingStatusCancelled).Error; err != nil {
			return fmt.Errorf("updating booking status: %w", err)
		}
		expired = true
		return nil
	})
	if err != nil {
		if db.IsSerializationFailure(err) {
			return false, errors.Wrap(errors.CodeConcurrencyAbort, err, "expiry transaction aborted")
		}
		return false, err
	}

	if expired {
		s.metrics.IncTransition(enums.BookingStatusCancelled.String())
		s.logg.Info(s.logg.WithBookingID(ctx, bookingID.String()), "provisional booking expired")
	}
	return expired, nil
}
