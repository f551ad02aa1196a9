package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brightstay/booking-backend/internal/idempotency"
	"github.com/brightstay/booking-backend/internal/inventory"
	"github.com/brightstay/booking-backend/pkg/config"
	"github.com/brightstay/booking-backend/pkg/db"
	"github.com/brightstay/booking-backend/pkg/db/models"
	"github.com/brightstay/booking-backend/pkg/enums"
	"github.com/brightstay/booking-backend/pkg/errors"
	"github.com/brightstay/booking-backend/pkg/logger"
	"github.com/brightstay/booking-backend/pkg/metrics"
	"github.com/brightstay/booking-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the reservation path and the booking lifecycle. All writes to
// bookings, inventory and idempotency keys happen inside a single transaction
// per operation.
type Service struct {
	runner  txRunner
	logg    *logger.Logger
	cfg     config.BookingConfig
	metrics *metrics.BookingMetrics
}

func NewService(runner txRunner, logg *logger.Logger, cfg config.BookingConfig, m *metrics.BookingMetrics) *Service {
	return &Service{
		runner:  runner,
		logg:    logg,
		cfg:     cfg,
		metrics: m,
	}
}

// Reserve creates a provisional booking, atomically decrementing inventory
// for every stay night. A request replaying a known idempotency key returns
// the original booking untouched. When two requests race on the same fresh
// key, the loser's transaction rolls back and the request is resolved as a
// replay against the winner's booking.
func (s *Service) Reserve(ctx context.Context, input ReserveInput) (*ReserveResult, error) {
	started := time.Now()
	result, err := s.reserve(ctx, input)
	s.metrics.ObserveReservation(reserveOutcome(result, err), time.Since(started))
	return result, err
}

func (s *Service) reserve(ctx context.Context, input ReserveInput) (*ReserveResult, error) {
	if err := validateReserveInput(input); err != nil {
		return nil, err
	}

	dates, err := StayNights(input.StartDate, input.EndDate, s.cfg.MaxStayNights)
	if err != nil {
		return nil, err
	}

	key, fromClient := idempotency.AcceptClientKey(input.ClientKey)
	if !fromClient {
		key = idempotency.DeriveKey(input.UserID, input.RoomTypeID, dates[0], dates[len(dates)-1].AddDate(0, 0, 1), input.RoomsBooked)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"room_type_id": input.RoomTypeID.String(),
		"user_id":      input.UserID.String(),
	})

	result, err := s.attemptReserve(ctx, input, dates, key, fromClient)
	if err == nil {
		return result, nil
	}

	// A bind conflict means another transaction committed the same key
	// between our lookup and insert. Resolve it as a replay.
	if errors.IsCode(err, errors.CodeIdempotencyConflict) {
		if replay, replayErr := s.resolveReplay(ctx, input, key); replayErr == nil {
			return replay, nil
		}
	}

	if db.IsSerializationFailure(err) {
		return nil, errors.Wrap(errors.CodeConcurrencyAbort, err, "reservation transaction aborted")
	}
	return nil, err
}

func (s *Service) attemptReserve(ctx context.Context, input ReserveInput, dates []time.Time, key string, fromClient bool) (*ReserveResult, error) {
	var result *ReserveResult

	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		binding, err := idempotency.Lookup(tx, key)
		if err != nil {
			return err
		}
		if binding != nil {
			replayed, err := s.loadReplay(tx, input, binding)
			if err != nil {
				return err
			}
			result = replayed
			return nil
		}

		records, err := inventory.LockForUpdate(tx, input.RoomTypeID, dates)
		if err != nil {
			return err
		}
		if shortfalls := inventory.Validate(records, dates, input.RoomsBooked); len(shortfalls) > 0 {
			return errors.New(errors.CodeInsufficientInventory,
				fmt.Sprintf("%d of %d stay nights cannot satisfy the request", len(shortfalls), len(dates))).
				WithDetails(shortfalls)
		}
		if err := inventory.Decrement(tx, input.RoomTypeID, dates, input.RoomsBooked); err != nil {
			return err
		}

		nights := decimal.NewFromInt(int64(len(dates)))
		rooms := decimal.NewFromInt(int64(input.RoomsBooked))
		record := models.Booking{
			ID:          uuid.New(),
			UserID:      input.UserID,
			RoomTypeID:  input.RoomTypeID,
			StartDate:   dates[0],
			EndDate:     dates[len(dates)-1].AddDate(0, 0, 1),
			RoomsBooked: input.RoomsBooked,
			Status:      initialStatus(input),
			TotalPrice:  input.NightlyRate.Mul(nights).Mul(rooms),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("creating booking: %w", err)
		}

		meta := types.JSONMap{"nights": len(dates), "client_key": fromClient}
		if err := idempotency.Bind(tx, key, record.ID, meta); err != nil {
			return err
		}

		result = &ReserveResult{Booking: record, IdempotencyKey: key}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Replayed {
		s.logg.Info(s.logg.WithBookingID(ctx, result.Booking.ID.String()), "booking reserved")
	}
	return result, nil
}

// loadReplay returns the booking a key was bound to, after verifying the
// replayed request carries the same parameters as the original. A key reused
// with different parameters is a hard conflict, never a silent overwrite.
func (s *Service) loadReplay(tx *gorm.DB, input ReserveInput, binding *models.IdempotencyKey) (*ReserveResult, error) {
	var record models.Booking
	if err := tx.Where("id = ?", binding.BookingID).First(&record).Error; err != nil {
		return nil, fmt.Errorf("loading booking for replay: %w", err)
	}

	if mismatch := replayMismatch(input, record); mismatch != "" {
		return nil, errors.New(errors.CodeIdempotencyConflict,
			"idempotency key was bound with different parameters").
			WithDetails(map[string]string{"mismatch": mismatch})
	}

	return &ReserveResult{
		Booking:        record,
		IdempotencyKey: binding.Key,
		Replayed:       true,
	}, nil
}

func (s *Service) resolveReplay(ctx context.Context, input ReserveInput, key string) (*ReserveResult, error) {
	var result *ReserveResult
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		binding, err := idempotency.Lookup(tx, key)
		if err != nil {
			return err
		}
		if binding == nil {
			return errors.New(errors.CodeConcurrencyAbort, "idempotency binding vanished during replay resolution")
		}
		replayed, err := s.loadReplay(tx, input, binding)
		if err != nil {
			return err
		}
		result = replayed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func replayMismatch(input ReserveInput, record models.Booking) string {
	switch {
	case record.UserID != input.UserID:
		return "user_id"
	case record.RoomTypeID != input.RoomTypeID:
		return "room_type_id"
	case !sameDate(record.StartDate, input.StartDate):
		return "start_date"
	case !sameDate(record.EndDate, input.EndDate):
		return "end_date"
	case record.RoomsBooked != input.RoomsBooked:
		return "rooms_booked"
	}
	return ""
}

func sameDate(a, b time.Time) bool {
	return toDate(a).Equal(toDate(b))
}

// Get loads a booking by ID.
func (s *Service) Get(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var record models.Booking
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", bookingID).First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.CodeNotFound, "booking not found")
			}
			return fmt.Errorf("loading booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Availability reads the unlocked availability counts for a date window.
func (s *Service) Availability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryRecord, error) {
	if !toDate(to).After(toDate(from)) {
		return nil, errors.New(errors.CodeValidation, "availability window must cover at least one date")
	}
	var records []models.InventoryRecord
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		records, err = inventory.Snapshot(tx, roomTypeID, toDate(from), toDate(to))
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SeedAvailability creates inventory rows for [from, to) at the given
// capacity, leaving existing rows alone.
func (s *Service) SeedAvailability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time, capacity int) (int64, error) {
	var inserted int64
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		inserted, err = inventory.SeedRange(tx, roomTypeID, toDate(from), toDate(to), capacity)
		return err
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func validateReserveInput(input ReserveInput) error {
	if input.UserID == uuid.Nil {
		return errors.New(errors.CodeValidation, "user_id is required")
	}
	if input.RoomTypeID == uuid.Nil {
		return errors.New(errors.CodeValidation, "room_type_id is required")
	}
	if input.RoomsBooked < 1 {
		return errors.New(errors.CodeValidation, "rooms_booked must be at least 1")
	}
	if input.NightlyRate.IsNegative() {
		return errors.New(errors.CodeValidation, "nightly_rate must not be negative")
	}
	switch input.InitialStatus {
	case "", enums.BookingStatusProvisional, enums.BookingStatusConfirmed:
	default:
		return errors.New(errors.CodeValidation, "initial_status must be provisional or confirmed")
	}
	return nil
}

// initialStatus resolves the status a fresh booking is inserted with.
// Only provisional and confirmed are accepted; validation has already
// rejected everything else.
func initialStatus(input ReserveInput) enums.BookingStatus {
	if input.InitialStatus == enums.BookingStatusConfirmed {
		return enums.BookingStatusConfirmed
	}
	return enums.BookingStatusProvisional
}

func reserveOutcome(result *ReserveResult, err error) string {
	if err == nil {
		if result != nil && result.Replayed {
			return metrics.OutcomeReplayed
		}
		return metrics.OutcomeCreated
	}
	switch {
	case errors.IsCode(err, errors.CodeInsufficientInventory):
		return metrics.OutcomeInsufficientInventory
	case errors.IsCode(err, errors.CodeConcurrencyAbort):
		return metrics.OutcomeConcurrencyAbort
	default:
		return metrics.OutcomeError
	}
}
