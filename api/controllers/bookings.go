package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightstay/booking-backend/api/responses"
	"github.com/brightstay/booking-backend/api/validators"
	bookingsvc "github.com/brightstay/booking-backend/internal/booking"
	"github.com/brightstay/booking-backend/pkg/db/models"
	"github.com/brightstay/booking-backend/pkg/enums"
	pkgerrors "github.com/brightstay/booking-backend/pkg/errors"
	"github.com/brightstay/booking-backend/pkg/logger"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	bodyDateLayout       = "2006-01-02"
)

type bookingService interface {
	Reserve(ctx context.Context, input bookingsvc.ReserveInput) (*bookingsvc.ReserveResult, error)
	Confirm(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	Complete(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	Get(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
}

// ReserveBooking handles reservation requests. A replayed idempotency key
// returns the original booking with a 200 instead of a 201.
func ReserveBooking(svc bookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		var payload reserveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(r.Header.Get(idempotencyKeyHeader))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Reserve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, newReserveResponse(result))
	}
}

// GetBooking returns a single booking by ID.
func GetBooking(svc bookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := bookingIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Get(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(*record))
	}
}

// ConfirmBooking moves a provisional booking to confirmed.
func ConfirmBooking(svc bookingService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc bookingService, ctx context.Context, id uuid.UUID) (*models.Booking, error) {
		return svc.Confirm(ctx, id)
	})
}

// CancelBooking cancels a booking and returns its rooms to inventory.
func CancelBooking(svc bookingService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc bookingService, ctx context.Context, id uuid.UUID) (*models.Booking, error) {
		return svc.Cancel(ctx, id)
	})
}

// CompleteBooking marks a confirmed booking as completed.
func CompleteBooking(svc bookingService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc bookingService, ctx context.Context, id uuid.UUID) (*models.Booking, error) {
		return svc.Complete(ctx, id)
	})
}

func transitionHandler(svc bookingService, logg *logger.Logger, apply func(bookingService, context.Context, uuid.UUID) (*models.Booking, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}
		bookingID, err := bookingIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := apply(svc, r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(*record))
	}
}

func bookingIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "bookingID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id must be a uuid")
	}
	return id, nil
}

type reserveRequest struct {
	UserID        uuid.UUID       `json:"user_id" validate:"required,uuid4"`
	RoomTypeID    uuid.UUID       `json:"room_type_id" validate:"required,uuid4"`
	StartDate     string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	RoomsBooked   int             `json:"rooms_booked" validate:"required,min=1"`
	NightlyRate   decimal.Decimal `json:"nightly_rate"`
	InitialStatus string          `json:"initial_status" validate:"omitempty,oneof=provisional confirmed"`
}

func (p reserveRequest) toInput(clientKey string) (bookingsvc.ReserveInput, error) {
	start, err := time.ParseInLocation(bodyDateLayout, p.StartDate, time.UTC)
	if err != nil {
		return bookingsvc.ReserveInput{}, pkgerrors.New(pkgerrors.CodeValidation, "start_date must be a YYYY-MM-DD date")
	}
	end, err := time.ParseInLocation(bodyDateLayout, p.EndDate, time.UTC)
	if err != nil {
		return bookingsvc.ReserveInput{}, pkgerrors.New(pkgerrors.CodeValidation, "end_date must be a YYYY-MM-DD date")
	}
	return bookingsvc.ReserveInput{
		UserID:        p.UserID,
		RoomTypeID:    p.RoomTypeID,
		StartDate:     start,
		EndDate:       end,
		RoomsBooked:   p.RoomsBooked,
		NightlyRate:   p.NightlyRate,
		ClientKey:     clientKey,
		InitialStatus: enums.BookingStatus(p.InitialStatus),
	}, nil
}

type bookingResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	RoomTypeID  uuid.UUID `json:"room_type_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	RoomsBooked int       `json:"rooms_booked"`
	Status      string    `json:"status"`
	TotalPrice  string    `json:"total_price"`
	CreatedAt   time.Time `json:"created_at"`
}

func newBookingResponse(record models.Booking) bookingResponse {
	return bookingResponse{
		ID:          record.ID,
		UserID:      record.UserID,
		RoomTypeID:  record.RoomTypeID,
		StartDate:   record.StartDate.Format(bodyDateLayout),
		EndDate:     record.EndDate.Format(bodyDateLayout),
		RoomsBooked: record.RoomsBooked,
		Status:      record.Status.String(),
		TotalPrice:  record.TotalPrice.StringFixed(2),
		CreatedAt:   record.CreatedAt,
	}
}

type reserveResponse struct {
	Booking        bookingResponse `json:"booking"`
	IdempotencyKey string          `json:"idempotency_key"`
	Replayed       bool            `json:"replayed"`
}

func newReserveResponse(result *bookingsvc.ReserveResult) reserveResponse {
	return reserveResponse{
		Booking:        newBookingResponse(result.Booking),
		IdempotencyKey: result.IdempotencyKey,
		Replayed:       result.Replayed,
	}
}
