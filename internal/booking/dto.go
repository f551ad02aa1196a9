package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightstay/booking-backend/pkg/db/models"
	"github.com/brightstay/booking-backend/pkg/enums"
)

// ReserveInput carries one reservation attempt. ClientKey is optional; when
// it does not have the derived-key shape the server fingerprints the request
// itself. InitialStatus lets a caller that needs no hold window insert the
// booking as confirmed; empty means provisional.
type ReserveInput struct {
	UserID        uuid.UUID
	RoomTypeID    uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	RoomsBooked   int
	NightlyRate   decimal.Decimal
	ClientKey     string
	InitialStatus enums.BookingStatus
}

// ReserveResult is the committed outcome of a reservation attempt. Replayed
// is true when the idempotency key matched an earlier request and the
// original booking was returned without touching inventory.
type ReserveResult struct {
	Booking        models.Booking
	IdempotencyKey string
	Replayed       bool
}
