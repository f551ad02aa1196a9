package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/brightstay/booking-backend/pkg/types"
)

// IdempotencyKey binds a request fingerprint to the booking it produced.
// A key is bound to at most one booking, ever; the row is inserted in the
// same transaction that creates the booking and is immutable afterwards.
// Rows are swept after a retention window; the sweep never touches
// bookings or inventory.
type IdempotencyKey struct {
	Key       string        `gorm:"column:key;primaryKey;size:64"`
	BookingID uuid.UUID     `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	Metadata  types.JSONMap `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime;index"`
}

func (IdempotencyKey) TableName() string { return "idempotency_keys" }
