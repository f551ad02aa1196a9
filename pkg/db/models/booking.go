package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightstay/booking-backend/pkg/enums"
)

// Booking owns no inventory directly; its stay window maps to a set of
// InventoryRecords through the night resolver. Check-in is inclusive,
// check-out exclusive.
type Booking struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	RoomTypeID  uuid.UUID           `gorm:"column:room_type_id;type:uuid;not null;index"`
	StartDate   time.Time           `gorm:"column:start_date;type:date;not null"`
	EndDate     time.Time           `gorm:"column:end_date;type:date;not null"`
	RoomsBooked int                 `gorm:"column:rooms_booked;not null"`
	Status      enums.BookingStatus `gorm:"column:status;type:text;not null;default:'provisional';index"`
	TotalPrice  decimal.Decimal     `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Booking) TableName() string { return "bookings" }
