package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord is the available-room count for one room type on one
// calendar date. Rows are mutated only under a held row lock inside a
// transaction; AvailableRooms never drops below zero in any committed state.
type InventoryRecord struct {
	RoomTypeID     uuid.UUID `gorm:"column:room_type_id;type:uuid;primaryKey"`
	Date           time.Time `gorm:"column:date;type:date;primaryKey"`
	AvailableRooms int       `gorm:"column:available_rooms;not null;check:chk_available_rooms,available_rooms >= 0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryRecord) TableName() string { return "inventory_records" }
