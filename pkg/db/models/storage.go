package models

import (
	"time"

	"github.com/google/uuid"
)

// StorageRoom is a physical room holding shelves.
type StorageRoom struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string       `gorm:"column:code;not null;uniqueIndex"`
	Name        string       `gorm:"column:name;not null"`
	Description *string      `gorm:"column:description"`
	Capacity    int          `gorm:"column:capacity;not null;default:0"`
	IsActive    bool         `gorm:"column:is_active;not null;default:true"`
	Shelves     []StoreShelf `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// StoreShelf is a single shelf position inside a storage room. Shelf codes
// are unique within their room, not globally.
type StoreShelf struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID    uuid.UUID `gorm:"column:room_id;type:uuid;not null;uniqueIndex:idx_shelves_room_code"`
	Code      string    `gorm:"column:code;not null;uniqueIndex:idx_shelves_room_code"`
	RowLabel  *string   `gorm:"column:row_label"`
	Position  int       `gorm:"column:position;not null;default:0"`
	Capacity  int       `gorm:"column:capacity;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
