package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jasirilabs/lats-backend/pkg/enums"
)

// Shipment tracks an inbound delivery for a submitted purchase order.
type Shipment struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID            `gorm:"column:purchase_order_id;type:uuid;not null"`
	Carrier         string               `gorm:"column:carrier;not null"`
	TrackingNumber  *string              `gorm:"column:tracking_number"`
	Status          enums.ShipmentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ETA             *time.Time           `gorm:"column:eta"`
	DeliveredAt     *time.Time           `gorm:"column:delivered_at"`
	Events          []ShipmentEvent      `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ShipmentEvent is one append-only entry in a shipment's tracking history.
type ShipmentEvent struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentID uuid.UUID            `gorm:"column:shipment_id;type:uuid;not null"`
	Status     enums.ShipmentStatus `gorm:"column:status;type:text;not null"`
	Location   *string              `gorm:"column:location"`
	Note       *string              `gorm:"column:note"`
	OccurredAt time.Time            `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
