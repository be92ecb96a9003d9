package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jasirilabs/lats-backend/pkg/enums"
)

// Supplier is a vendor the organization purchases inventory from.
type Supplier struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string         `gorm:"column:name;not null;uniqueIndex"`
	ContactPerson  *string        `gorm:"column:contact_person"`
	Email          *string        `gorm:"column:email"`
	Phone          *string        `gorm:"column:phone"`
	WhatsAppNumber *string        `gorm:"column:whatsapp_number"`
	Country        *string        `gorm:"column:country"`
	Currency       enums.Currency `gorm:"column:currency;type:text;not null;default:'TZS'"`
	PaymentTerms   *string        `gorm:"column:payment_terms"`
	LeadTimeDays   int            `gorm:"column:lead_time_days;not null;default:0"`
	Notes          *string        `gorm:"column:notes"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
