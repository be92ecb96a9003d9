package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jasirilabs/lats-backend/pkg/enums"
	"github.com/jasirilabs/lats-backend/pkg/types"
)

// WhatsAppInstance is a registered gateway session used to send outbound
// messages. An instance must be connected before the worker will pick up
// messages queued against it.
type WhatsAppInstance struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string               `gorm:"column:name;not null"`
	PhoneNumber string               `gorm:"column:phone_number;uniqueIndex;not null"`
	Status      enums.InstanceStatus `gorm:"column:status;type:text;not null;default:'disconnected'"`
	APIToken    string               `gorm:"column:api_token;not null"`
	BaseURL     string               `gorm:"column:base_url;not null"`
	Settings    types.JSONMap        `gorm:"column:settings;type:jsonb"`
	LastSeenAt  *time.Time           `gorm:"column:last_seen_at"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the migrated name; GORM's default naming splits the
// acronym into whats_app_instances.
func (WhatsAppInstance) TableName() string {
	return "whatsapp_instances"
}

// WhatsAppMessage is one queued outbound message. The worker claims messages
// in queued state, marks them sending, and records the terminal outcome with
// attempt bookkeeping.
type WhatsAppMessage struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InstanceID   uuid.UUID           `gorm:"column:instance_id;type:uuid;not null;index"`
	Recipient    string              `gorm:"column:recipient;not null"`
	Body         string              `gorm:"column:body;not null"`
	Status       enums.MessageStatus `gorm:"column:status;type:text;not null;default:'queued';index"`
	AttemptCount int                 `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string             `gorm:"column:last_error"`
	SentAt       *time.Time          `gorm:"column:sent_at"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (WhatsAppMessage) TableName() string {
	return "whatsapp_messages"
}
