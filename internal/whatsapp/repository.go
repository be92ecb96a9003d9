package whatsapp

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

// Repository persists gateway instances and the outbound message queue.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) CreateInstance(ctx context.Context, instance *models.WhatsAppInstance) (*models.WhatsAppInstance, error) {
	if instance.ID == uuid.Nil {
		instance.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(instance).Error; err != nil {
		return nil, err
	}
	return instance, nil
}

func (r *Repository) FindInstance(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error) {
	var instance models.WhatsAppInstance
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *Repository) ListInstances(ctx context.Context, params pagination.Params) (*InstanceList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.WhatsAppInstance{})
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WhatsAppInstance
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := pagination.Trim(rows, limit, func(row models.WhatsAppInstance) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return &InstanceList{Instances: page.Items, NextCursor: page.NextCursor}, nil
}

func (r *Repository) UpdateInstance(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.WhatsAppInstance{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repository) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.WhatsAppInstance{}).Error
}

// CountPendingMessages reports how many messages for the instance are still
// waiting on the queue or mid-send.
func (r *Repository) CountPendingMessages(ctx context.Context, instanceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WhatsAppMessage{}).
		Where("instance_id = ? AND status IN ?", instanceID, []enums.MessageStatus{enums.MessageStatusQueued, enums.MessageStatusSending}).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateMessage(ctx context.Context, message *models.WhatsAppMessage) (*models.WhatsAppMessage, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *Repository) FindMessage(ctx context.Context, id uuid.UUID) (*models.WhatsAppMessage, error) {
	var message models.WhatsAppMessage
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *Repository) ListMessages(ctx context.Context, params pagination.Params, filters MessageFilters) (*MessageList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.WhatsAppMessage{})
	if filters.InstanceID != uuid.Nil {
		query = query.Where("instance_id = ?", filters.InstanceID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WhatsAppMessage
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := pagination.Trim(rows, limit, func(row models.WhatsAppMessage) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return &MessageList{Messages: page.Items, NextCursor: page.NextCursor}, nil
}

func (r *Repository) UpdateMessage(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.WhatsAppMessage{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ClaimQueued atomically moves up to limit queued messages to sending and
// returns them oldest first. A message already claimed by another dispatcher
// is skipped by the status guard on the update.
func (r *Repository) ClaimQueued(ctx context.Context, limit int) ([]models.WhatsAppMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	var claimed []models.WhatsAppMessage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.WhatsAppMessage
		err := tx.
			Where("status = ?", enums.MessageStatusQueued).
			Order("created_at ASC, id ASC").
			Limit(limit).
			Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		result := tx.
			Model(&models.WhatsAppMessage{}).
			Where("id IN ? AND status = ?", ids, enums.MessageStatusQueued).
			Update("status", enums.MessageStatusSending)
		if result.Error != nil {
			return result.Error
		}

		for i := range rows {
			rows[i].Status = enums.MessageStatusSending
		}
		claimed = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ReleaseStale requeues messages stuck in sending longer than the cutoff,
// usually after a dispatcher died mid-batch.
func (r *Repository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WhatsAppMessage{}).
		Where("status = ? AND updated_at < ?", enums.MessageStatusSending, cutoff).
		Update("status", enums.MessageStatusQueued)
	return result.RowsAffected, result.Error
}
