package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db"
	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/outbox"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
	"github.com/jasirilabs/lats-backend/pkg/types"
)

// recipientPattern accepts international phone numbers in loose E.164 form.
var recipientPattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateInstanceInput registers a new gateway instance.
type CreateInstanceInput struct {
	Name        string
	PhoneNumber string
	APIToken    string
	BaseURL     string
	Settings    types.JSONMap
}

// UpdateInstanceInput patches instance fields. Nil fields stay untouched.
type UpdateInstanceInput struct {
	Name     *string
	APIToken *string
	BaseURL  *string
	Settings types.JSONMap
}

// EnqueueMessageInput queues one outbound message.
type EnqueueMessageInput struct {
	InstanceID uuid.UUID
	Recipient  string
	Body       string
}

// MessageFilters narrows message listings.
type MessageFilters struct {
	InstanceID uuid.UUID
	Status     enums.MessageStatus
}

// InstanceList is one page of instances.
type InstanceList struct {
	Instances  []models.WhatsAppInstance
	NextCursor string
}

// MessageList is one page of messages.
type MessageList struct {
	Messages   []models.WhatsAppMessage
	NextCursor string
}

// MessageFailedEvent is the whatsapp_message_failed payload.
type MessageFailedEvent struct {
	MessageID  uuid.UUID `json:"message_id"`
	InstanceID uuid.UUID `json:"instance_id"`
	Recipient  string    `json:"recipient"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error"`
	FailedAt   time.Time `json:"failed_at"`
}

// Service manages gateway instances and the outgoing message queue.
type Service interface {
	CreateInstance(ctx context.Context, input CreateInstanceInput) (*models.WhatsAppInstance, error)
	UpdateInstance(ctx context.Context, id uuid.UUID, input UpdateInstanceInput) (*models.WhatsAppInstance, error)
	GetInstance(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error)
	ListInstances(ctx context.Context, params pagination.Params) (*InstanceList, error)
	DeleteInstance(ctx context.Context, id uuid.UUID) error
	RefreshInstanceStatus(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error)

	EnqueueMessage(ctx context.Context, input EnqueueMessageInput) (*models.WhatsAppMessage, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*models.WhatsAppMessage, error)
	ListMessages(ctx context.Context, params pagination.Params, filters MessageFilters) (*MessageList, error)

	ClaimBatch(ctx context.Context, limit int) ([]models.WhatsAppMessage, error)
	Instance(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error)
	MarkSent(ctx context.Context, id uuid.UUID, attempts int, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	outboxSvc outboxPublisher
	gateway   Gateway
	now       func() time.Time
}

// NewService wires the hub service.
func NewService(repo *Repository, tx txRunner, outboxSvc outboxPublisher, gateway Gateway) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("whatsapp repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outboxSvc: outboxSvc,
		gateway:   gateway,
		now:       time.Now,
	}, nil
}

func (s *service) CreateInstance(ctx context.Context, input CreateInstanceInput) (*models.WhatsAppInstance, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "instance name is required")
	}
	phone := strings.TrimSpace(input.PhoneNumber)
	if !recipientPattern.MatchString(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid phone number is required")
	}
	if strings.TrimSpace(input.APIToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "API token is required")
	}
	baseURL := strings.TrimSpace(input.BaseURL)
	if baseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base URL is required")
	}

	instance := &models.WhatsAppInstance{
		Name:        name,
		PhoneNumber: phone,
		Status:      enums.InstanceStatusDisconnected,
		APIToken:    strings.TrimSpace(input.APIToken),
		BaseURL:     baseURL,
		Settings:    input.Settings,
	}
	created, err := s.repo.CreateInstance(ctx, instance)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_whatsapp_instances_phone") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an instance with this phone number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create whatsapp instance")
	}
	return created, nil
}

func (s *service) UpdateInstance(ctx context.Context, id uuid.UUID, input UpdateInstanceInput) (*models.WhatsAppInstance, error) {
	if _, err := s.findInstance(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "instance name cannot be empty")
		}
		updates["name"] = name
	}
	if input.APIToken != nil {
		token := strings.TrimSpace(*input.APIToken)
		if token == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "API token cannot be empty")
		}
		updates["api_token"] = token
	}
	if input.BaseURL != nil {
		baseURL := strings.TrimSpace(*input.BaseURL)
		if baseURL == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base URL cannot be empty")
		}
		updates["base_url"] = baseURL
	}
	if input.Settings != nil {
		updates["settings"] = input.Settings
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateInstance(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update whatsapp instance")
		}
	}
	return s.findInstance(ctx, id)
}

func (s *service) GetInstance(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error) {
	return s.findInstance(ctx, id)
}

func (s *service) ListInstances(ctx context.Context, params pagination.Params) (*InstanceList, error) {
	list, err := s.repo.ListInstances(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list whatsapp instances")
	}
	return list, nil
}

func (s *service) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findInstance(ctx, id); err != nil {
		return err
	}
	pending, err := s.repo.CountPendingMessages(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending messages")
	}
	if pending > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "instance still has undelivered messages").
			WithDetails(map[string]any{"pending": pending})
	}
	if err := s.repo.DeleteInstance(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete whatsapp instance")
	}
	return nil
}

// RefreshInstanceStatus probes the bridge and records the observed state.
func (s *service) RefreshInstanceStatus(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error) {
	instance, err := s.findInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	status, err := s.gateway.InstanceStatus(ctx, instance)
	updates := map[string]any{}
	if err != nil {
		// An unreachable bridge means the session is down.
		updates["status"] = enums.InstanceStatusDisconnected
	} else {
		updates["status"] = status
		if status == enums.InstanceStatusConnected {
			updates["last_seen_at"] = s.now().UTC()
		}
	}
	if err := s.repo.UpdateInstance(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update instance status")
	}
	return s.findInstance(ctx, id)
}

func (s *service) EnqueueMessage(ctx context.Context, input EnqueueMessageInput) (*models.WhatsAppMessage, error) {
	instance, err := s.findInstance(ctx, input.InstanceID)
	if err != nil {
		return nil, err
	}
	if instance.Status != enums.InstanceStatusConnected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "instance is not connected")
	}
	recipient := strings.TrimSpace(input.Recipient)
	if !recipientPattern.MatchString(recipient) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid recipient phone number is required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	message := &models.WhatsAppMessage{
		InstanceID: instance.ID,
		Recipient:  recipient,
		Body:       body,
		Status:     enums.MessageStatusQueued,
	}
	created, err := s.repo.CreateMessage(ctx, message)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue whatsapp message")
	}
	return created, nil
}

func (s *service) GetMessage(ctx context.Context, id uuid.UUID) (*models.WhatsAppMessage, error) {
	message, err := s.repo.FindMessage(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load whatsapp message")
	}
	return message, nil
}

func (s *service) ListMessages(ctx context.Context, params pagination.Params, filters MessageFilters) (*MessageList, error) {
	list, err := s.repo.ListMessages(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list whatsapp messages")
	}
	return list, nil
}

func (s *service) ClaimBatch(ctx context.Context, limit int) ([]models.WhatsAppMessage, error) {
	claimed, err := s.repo.ClaimQueued(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim queued messages")
	}
	return claimed, nil
}

func (s *service) Instance(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error) {
	return s.findInstance(ctx, id)
}

func (s *service) MarkSent(ctx context.Context, id uuid.UUID, attempts int, sentAt time.Time) error {
	err := s.repo.UpdateMessage(ctx, id, map[string]any{
		"status":        enums.MessageStatusSent,
		"attempt_count": attempts,
		"sent_at":       sentAt.UTC(),
		"last_error":    nil,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark message sent")
	}
	return nil
}

// MarkFailed records the terminal failure and emits the failure event in the
// same transaction.
func (s *service) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	message, err := s.GetMessage(ctx, id)
	if err != nil {
		return err
	}

	failedAt := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateMessage(ctx, id, map[string]any{
			"status":        enums.MessageStatusFailed,
			"attempt_count": attempts,
			"last_error":    lastErr,
		}); err != nil {
			return err
		}
		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMessageFailed,
			AggregateType: enums.AggregateMessage,
			AggregateID:   id,
			Data: MessageFailedEvent{
				MessageID:  id,
				InstanceID: message.InstanceID,
				Recipient:  message.Recipient,
				Attempts:   attempts,
				LastError:  lastErr,
				FailedAt:   failedAt,
			},
			OccurredAt: failedAt,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark message failed")
	}
	return nil
}

func (s *service) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	released, err := s.repo.ReleaseStale(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stale messages")
	}
	return released, nil
}

func (s *service) findInstance(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error) {
	instance, err := s.repo.FindInstance(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "instance not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load whatsapp instance")
	}
	return instance, nil
}
