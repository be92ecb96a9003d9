package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// orderChecker verifies the purchase order a shipment attaches to.
type orderChecker interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error)
}

// CreateShipmentInput attaches a new shipment to a purchase order.
type CreateShipmentInput struct {
	PurchaseOrderID uuid.UUID
	Carrier         string
	TrackingNumber  *string
	ETA             *time.Time
}

// UpdateStatusInput moves a shipment along its lifecycle and appends the
// matching tracking event.
type UpdateStatusInput struct {
	ShipmentID  uuid.UUID
	Status      enums.ShipmentStatus
	Location    *string
	Note        *string
	OccurredAt  *time.Time
	ActorUserID uuid.UUID
	ActorRole   string
}

// DeliveredEvent is the shipment_delivered outbox payload.
type DeliveredEvent struct {
	ShipmentID      uuid.UUID `json:"shipment_id"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	Carrier         string    `json:"carrier"`
	DeliveredAt     time.Time `json:"delivered_at"`
}

// Service exposes shipment tracking operations.
type Service interface {
	Create(ctx context.Context, input CreateShipmentInput) (*models.Shipment, error)
	Get(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Shipment, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxPublisher
	orders orderChecker
}

// NewService builds a shipping service with the required dependencies.
func NewService(repo *Repository, tx txRunner, outboxSvc outboxPublisher, orders orderChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order checker required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, orders: orders}, nil
}

func (s *service) Create(ctx context.Context, input CreateShipmentInput) (*models.Shipment, error) {
	if input.PurchaseOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	if strings.TrimSpace(input.Carrier) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier required")
	}

	order, err := s.orders.GetOrder(ctx, input.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.PurchaseOrderStatusDraft || order.Status == enums.PurchaseOrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot attach shipment to %s order", order.Status))
	}

	shipment := &models.Shipment{
		PurchaseOrderID: input.PurchaseOrderID,
		Carrier:         strings.TrimSpace(input.Carrier),
		TrackingNumber:  input.TrackingNumber,
		Status:          enums.ShipmentStatusPending,
		ETA:             input.ETA,
	}
	created, err := s.repo.Create(ctx, shipment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert shipment")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	return s.find(ctx, shipmentID)
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	return s.repo.ListByOrder(ctx, orderID)
}

// UpdateStatus applies a guarded transition, appends the tracking event, and
// on delivery stamps delivered_at and emits the delivery event exactly once.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Shipment, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipment status")
	}
	shipment, err := s.find(ctx, input.ShipmentID)
	if err != nil {
		return nil, err
	}
	if !shipment.Status.CanTransitionTo(input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move shipment from %s to %s", shipment.Status, input.Status)).
			WithDetails(map[string]any{"from": shipment.Status, "to": input.Status})
	}

	occurredAt := time.Now().UTC()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		updates := map[string]any{"status": input.Status}
		if input.Status == enums.ShipmentStatusDelivered {
			updates["delivered_at"] = occurredAt
		}
		if err := txRepo.Update(ctx, shipment.ID, updates); err != nil {
			return err
		}
		event := &models.ShipmentEvent{
			ShipmentID: shipment.ID,
			Status:     input.Status,
			Location:   input.Location,
			Note:       input.Note,
			OccurredAt: occurredAt,
		}
		if err := txRepo.AppendEvent(ctx, event); err != nil {
			return err
		}
		if input.Status != enums.ShipmentStatusDelivered {
			return nil
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentDelivered,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: DeliveredEvent{
				ShipmentID:      shipment.ID,
				PurchaseOrderID: shipment.PurchaseOrderID,
				Carrier:         shipment.Carrier,
				DeliveredAt:     occurredAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.find(ctx, shipment.ID)
}

func (s *service) find(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shipment")
	}
	return shipment, nil
}
