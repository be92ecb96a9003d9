package shipping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/outbox"
)

func newShippingDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  carrier TEXT NOT NULL,
  tracking_number TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  eta DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS shipment_events (
  id TEXT PRIMARY KEY,
  shipment_id TEXT NOT NULL,
  status TEXT NOT NULL,
  location TEXT,
  note TEXT,
  occurred_at DATETIME NOT NULL,
  created_at DATETIME
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create tables: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM shipment_events")
		db.Exec("DELETE FROM shipments")
	})
	return db
}

type shippingTxRunner struct {
	db *gorm.DB
}

func (r shippingTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range s.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	s.events = append(s.events, event)
	return nil
}

type stubOrderChecker struct {
	order *models.PurchaseOrder
}

func (s *stubOrderChecker) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
	}
	return s.order, nil
}

func newShippingService(t *testing.T, order *models.PurchaseOrder) (Service, *stubOutbox, *gorm.DB) {
	t.Helper()
	db := newShippingDB(t)
	outboxStub := &stubOutbox{}
	svc, err := NewService(NewRepository(db), shippingTxRunner{db: db}, outboxStub, &stubOrderChecker{order: order})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc, outboxStub, db
}

func submittedOrder() *models.PurchaseOrder {
	return &models.PurchaseOrder{
		ID:     uuid.New(),
		Status: enums.PurchaseOrderStatusSubmitted,
	}
}

func TestCreateShipmentRequiresSubmittedOrder(t *testing.T) {
	order := submittedOrder()
	order.Status = enums.PurchaseOrderStatusDraft
	svc, _, _ := newShippingService(t, order)

	_, err := svc.Create(context.Background(), CreateShipmentInput{
		PurchaseOrderID: order.ID,
		Carrier:         "DHL",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestCreateShipmentStartsPending(t *testing.T) {
	order := submittedOrder()
	svc, _, _ := newShippingService(t, order)

	created, err := svc.Create(context.Background(), CreateShipmentInput{
		PurchaseOrderID: order.ID,
		Carrier:         "  DHL  ",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if created.Status != enums.ShipmentStatusPending {
		t.Fatalf("expected pending got %s", created.Status)
	}
	if created.Carrier != "DHL" {
		t.Fatalf("expected trimmed carrier got %q", created.Carrier)
	}
}

func TestUpdateStatusGuardsTransitions(t *testing.T) {
	order := submittedOrder()
	svc, _, _ := newShippingService(t, order)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateShipmentInput{PurchaseOrderID: order.ID, Carrier: "DHL"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// pending cannot jump straight to delivered
	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  created.ID,
		Status:      enums.ShipmentStatusDelivered,
		ActorUserID: uuid.New(),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}

	updated, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  created.ID,
		Status:      enums.ShipmentStatusInTransit,
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("transition to in_transit failed: %v", err)
	}
	if updated.Status != enums.ShipmentStatusInTransit {
		t.Fatalf("expected in_transit got %s", updated.Status)
	}
	if len(updated.Events) != 1 {
		t.Fatalf("expected 1 tracking event got %d", len(updated.Events))
	}
}

func TestDeliveredEmitsEventOnce(t *testing.T) {
	order := submittedOrder()
	svc, outboxStub, _ := newShippingService(t, order)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateShipmentInput{PurchaseOrderID: order.ID, Carrier: "DHL"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	location := "Dar es Salaam"
	if _, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  created.ID,
		Status:      enums.ShipmentStatusInTransit,
		Location:    &location,
		ActorUserID: uuid.New(),
	}); err != nil {
		t.Fatalf("in_transit: %v", err)
	}

	delivered, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  created.ID,
		Status:      enums.ShipmentStatusDelivered,
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatal("expected delivered_at stamped")
	}
	if len(delivered.Events) != 2 {
		t.Fatalf("expected 2 tracking events got %d", len(delivered.Events))
	}
	if len(outboxStub.events) != 1 || outboxStub.events[0].EventType != enums.EventShipmentDelivered {
		t.Fatalf("expected single delivered event got %+v", outboxStub.events)
	}

	// delivered is terminal
	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  created.ID,
		Status:      enums.ShipmentStatusInTransit,
		ActorUserID: uuid.New(),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected terminal guard got %v", err)
	}
}

func TestExceptionCanResumeTransit(t *testing.T) {
	order := submittedOrder()
	svc, _, _ := newShippingService(t, order)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateShipmentInput{PurchaseOrderID: order.ID, Carrier: "EMS"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	note := "customs hold"
	occurred := time.Now().Add(-time.Hour).UTC()
	if _, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  created.ID,
		Status:      enums.ShipmentStatusException,
		Note:        &note,
		OccurredAt:  &occurred,
		ActorUserID: uuid.New(),
	}); err != nil {
		t.Fatalf("exception: %v", err)
	}

	resumed, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  created.ID,
		Status:      enums.ShipmentStatusInTransit,
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != enums.ShipmentStatusInTransit {
		t.Fatalf("expected in_transit got %s", resumed.Status)
	}
	if resumed.Events[0].Note == nil || *resumed.Events[0].Note != note {
		t.Fatal("expected exception note preserved in history")
	}
}
