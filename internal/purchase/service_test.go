package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/internal/purchase/cart"
	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/outbox"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

type stubPurchaseRepo struct {
	order        *models.PurchaseOrder
	orderUpdates map[string]any
	replaced     []models.PurchaseOrderItem
	replacedSet  bool
	nextNumber   int64
	createOrder  func(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error)
}

func (s *stubPurchaseRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubPurchaseRepo) CreateOrder(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if s.createOrder != nil {
		return s.createOrder(ctx, order)
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.order = order
	return order, nil
}

func (s *stubPurchaseRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubPurchaseRepo) ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	panic("not implemented")
}

func (s *stubPurchaseRepo) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.PurchaseOrderItem) error {
	s.replaced = items
	s.replacedSet = true
	if s.order != nil && s.order.ID == orderID {
		s.order.Items = items
	}
	return nil
}

func (s *stubPurchaseRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.orderUpdates = updates
	if s.order == nil || s.order.ID != orderID {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			if v, ok := value.(enums.PurchaseOrderStatus); ok {
				s.order.Status = v
			}
		case "submitted_at":
			if v, ok := value.(time.Time); ok {
				s.order.SubmittedAt = &v
			}
		case "received_at":
			if v, ok := value.(time.Time); ok {
				s.order.ReceivedAt = &v
			}
		case "cancelled_at":
			if v, ok := value.(time.Time); ok {
				s.order.CancelledAt = &v
			}
		case "subtotal_amount":
			if v, ok := value.(decimal.Decimal); ok {
				s.order.SubtotalAmount = v
			}
		case "tax_amount":
			if v, ok := value.(decimal.Decimal); ok {
				s.order.TaxAmount = v
			}
		case "total_amount":
			if v, ok := value.(decimal.Decimal); ok {
				s.order.TotalAmount = v
			}
		case "total_base_amount":
			if v, ok := value.(decimal.Decimal); ok {
				s.order.TotalBaseAmount = v
			}
		}
	}
	return nil
}

func (s *stubPurchaseRepo) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	if s.order == nil {
		return gorm.ErrRecordNotFound
	}
	for i := range s.order.Items {
		if s.order.Items[i].ID != itemID {
			continue
		}
		if v, ok := updates["received_qty"].(int); ok {
			s.order.Items[i].ReceivedQty = v
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (s *stubPurchaseRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	if s.nextNumber == 0 {
		s.nextNumber = 1001
	}
	return s.nextNumber, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutboxPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range s.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	return s.Emit(ctx, tx, event)
}

type stubVariantResolver struct {
	variants map[uuid.UUID]*models.ProductVariant
	err      error
}

func (s *stubVariantResolver) ResolveVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.ProductVariant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.variants[productID], nil
}

type stockAdjustCall struct {
	variantID uuid.UUID
	delta     int
}

type stubStockAdjuster struct {
	calls []stockAdjustCall
	err   error
}

func (s *stubStockAdjuster) AdjustStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, delta int) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, stockAdjustCall{variantID: variantID, delta: delta})
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testEngine() *cart.Engine {
	return cart.NewEngine(cart.Config{
		TaxRate:          decimal.RequireFromString("0.18"),
		DefaultCostRatio: decimal.RequireFromString("0.70"),
	})
}

func newTestService(t *testing.T, repo *stubPurchaseRepo, outboxStub *stubOutboxPublisher, variants *stubVariantResolver, stock *stubStockAdjuster) Service {
	t.Helper()
	if variants == nil {
		variants = &stubVariantResolver{}
	}
	if stock == nil {
		stock = &stubStockAdjuster{}
	}
	svc, err := NewService(repo, stubTxRunner{}, outboxStub, variants, stock, testEngine())
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func draftOrder(supplierID *uuid.UUID) *models.PurchaseOrder {
	return &models.PurchaseOrder{
		ID:           uuid.New(),
		OrderNumber:  1001,
		SupplierID:   supplierID,
		Status:       enums.PurchaseOrderStatusDraft,
		Currency:     enums.BaseCurrency,
		ExchangeRate: decimal.NewFromInt(1),
		CreatedBy:    uuid.New(),
	}
}

func TestCreateDraftDefaultsToBaseCurrency(t *testing.T) {
	repo := &stubPurchaseRepo{}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, nil, nil)

	order, err := svc.CreateDraft(context.Background(), DraftInput{ActorUserID: uuid.New()})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if order.Currency != enums.BaseCurrency {
		t.Fatalf("expected base currency got %s", order.Currency)
	}
	if !order.ExchangeRate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected rate 1 got %s", order.ExchangeRate)
	}
	if order.Status != enums.PurchaseOrderStatusDraft {
		t.Fatalf("expected draft status got %s", order.Status)
	}
	if order.OrderNumber != 1001 {
		t.Fatalf("expected order number 1001 got %d", order.OrderNumber)
	}
}

func TestCreateDraftRejectsMissingRateForForeignCurrency(t *testing.T) {
	repo := &stubPurchaseRepo{}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, nil, nil)

	_, err := svc.CreateDraft(context.Background(), DraftInput{
		ActorUserID: uuid.New(),
		Currency:    enums.CurrencyUSD,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestApplyActionsAddsLineAndPersistsTotals(t *testing.T) {
	productID := uuid.New()
	variantID := uuid.New()
	repo := &stubPurchaseRepo{order: draftOrder(nil)}
	variants := &stubVariantResolver{
		variants: map[uuid.UUID]*models.ProductVariant{
			productID: {
				ID:           variantID,
				ProductID:    productID,
				SKU:          "SKU-100",
				Name:         "Desk Lamp",
				CostPrice:    decimal.NewFromInt(1000),
				SellingPrice: decimal.NewFromInt(1500),
			},
		},
	}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, variants, nil)

	qty := 2
	order, err := svc.ApplyActions(context.Background(), ApplyActionsInput{
		OrderID: repo.order.ID,
		Actions: []ActionInput{{Type: ActionAddItem, ProductID: productID, Quantity: &qty}},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(repo.replaced) != 1 {
		t.Fatalf("expected 1 persisted line got %d", len(repo.replaced))
	}
	line := repo.replaced[0]
	if line.VariantID != variantID || line.Quantity != 2 {
		t.Fatalf("unexpected line %+v", line)
	}
	if !line.TotalPrice.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected line total 2000 got %s", line.TotalPrice)
	}
	if !order.SubtotalAmount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected subtotal 2000 got %s", order.SubtotalAmount)
	}
	if !order.TaxAmount.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("expected tax 360 got %s", order.TaxAmount)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(2360)) {
		t.Fatalf("expected total 2360 got %s", order.TotalAmount)
	}
}

func TestApplyActionsProductWithoutVariantFails(t *testing.T) {
	repo := &stubPurchaseRepo{order: draftOrder(nil)}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, &stubVariantResolver{}, nil)

	_, err := svc.ApplyActions(context.Background(), ApplyActionsInput{
		OrderID: repo.order.ID,
		Actions: []ActionInput{{Type: ActionAddItem, ProductID: uuid.New()}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
	if repo.replacedSet {
		t.Fatal("expected no persistence on failed action")
	}
}

func TestApplyActionsRejectsNonDraft(t *testing.T) {
	repo := &stubPurchaseRepo{order: draftOrder(nil)}
	repo.order.Status = enums.PurchaseOrderStatusSubmitted
	svc := newTestService(t, repo, &stubOutboxPublisher{}, nil, nil)

	_, err := svc.ApplyActions(context.Background(), ApplyActionsInput{
		OrderID: repo.order.ID,
		Actions: []ActionInput{{Type: ActionClear}},
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	repo := &stubPurchaseRepo{order: draftOrder(nil)}
	outboxStub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, outboxStub, nil, nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		OrderID:     repo.order.ID,
		ActorUserID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
	details, ok := coded.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map got %T", coded.Details())
	}
	missing, ok := details["missing"].([]string)
	if !ok || len(missing) != 3 {
		t.Fatalf("expected 3 missing fields got %v", details["missing"])
	}
	if len(outboxStub.events) != 0 {
		t.Fatal("unexpected outbox event")
	}
	if repo.order.Status != enums.PurchaseOrderStatusDraft {
		t.Fatalf("draft should be untouched, got status %s", repo.order.Status)
	}
}

func TestSubmitEmitsEvent(t *testing.T) {
	supplierID := uuid.New()
	delivery := time.Now().Add(72 * time.Hour)
	repo := &stubPurchaseRepo{order: draftOrder(&supplierID)}
	repo.order.ExpectedDelivery = &delivery
	repo.order.Items = []models.PurchaseOrderItem{{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		VariantID: uuid.New(),
		Quantity:  3,
		CostPrice: decimal.NewFromInt(500),
	}}
	outboxStub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, outboxStub, nil, nil)

	order, err := svc.Submit(context.Background(), SubmitInput{
		OrderID:     repo.order.ID,
		ActorUserID: uuid.New(),
		ActorRole:   "manager",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if order.Status != enums.PurchaseOrderStatusSubmitted {
		t.Fatalf("expected submitted got %s", order.Status)
	}
	if order.SubmittedAt == nil {
		t.Fatal("expected submitted_at to be set")
	}
	if len(outboxStub.events) != 1 {
		t.Fatalf("expected 1 outbox event got %d", len(outboxStub.events))
	}
	if outboxStub.events[0].EventType != enums.EventPurchaseOrderSubmitted {
		t.Fatalf("unexpected event type %s", outboxStub.events[0].EventType)
	}
}

func TestReceivePartialThenComplete(t *testing.T) {
	supplierID := uuid.New()
	variantID := uuid.New()
	itemID := uuid.New()
	repo := &stubPurchaseRepo{order: draftOrder(&supplierID)}
	repo.order.Status = enums.PurchaseOrderStatusConfirmed
	repo.order.Items = []models.PurchaseOrderItem{{
		ID:        itemID,
		ProductID: uuid.New(),
		VariantID: variantID,
		Quantity:  5,
		CostPrice: decimal.NewFromInt(200),
	}}
	outboxStub := &stubOutboxPublisher{}
	stock := &stubStockAdjuster{}
	svc := newTestService(t, repo, outboxStub, nil, stock)

	order, err := svc.Receive(context.Background(), ReceiveInput{
		OrderID:     repo.order.ID,
		Lines:       []ReceiveLine{{ItemID: itemID, Quantity: 2}},
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("partial receive failed: %v", err)
	}
	if order.Status != enums.PurchaseOrderStatusPartiallyReceived {
		t.Fatalf("expected partially received got %s", order.Status)
	}
	if len(outboxStub.events) != 0 {
		t.Fatal("no event expected before completion")
	}
	if len(stock.calls) != 1 || stock.calls[0].delta != 2 || stock.calls[0].variantID != variantID {
		t.Fatalf("unexpected stock calls %+v", stock.calls)
	}

	order, err = svc.Receive(context.Background(), ReceiveInput{
		OrderID:     repo.order.ID,
		Lines:       []ReceiveLine{{ItemID: itemID, Quantity: 3}},
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("final receive failed: %v", err)
	}
	if order.Status != enums.PurchaseOrderStatusReceived {
		t.Fatalf("expected received got %s", order.Status)
	}
	if order.ReceivedAt == nil {
		t.Fatal("expected received_at to be set")
	}
	if len(outboxStub.events) != 1 || outboxStub.events[0].EventType != enums.EventPurchaseOrderReceived {
		t.Fatalf("expected single received event got %+v", outboxStub.events)
	}
}

func TestReceiveRejectsOverReceipt(t *testing.T) {
	supplierID := uuid.New()
	itemID := uuid.New()
	repo := &stubPurchaseRepo{order: draftOrder(&supplierID)}
	repo.order.Status = enums.PurchaseOrderStatusConfirmed
	repo.order.Items = []models.PurchaseOrderItem{{
		ID:          itemID,
		VariantID:   uuid.New(),
		Quantity:    5,
		ReceivedQty: 4,
	}}
	stock := &stubStockAdjuster{}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, nil, stock)

	_, err := svc.Receive(context.Background(), ReceiveInput{
		OrderID:     repo.order.ID,
		Lines:       []ReceiveLine{{ItemID: itemID, Quantity: 2}},
		ActorUserID: uuid.New(),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
	if len(stock.calls) != 0 {
		t.Fatal("no stock adjustment expected")
	}
}

func TestReceiveRejectsDraft(t *testing.T) {
	repo := &stubPurchaseRepo{order: draftOrder(nil)}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, nil, nil)

	_, err := svc.Receive(context.Background(), ReceiveInput{
		OrderID:     repo.order.ID,
		Lines:       []ReceiveLine{{ItemID: uuid.New(), Quantity: 1}},
		ActorUserID: uuid.New(),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestCancelDraftEmitsEvent(t *testing.T) {
	repo := &stubPurchaseRepo{order: draftOrder(nil)}
	outboxStub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, outboxStub, nil, nil)

	err := svc.Cancel(context.Background(), CancelInput{
		OrderID:     repo.order.ID,
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.order.Status != enums.PurchaseOrderStatusCancelled {
		t.Fatalf("expected cancelled got %s", repo.order.Status)
	}
	if len(outboxStub.events) != 1 || outboxStub.events[0].EventType != enums.EventPurchaseOrderCancelled {
		t.Fatalf("expected cancelled event got %+v", outboxStub.events)
	}
}

func TestCancelReceivedOrderRejected(t *testing.T) {
	repo := &stubPurchaseRepo{order: draftOrder(nil)}
	repo.order.Status = enums.PurchaseOrderStatusReceived
	svc := newTestService(t, repo, &stubOutboxPublisher{}, nil, nil)

	err := svc.Cancel(context.Background(), CancelInput{
		OrderID:     repo.order.ID,
		ActorUserID: uuid.New(),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}
