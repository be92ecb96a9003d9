package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/outbox"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

func newSalesDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  sale_number INTEGER NOT NULL UNIQUE,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  sold_by TEXT,
  sold_at DATETIME NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS sale_items (
  id TEXT PRIMARY KEY,
  sale_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  unit_cost NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  created_at DATETIME
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create tables: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM sale_items")
		db.Exec("DELETE FROM sales")
	})
	return db
}

type salesTxRunner struct {
	db *gorm.DB
}

func (r salesTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type salesStubOutbox struct {
	events []outbox.DomainEvent
}

func (s *salesStubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubCatalog struct {
	variants    map[uuid.UUID]*models.ProductVariant
	adjustments map[uuid.UUID]int
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		variants:    map[uuid.UUID]*models.ProductVariant{},
		adjustments: map[uuid.UUID]int{},
	}
}

func (c *stubCatalog) addVariant(quantity int, cost, price string) *models.ProductVariant {
	variant := &models.ProductVariant{
		ID:           uuid.New(),
		ProductID:    uuid.New(),
		SKU:          "SKU-" + uuid.NewString()[:8],
		Name:         "Test Variant",
		CostPrice:    decimal.RequireFromString(cost),
		SellingPrice: decimal.RequireFromString(price),
		Quantity:     quantity,
	}
	c.variants[variant.ID] = variant
	return variant
}

func (c *stubCatalog) ResolveVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.ProductVariant, error) {
	if variantID == nil {
		return nil, nil
	}
	return c.variants[*variantID], nil
}

func (c *stubCatalog) AdjustStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, delta int) error {
	variant, ok := c.variants[variantID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if variant.Quantity+delta < 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "stock cannot go below zero")
	}
	variant.Quantity += delta
	c.adjustments[variantID] += delta
	return nil
}

func newSalesService(t *testing.T) (Service, *gorm.DB, *salesStubOutbox, *stubCatalog) {
	t.Helper()
	db := newSalesDB(t)
	outboxStub := &salesStubOutbox{}
	cat := newStubCatalog()
	svc, err := NewService(NewRepository(db), salesTxRunner{db: db}, outboxStub, cat, decimal.RequireFromString("0.18"))
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc, db, outboxStub, cat
}

func TestRecordSaleComputesTotalsAndDecrementsStock(t *testing.T) {
	svc, _, outboxStub, cat := newSalesService(t)
	ctx := context.Background()

	variant := cat.addVariant(10, "700", "1000")

	sale, err := svc.RecordSale(ctx, RecordSaleInput{
		Lines: []SaleLineInput{
			{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	if sale.SaleNumber != 10001 {
		t.Fatalf("expected first sale number 10001, got %d", sale.SaleNumber)
	}
	if !sale.Subtotal.Equal(decimal.RequireFromString("3000")) {
		t.Fatalf("unexpected subtotal %s", sale.Subtotal)
	}
	if !sale.Tax.Equal(decimal.RequireFromString("540")) {
		t.Fatalf("unexpected tax %s", sale.Tax)
	}
	if !sale.Total.Equal(decimal.RequireFromString("3540")) {
		t.Fatalf("unexpected total %s", sale.Total)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(sale.Items))
	}
	if !sale.Items[0].UnitCost.Equal(decimal.RequireFromString("700")) {
		t.Fatalf("unit cost not snapshotted: %s", sale.Items[0].UnitCost)
	}

	if cat.adjustments[variant.ID] != -3 {
		t.Fatalf("expected stock decremented by 3, got %d", cat.adjustments[variant.ID])
	}

	if len(outboxStub.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(outboxStub.events))
	}
	event := outboxStub.events[0]
	if event.EventType != enums.EventSaleRecorded {
		t.Fatalf("unexpected event type %q", event.EventType)
	}
	payload, ok := event.Data.(SaleRecordedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if len(payload.Items) != 1 || payload.Items[0].Quantity != 3 {
		t.Fatal("event payload missing line detail")
	}
}

func TestRecordSaleHonorsPriceOverride(t *testing.T) {
	svc, _, _, cat := newSalesService(t)
	ctx := context.Background()

	variant := cat.addVariant(5, "700", "1000")
	override := decimal.RequireFromString("900")

	sale, err := svc.RecordSale(ctx, RecordSaleInput{
		Lines: []SaleLineInput{
			{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 2, UnitPrice: &override},
		},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if !sale.Subtotal.Equal(decimal.RequireFromString("1800")) {
		t.Fatalf("override not applied, subtotal %s", sale.Subtotal)
	}
}

func TestRecordSaleRejectsEmptyAndInvalidLines(t *testing.T) {
	svc, _, _, cat := newSalesService(t)
	ctx := context.Background()

	if _, err := svc.RecordSale(ctx, RecordSaleInput{}); err == nil {
		t.Fatal("expected validation error for empty sale")
	}

	variant := cat.addVariant(5, "700", "1000")
	_, err := svc.RecordSale(ctx, RecordSaleInput{
		Lines: []SaleLineInput{
			{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 0},
		},
	})
	if err == nil {
		t.Fatal("expected validation error for zero quantity")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRecordSaleInsufficientStockRollsBack(t *testing.T) {
	svc, db, outboxStub, cat := newSalesService(t)
	ctx := context.Background()

	variant := cat.addVariant(2, "700", "1000")
	_, err := svc.RecordSale(ctx, RecordSaleInput{
		Lines: []SaleLineInput{
			{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 5},
		},
	})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Sale{}).Count(&count).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if count != 0 {
		t.Fatalf("sale row should be rolled back, found %d", count)
	}
	if len(outboxStub.events) != 0 {
		t.Fatal("no outbox event expected on rollback")
	}
}

func TestRecordSaleUnknownVariant(t *testing.T) {
	svc, _, _, _ := newSalesService(t)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, RecordSaleInput{
		Lines: []SaleLineInput{
			{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1},
		},
	})
	if err == nil {
		t.Fatal("expected not found")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSaleNumbersIncrement(t *testing.T) {
	svc, _, _, cat := newSalesService(t)
	ctx := context.Background()

	variant := cat.addVariant(10, "700", "1000")
	line := []SaleLineInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1}}

	first, err := svc.RecordSale(ctx, RecordSaleInput{Lines: line})
	if err != nil {
		t.Fatalf("first sale: %v", err)
	}
	second, err := svc.RecordSale(ctx, RecordSaleInput{Lines: line})
	if err != nil {
		t.Fatalf("second sale: %v", err)
	}
	if second.SaleNumber != first.SaleNumber+1 {
		t.Fatalf("sale numbers not sequential: %d then %d", first.SaleNumber, second.SaleNumber)
	}
}

func TestListSalesFiltersByWindow(t *testing.T) {
	svc, _, _, cat := newSalesService(t)
	ctx := context.Background()

	variant := cat.addVariant(10, "700", "1000")
	old := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{old, recent} {
		soldAt := at
		_, err := svc.RecordSale(ctx, RecordSaleInput{
			Lines:  []SaleLineInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1}},
			SoldAt: &soldAt,
		})
		if err != nil {
			t.Fatalf("record sale: %v", err)
		}
	}

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	list, err := svc.ListSales(ctx, pagination.Params{}, SaleFilters{From: &from})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(list.Sales) != 1 {
		t.Fatalf("expected 1 sale in window, got %d", len(list.Sales))
	}
	if !list.Sales[0].SoldAt.Equal(recent) {
		t.Fatalf("wrong sale in window: %s", list.Sales[0].SoldAt)
	}
}
