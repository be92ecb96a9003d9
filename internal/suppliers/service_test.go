package suppliers

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

func newSupplierDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS suppliers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  contact_person TEXT,
  email TEXT,
  phone TEXT,
  whatsapp_number TEXT,
  country TEXT,
  currency TEXT NOT NULL DEFAULT 'TZS',
  payment_terms TEXT,
  lead_time_days INTEGER NOT NULL DEFAULT 0,
  notes TEXT,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL,
  supplier_id TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  currency TEXT NOT NULL DEFAULT 'TZS',
  exchange_rate NUMERIC NOT NULL DEFAULT 1,
  expected_delivery DATETIME,
  payment_terms TEXT,
  notes TEXT,
  subtotal_amount NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  total_base_amount NUMERIC NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL,
  submitted_at DATETIME,
  received_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create tables: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM purchase_orders")
		db.Exec("DELETE FROM suppliers")
	})
	return db
}

func newSupplierService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	db := newSupplierDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc, repo, db
}

func TestCreateSupplierDefaults(t *testing.T) {
	svc, _, _ := newSupplierService(t)

	created, err := svc.Create(context.Background(), CreateSupplierInput{
		Name: fmt.Sprintf("Dar Traders %s", uuid.NewString()[:8]),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if created.Currency != enums.BaseCurrency {
		t.Fatalf("expected base currency got %s", created.Currency)
	}
	if !created.IsActive {
		t.Fatal("expected active supplier")
	}
}

func TestCreateSupplierValidation(t *testing.T) {
	svc, _, _ := newSupplierService(t)

	_, err := svc.Create(context.Background(), CreateSupplierInput{Name: "  "})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateSupplierInput{
		Name:         "Negative Lead",
		LeadTimeDays: -1,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestUpdateSupplier(t *testing.T) {
	svc, _, _ := newSupplierService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateSupplierInput{
		Name: fmt.Sprintf("Coastal Imports %s", uuid.NewString()[:8]),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	days := 14
	currency := enums.CurrencyUSD
	updated, err := svc.Update(ctx, created.ID, UpdateSupplierInput{
		LeadTimeDays: &days,
		Currency:     &currency,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.LeadTimeDays != 14 || updated.Currency != enums.CurrencyUSD {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestDeleteSupplierWithoutOrdersRemovesRow(t *testing.T) {
	svc, repo, _ := newSupplierService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateSupplierInput{
		Name: fmt.Sprintf("Removable %s", uuid.NewString()[:8]),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected hard delete")
	}
	if _, err := repo.FindByID(ctx, created.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record gone got %v", err)
	}
}

func TestDeleteReferencedSupplierDeactivates(t *testing.T) {
	svc, repo, db := newSupplierService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateSupplierInput{
		Name: fmt.Sprintf("Referenced %s", uuid.NewString()[:8]),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	order := models.PurchaseOrder{
		ID:          uuid.New(),
		OrderNumber: 1001,
		SupplierID:  &created.ID,
		CreatedBy:   uuid.New(),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	deleted, err := svc.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Fatal("expected deactivation, not delete")
	}
	loaded, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.IsActive {
		t.Fatal("expected supplier deactivated")
	}
}

func TestListSuppliersSearch(t *testing.T) {
	svc, _, _ := newSupplierService(t)
	ctx := context.Background()

	tag := uuid.NewString()[:8]
	_, err := svc.Create(ctx, CreateSupplierInput{Name: "Mwanza Metals " + tag})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateSupplierInput{Name: "Arusha Textiles " + tag}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.List(ctx, pagination.Params{}, "metals", true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Suppliers) != 1 {
		t.Fatalf("expected 1 match got %d", len(list.Suppliers))
	}
}
