package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
)

func newStorageDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS storage_rooms (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT,
  capacity INTEGER NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS store_shelves (
  id TEXT PRIMARY KEY,
  room_id TEXT NOT NULL,
  code TEXT NOT NULL,
  row_label TEXT,
  position INTEGER NOT NULL DEFAULT 0,
  capacity INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (room_id, code)
);
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  cost_price NUMERIC NOT NULL DEFAULT 0,
  selling_price NUMERIC NOT NULL DEFAULT 0,
  quantity INTEGER NOT NULL DEFAULT 0,
  min_stock INTEGER NOT NULL DEFAULT 0,
  shelf_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create tables: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM product_variants")
		db.Exec("DELETE FROM store_shelves")
		db.Exec("DELETE FROM storage_rooms")
	})
	return db
}

type storageTxRunner struct {
	db *gorm.DB
}

func (r storageTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func newStorageService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newStorageDB(t)
	svc, err := NewService(NewRepository(db), storageTxRunner{db: db})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc, db
}

func seedVariant(t *testing.T, db *gorm.DB, quantity int, shelfID *uuid.UUID) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		SKU:       fmt.Sprintf("VAR-%s", uuid.NewString()[:8]),
		Name:      "Seed Variant",
		Quantity:  quantity,
		ShelfID:   shelfID,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

func TestCreateRoomAndShelves(t *testing.T) {
	svc, _ := newStorageService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, RoomInput{
		Code:     fmt.Sprintf("rm-%s", uuid.NewString()[:8]),
		Name:     "Main Warehouse",
		Capacity: 1000,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.Code[:3] != "RM-" {
		t.Fatalf("expected upper-cased code got %s", room.Code)
	}

	shelf, err := svc.AddShelf(ctx, room.ID, ShelfInput{Code: "a1", Capacity: 50})
	if err != nil {
		t.Fatalf("add shelf: %v", err)
	}
	if shelf.Code != "A1" {
		t.Fatalf("expected upper-cased shelf code got %s", shelf.Code)
	}

	_, err = svc.AddShelf(ctx, room.ID, ShelfInput{Code: "A1"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate shelf code got %v", err)
	}

	loaded, err := svc.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if len(loaded.Shelves) != 1 {
		t.Fatalf("expected 1 shelf got %d", len(loaded.Shelves))
	}
}

func TestAddShelfRequiresRoom(t *testing.T) {
	svc, _ := newStorageService(t)

	_, err := svc.AddShelf(context.Background(), uuid.New(), ShelfInput{Code: "B1"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestMoveStockRespectsCapacity(t *testing.T) {
	svc, db := newStorageService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, RoomInput{
		Code: fmt.Sprintf("CAP-%s", uuid.NewString()[:8]),
		Name: "Capacity Room",
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	shelf, err := svc.AddShelf(ctx, room.ID, ShelfInput{Code: "S1", Capacity: 10})
	if err != nil {
		t.Fatalf("add shelf: %v", err)
	}

	seedVariant(t, db, 7, &shelf.ID)
	mover := seedVariant(t, db, 5, nil)

	err = svc.MoveStock(ctx, MoveStockInput{VariantID: mover.ID, ToShelfID: &shelf.ID})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected capacity conflict got %v", err)
	}

	small := seedVariant(t, db, 3, nil)
	if err := svc.MoveStock(ctx, MoveStockInput{VariantID: small.ID, ToShelfID: &shelf.ID}); err != nil {
		t.Fatalf("move within capacity failed: %v", err)
	}

	var moved models.ProductVariant
	if err := db.Where("id = ?", small.ID).First(&moved).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if moved.ShelfID == nil || *moved.ShelfID != shelf.ID {
		t.Fatal("expected variant relocated")
	}
}

func TestMoveStockOffShelf(t *testing.T) {
	svc, db := newStorageService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, RoomInput{
		Code: fmt.Sprintf("OFF-%s", uuid.NewString()[:8]),
		Name: "Off Room",
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	shelf, err := svc.AddShelf(ctx, room.ID, ShelfInput{Code: "S1"})
	if err != nil {
		t.Fatalf("add shelf: %v", err)
	}
	variant := seedVariant(t, db, 2, &shelf.ID)

	if err := svc.MoveStock(ctx, MoveStockInput{VariantID: variant.ID, ToShelfID: nil}); err != nil {
		t.Fatalf("move off shelf failed: %v", err)
	}
	var moved models.ProductVariant
	if err := db.Where("id = ?", variant.ID).First(&moved).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if moved.ShelfID != nil {
		t.Fatal("expected shelf cleared")
	}
}

func TestDeleteShelfWithStockRejected(t *testing.T) {
	svc, db := newStorageService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, RoomInput{
		Code: fmt.Sprintf("DEL-%s", uuid.NewString()[:8]),
		Name: "Delete Room",
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	shelf, err := svc.AddShelf(ctx, room.ID, ShelfInput{Code: "S1"})
	if err != nil {
		t.Fatalf("add shelf: %v", err)
	}
	seedVariant(t, db, 1, &shelf.ID)

	err = svc.DeleteShelf(ctx, shelf.ID)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict got %v", err)
	}
}
