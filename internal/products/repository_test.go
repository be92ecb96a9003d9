package product

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	schema := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  parent_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  category_id TEXT,
  supplier_id TEXT,
  tags TEXT NOT NULL DEFAULT '{}',
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
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
	require.NoError(t, db.Exec(schema).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM product_variants")
		db.Exec("DELETE FROM products")
		db.Exec("DELETE FROM categories")
	})
	return db
}

func mustCreateProduct(t *testing.T, repo *Repository, name string, createdAt time.Time) *models.Product {
	t.Helper()
	product, err := repo.CreateProduct(context.Background(), &models.Product{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  true,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return product
}

func mustCreateVariant(t *testing.T, repo *Repository, productID uuid.UUID, sku string, quantity int, createdAt time.Time) *models.ProductVariant {
	t.Helper()
	variant, err := repo.CreateVariant(context.Background(), &models.ProductVariant{
		ID:           uuid.New(),
		ProductID:    productID,
		SKU:          sku,
		Name:         sku,
		CostPrice:    decimal.NewFromInt(1000),
		SellingPrice: decimal.NewFromInt(1500),
		Quantity:     quantity,
		CreatedAt:    createdAt,
	})
	require.NoError(t, err)
	return variant
}

func TestRepositoryProductFlow(t *testing.T) {
	db := newCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	created := mustCreateProduct(t, repo, "Desk Lamp", base)
	first := mustCreateVariant(t, repo, created.ID, fmt.Sprintf("LAMP-A-%s", uuid.NewString()[:8]), 10, base)
	mustCreateVariant(t, repo, created.ID, fmt.Sprintf("LAMP-B-%s", uuid.NewString()[:8]), 4, base.Add(time.Minute))

	loaded, err := repo.FindProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Variants, 2)
	assert.Equal(t, first.ID, loaded.Variants[0].ID, "variants ordered by creation time")

	err = repo.UpdateProduct(ctx, created.ID, map[string]any{"name": "Desk Lamp Pro", "is_active": false})
	require.NoError(t, err)
	loaded, err = repo.FindProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp Pro", loaded.Name)
	assert.False(t, loaded.IsActive)

	fallback, err := repo.FirstVariant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, fallback.ID, "oldest variant is the fallback")

	require.NoError(t, repo.DeleteProduct(ctx, created.ID))
	_, err = repo.FindProduct(ctx, created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListProductsSearchAndFilters(t *testing.T) {
	db := newCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	lamp := mustCreateProduct(t, repo, "Desk Lamp", base)
	mustCreateVariant(t, repo, lamp.ID, "LAMP-STD", 10, base)
	chair := mustCreateProduct(t, repo, "Office Chair", base.Add(time.Minute))
	mustCreateVariant(t, repo, chair.ID, "CHAIR-STD", 3, base.Add(time.Minute))

	list, err := repo.ListProducts(ctx, ListProductsInput{Search: "lamp"})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, lamp.ID, list.Products[0].ID)

	list, err = repo.ListProducts(ctx, ListProductsInput{Search: "chair-std"})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, chair.ID, list.Products[0].ID, "search matches variant sku")

	list, err = repo.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	require.Len(t, list.Products, 2)
	assert.Equal(t, chair.ID, list.Products[0].ID, "newest first")
}

func TestListProductsCursorPagination(t *testing.T) {
	db := newCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		p := mustCreateProduct(t, repo, fmt.Sprintf("Item %d", i), base.Add(time.Duration(i)*time.Minute))
		mustCreateVariant(t, repo, p.ID, fmt.Sprintf("ITEM-%d-%s", i, uuid.NewString()[:8]), 1, base)
	}

	first, err := repo.ListProducts(ctx, ListProductsInput{Params: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListProducts(ctx, ListProductsInput{Params: pagination.Params{Limit: 2, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Empty(t, second.NextCursor)
}

func TestAdjustVariantStockNeverGoesNegative(t *testing.T) {
	db := newCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now()
	prod := mustCreateProduct(t, repo, "Stock Item", base)
	variant := mustCreateVariant(t, repo, prod.ID, fmt.Sprintf("STK-%s", uuid.NewString()[:8]), 5, base)

	affected, err := repo.AdjustVariantStock(ctx, nil, variant.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.AdjustVariantStock(ctx, nil, variant.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected, "guard rejects drops below zero")

	loaded, err := repo.FindVariant(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Quantity)
}

func TestListLowStockVariants(t *testing.T) {
	db := newCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now()
	prod := mustCreateProduct(t, repo, "Low Stock Item", base)
	low := mustCreateVariant(t, repo, prod.ID, fmt.Sprintf("LOW-%s", uuid.NewString()[:8]), 1, base)
	require.NoError(t, repo.UpdateVariant(ctx, low.ID, map[string]any{"min_stock": 5}))
	mustCreateVariant(t, repo, prod.ID, fmt.Sprintf("OK-%s", uuid.NewString()[:8]), 50, base)

	variants, err := repo.ListLowStockVariants(ctx)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, low.ID, variants[0].ID)
}
