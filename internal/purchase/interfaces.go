package purchase

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

// Repository defines persistence operations for purchase-order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error)
	ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.PurchaseOrderItem) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	NextOrderNumber(ctx context.Context) (int64, error)
}

// VariantResolver loads the variant snapshot an add-item action copies into
// the cart line. Products with no variants resolve to nil.
type VariantResolver interface {
	ResolveVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.ProductVariant, error)
}

// StockAdjuster moves received quantities into variant stock inside the
// caller's transaction.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, delta int) error
}
