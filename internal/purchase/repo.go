package purchase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase-order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type orderRow struct {
	models.PurchaseOrder
	SupplierName *string
	ItemCount    int
}

func (r *repository) ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("purchase_orders po").
		Select("po.*, s.name AS supplier_name, (SELECT COUNT(*) FROM purchase_order_items poi WHERE poi.order_id = po.id) AS item_count").
		Joins("LEFT JOIN suppliers s ON s.id = po.supplier_id")

	if filters.Status != nil {
		query = query.Where("po.status = ?", *filters.Status)
	}
	if filters.SupplierID != nil {
		query = query.Where("po.supplier_id = ?", *filters.SupplierID)
	}
	if cursor != nil {
		query = query.Where("(po.created_at < ?) OR (po.created_at = ? AND po.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []orderRow
	err = query.
		Order("po.created_at DESC, po.id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := pagination.Trim(rows, limit, func(row orderRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})

	summaries := make([]OrderSummary, 0, len(page.Items))
	for _, row := range page.Items {
		summaries = append(summaries, OrderSummary{
			ID:               row.ID,
			OrderNumber:      row.OrderNumber,
			SupplierID:       row.SupplierID,
			SupplierName:     row.SupplierName,
			Status:           row.Status,
			Currency:         row.Currency,
			TotalAmount:      row.TotalAmount,
			TotalBaseAmount:  row.TotalBaseAmount,
			ItemCount:        row.ItemCount,
			ExpectedDelivery: row.ExpectedDelivery,
			CreatedAt:        row.CreatedAt,
		})
	}

	return &OrderList{Orders: summaries, NextCursor: page.NextCursor}, nil
}

// ReplaceItems rewrites the order's lines to match the draft state. Draft
// mutations always send the full line set, so delete-and-insert keeps the
// rows and the reducer state trivially in sync.
func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.PurchaseOrderItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].OrderID = orderID
		items[i].Position = i
	}
	return db.Create(&items).Error
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

// NextOrderNumber allocates the next sequential order number. Runs inside
// the submit/create transaction so concurrent drafts cannot collide.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Select("COALESCE(MAX(order_number), 1000) + 1").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
