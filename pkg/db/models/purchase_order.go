package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jasirilabs/lats-backend/pkg/enums"
)

// PurchaseOrder is a procurement order against a supplier. While in draft it
// doubles as the server-side cart: items are freely mutated and totals are
// recomputed from the lines on every change. Submission freezes the lines.
type PurchaseOrder struct {
	ID               uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      int64                     `gorm:"column:order_number;not null;uniqueIndex"`
	SupplierID       *uuid.UUID                `gorm:"column:supplier_id;type:uuid"`
	Status           enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	Currency         enums.Currency            `gorm:"column:currency;type:text;not null;default:'TZS'"`
	ExchangeRate     decimal.Decimal           `gorm:"column:exchange_rate;type:numeric(18,6);not null;default:1"`
	ExpectedDelivery *time.Time                `gorm:"column:expected_delivery"`
	PaymentTerms     *string                   `gorm:"column:payment_terms"`
	Notes            *string                   `gorm:"column:notes"`
	SubtotalAmount   decimal.Decimal           `gorm:"column:subtotal_amount;type:numeric(18,2);not null;default:0"`
	TaxAmount        decimal.Decimal           `gorm:"column:tax_amount;type:numeric(18,2);not null;default:0"`
	DiscountAmount   decimal.Decimal           `gorm:"column:discount_amount;type:numeric(18,2);not null;default:0"`
	TotalAmount      decimal.Decimal           `gorm:"column:total_amount;type:numeric(18,2);not null;default:0"`
	TotalBaseAmount  decimal.Decimal           `gorm:"column:total_base_amount;type:numeric(18,2);not null;default:0"`
	CreatedBy        uuid.UUID                 `gorm:"column:created_by;type:uuid;not null"`
	SubmittedAt      *time.Time                `gorm:"column:submitted_at"`
	ReceivedAt       *time.Time                `gorm:"column:received_at"`
	CancelledAt      *time.Time                `gorm:"column:cancelled_at"`
	Items            []PurchaseOrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseOrderItem is one cart line: a product variant, its requested
// quantity, and the supplier's unit cost. TotalPrice is always
// Quantity × CostPrice; it is never written independently of its inputs.
type PurchaseOrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID   uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	SKU         string          `gorm:"column:sku;not null"`
	Name        string          `gorm:"column:name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	ReceivedQty int             `gorm:"column:received_qty;not null;default:0"`
	CostPrice   decimal.Decimal `gorm:"column:cost_price;type:numeric(18,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(18,2);not null"`
	Position    int             `gorm:"column:position;not null;default:0"`
	Notes       *string         `gorm:"column:notes"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
