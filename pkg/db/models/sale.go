package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a recorded point-of-sale transaction. Amounts are stored in the
// base currency.
type Sale struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleNumber int64           `gorm:"column:sale_number;uniqueIndex;not null"`
	Subtotal   decimal.Decimal `gorm:"column:subtotal;type:numeric(18,2);not null"`
	Tax        decimal.Decimal `gorm:"column:tax;type:numeric(18,2);not null"`
	Total      decimal.Decimal `gorm:"column:total;type:numeric(18,2);not null"`
	SoldBy     *uuid.UUID      `gorm:"column:sold_by;type:uuid"`
	SoldAt     time.Time       `gorm:"column:sold_at;not null;index"`
	Items      []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// SaleItem is a single line on a sale. UnitPrice is captured at sale time so
// later price changes do not rewrite history.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID    uuid.UUID       `gorm:"column:sale_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	SKU       string          `gorm:"column:sku;not null"`
	Name      string          `gorm:"column:name;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null"`
	UnitCost  decimal.Decimal `gorm:"column:unit_cost;type:numeric(18,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(18,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
