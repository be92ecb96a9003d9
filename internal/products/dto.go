package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

// StockStatus classifies a variant's quantity against its minimum level.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// StockStatusFor derives the status from current quantity and minimum level.
func StockStatusFor(quantity, minStock int) StockStatus {
	switch {
	case quantity <= 0:
		return StockStatusOutOfStock
	case quantity <= minStock:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// VariantInput holds the validated payload for one product variant.
type VariantInput struct {
	SKU          string          `json:"sku" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Quantity     int             `json:"quantity"`
	MinStock     int             `json:"minStock"`
	ShelfID      *uuid.UUID      `json:"shelfId,omitempty"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description *string
	CategoryID  *uuid.UUID
	SupplierID  *uuid.UUID
	Tags        []string
	IsActive    bool
	Variants    []VariantInput
}

// UpdateProductInput holds optional mutation values. Nil fields are left
// unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	CategoryID  *uuid.UUID
	SupplierID  *uuid.UUID
	Tags        *[]string
	IsActive    *bool
}

// UpdateVariantInput holds optional mutation values for a variant. Stock
// quantity is deliberately absent; it only moves through AdjustStock.
type UpdateVariantInput struct {
	SKU          *string
	Name         *string
	CostPrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	MinStock     *int
	ShelfID      *uuid.UUID
}

// ListProductsInput narrows and pages product listings.
type ListProductsInput struct {
	Params     pagination.Params
	Search     string
	CategoryID *uuid.UUID
	SupplierID *uuid.UUID
	ActiveOnly bool
}

// VariantDTO is the API shape of one variant with its derived stock status.
type VariantDTO struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Quantity     int             `json:"quantity"`
	MinStock     int             `json:"minStock"`
	StockStatus  StockStatus     `json:"stockStatus"`
	ShelfID      *uuid.UUID      `json:"shelfId,omitempty"`
}

// ProductDTO is the API shape of a product with its variants.
type ProductDTO struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	CategoryID  *uuid.UUID   `json:"categoryId,omitempty"`
	SupplierID  *uuid.UUID   `json:"supplierId,omitempty"`
	Tags        []string     `json:"tags"`
	IsActive    bool         `json:"isActive"`
	Variants    []VariantDTO `json:"variants"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ProductList is a page of products.
type ProductList struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// NewProductDTO maps a model row into the API shape.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		CategoryID:  product.CategoryID,
		SupplierID:  product.SupplierID,
		Tags:        product.Tags,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	dto.Variants = make([]VariantDTO, 0, len(product.Variants))
	for _, variant := range product.Variants {
		dto.Variants = append(dto.Variants, NewVariantDTO(&variant))
	}
	return dto
}

// NewVariantDTO maps a variant row into the API shape.
func NewVariantDTO(variant *models.ProductVariant) VariantDTO {
	return VariantDTO{
		ID:           variant.ID,
		SKU:          variant.SKU,
		Name:         variant.Name,
		CostPrice:    variant.CostPrice,
		SellingPrice: variant.SellingPrice,
		Quantity:     variant.Quantity,
		MinStock:     variant.MinStock,
		StockStatus:  StockStatusFor(variant.Quantity, variant.MinStock),
		ShelfID:      variant.ShelfID,
	}
}

// CategoryInput creates or renames a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required"`
	Description *string
	ParentID    *uuid.UUID
}
