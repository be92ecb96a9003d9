package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db"
	"github.com/jasirilabs/lats-backend/pkg/db/models"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog and inventory management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error)
	AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*VariantDTO, error)
	UpdateVariant(ctx context.Context, variantID uuid.UUID, input UpdateVariantInput) (*VariantDTO, error)
	DeleteVariant(ctx context.Context, variantID uuid.UUID) error
	AdjustStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, delta int) error
	ResolveVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.ProductVariant, error)
	ListLowStock(ctx context.Context) ([]VariantDTO, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	for _, variant := range input.Variants {
		if err := validateVariantInput(variant); err != nil {
			return nil, err
		}
	}

	var createdID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product := &models.Product{
			Name:        strings.TrimSpace(input.Name),
			Description: input.Description,
			CategoryID:  input.CategoryID,
			SupplierID:  input.SupplierID,
			Tags:        input.Tags,
			IsActive:    input.IsActive,
		}
		created, err := txRepo.CreateProduct(ctx, product)
		if err != nil {
			return wrapCatalogErr(err, "db: insert product")
		}
		createdID = created.ID

		for _, variantInput := range input.Variants {
			variant := variantFromInput(created.ID, variantInput)
			if _, err := txRepo.CreateVariant(ctx, variant); err != nil {
				return wrapCatalogErr(err, "db: insert variant")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindProduct(ctx, createdID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.SupplierID != nil {
		updates["supplier_id"] = *input.SupplierID
	}
	if input.Tags != nil {
		updates["tags"] = *input.Tags
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateProduct(ctx, productID, updates); err != nil {
			return nil, wrapCatalogErr(err, "db: update product")
		}
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, productID)
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error) {
	return s.repo.ListProducts(ctx, input)
}

func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*VariantDTO, error) {
	if err := validateVariantInput(input); err != nil {
		return nil, err
	}
	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}
	created, err := s.repo.CreateVariant(ctx, variantFromInput(productID, input))
	if err != nil {
		return nil, wrapCatalogErr(err, "db: insert variant")
	}
	dto := NewVariantDTO(created)
	return &dto, nil
}

func (s *service) UpdateVariant(ctx context.Context, variantID uuid.UUID, input UpdateVariantInput) (*VariantDTO, error) {
	if _, err := s.findVariant(ctx, variantID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.SKU != nil {
		if strings.TrimSpace(*input.SKU) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
		}
		updates["sku"] = strings.TrimSpace(*input.SKU)
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
		}
		updates["cost_price"] = *input.CostPrice
	}
	if input.SellingPrice != nil {
		if input.SellingPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot be negative")
		}
		updates["selling_price"] = *input.SellingPrice
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock cannot be negative")
		}
		updates["min_stock"] = *input.MinStock
	}
	if input.ShelfID != nil {
		updates["shelf_id"] = *input.ShelfID
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateVariant(ctx, variantID, updates); err != nil {
			return nil, wrapCatalogErr(err, "db: update variant")
		}
	}

	variant, err := s.findVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	dto := NewVariantDTO(variant)
	return &dto, nil
}

func (s *service) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	if _, err := s.findVariant(ctx, variantID); err != nil {
		return err
	}
	return s.repo.DeleteVariant(ctx, variantID)
}

// AdjustStock applies a relative stock change. Pass the surrounding
// transaction when the adjustment must commit with other writes; nil uses
// the repository's own connection.
func (s *service) AdjustStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, delta int) error {
	if variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if delta == 0 {
		return nil
	}
	affected, err := s.repo.AdjustVariantStock(ctx, tx, variantID, delta)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: adjust stock")
	}
	if affected == 0 {
		if _, err := s.findVariant(ctx, variantID); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "stock cannot go below zero")
	}
	return nil
}

// ResolveVariant returns the snapshot a purchase line copies. An explicit
// variant id must exist and belong to the product; without one the product's
// first variant is used. A product with no variants resolves to nil.
func (s *service) ResolveVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.ProductVariant, error) {
	if variantID != nil && *variantID != uuid.Nil {
		variant, err := s.findVariant(ctx, *variantID)
		if err != nil {
			return nil, err
		}
		if variant.ProductID != productID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
		}
		return variant, nil
	}

	variant, err := s.repo.FirstVariant(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant")
	}
	return variant, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]VariantDTO, error) {
	variants, err := s.repo.ListLowStockVariants(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}
	dtos := make([]VariantDTO, 0, len(variants))
	for i := range variants {
		dtos = append(dtos, NewVariantDTO(&variants[i]))
	}
	return dtos, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		ParentID:    input.ParentID,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	return created, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, categoryID)
}

func (s *service) findProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

func (s *service) findVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.repo.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant")
	}
	return variant, nil
}

func validateVariantInput(input VariantInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if input.CostPrice.IsNegative() || input.SellingPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if input.Quantity < 0 || input.MinStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock levels cannot be negative")
	}
	return nil
}

func variantFromInput(productID uuid.UUID, input VariantInput) *models.ProductVariant {
	return &models.ProductVariant{
		ProductID:    productID,
		SKU:          strings.TrimSpace(input.SKU),
		Name:         input.Name,
		CostPrice:    input.CostPrice,
		SellingPrice: input.SellingPrice,
		Quantity:     input.Quantity,
		MinStock:     input.MinStock,
		ShelfID:      input.ShelfID,
	}
}

func wrapCatalogErr(err error, message string) error {
	if db.IsUniqueViolation(err, "idx_variants_sku") {
		return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
