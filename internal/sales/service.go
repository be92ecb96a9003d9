package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/outbox"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// catalog supplies variant snapshots and moves stock. Satisfied by the
// products service.
type catalog interface {
	ResolveVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.ProductVariant, error)
	AdjustStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, delta int) error
}

// SaleLineInput is one line of a sale being recorded. UnitPrice overrides
// the variant's selling price when set.
type SaleLineInput struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// RecordSaleInput records a completed point-of-sale transaction.
type RecordSaleInput struct {
	Lines  []SaleLineInput
	SoldBy *uuid.UUID
	SoldAt *time.Time
}

// SaleList is one page of sales.
type SaleList struct {
	Sales      []models.Sale
	NextCursor string
}

// SaleRecordedEvent is the sale_recorded payload consumed by analytics.
type SaleRecordedEvent struct {
	SaleID     uuid.UUID          `json:"sale_id"`
	SaleNumber int64              `json:"sale_number"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	Tax        decimal.Decimal    `json:"tax"`
	Total      decimal.Decimal    `json:"total"`
	SoldAt     time.Time          `json:"sold_at"`
	Items      []SaleRecordedItem `json:"items"`
}

// SaleRecordedItem carries the per-line amounts the fact tables need.
type SaleRecordedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	VariantID uuid.UUID       `json:"variant_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Service records sales and reads them back.
type Service interface {
	RecordSale(ctx context.Context, input RecordSaleInput) (*models.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	ListSales(ctx context.Context, params pagination.Params, filters SaleFilters) (*SaleList, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	outboxSvc outboxPublisher
	catalog   catalog
	taxRate   decimal.Decimal
	now       func() time.Time
}

// NewService wires the sales recorder.
func NewService(repo *Repository, tx txRunner, outboxSvc outboxPublisher, cat catalog, taxRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog service is required")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate out of range")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outboxSvc: outboxSvc,
		catalog:   cat,
		taxRate:   taxRate,
		now:       time.Now,
	}, nil
}

// RecordSale snapshots the variant prices, decrements stock and writes the
// sale plus its outbox event in one transaction.
func (s *service) RecordSale(ctx context.Context, input RecordSaleInput) (*models.Sale, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a sale needs at least one line")
	}

	soldAt := s.now().UTC()
	if input.SoldAt != nil {
		soldAt = input.SoldAt.UTC()
	}

	items := make([]models.SaleItem, 0, len(input.Lines))
	subtotal := decimal.Zero
	for i, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be at least 1").
				WithDetails(map[string]any{"line": i})
		}
		if line.VariantID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line variant is required").
				WithDetails(map[string]any{"line": i})
		}

		variantID := line.VariantID
		variant, err := s.catalog.ResolveVariant(ctx, line.ProductID, &variantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"line": i, "variant_id": line.VariantID})
		}

		unitPrice := variant.SellingPrice
		if line.UnitPrice != nil {
			if line.UnitPrice.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative").
					WithDetails(map[string]any{"line": i})
			}
			unitPrice = *line.UnitPrice
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.SaleItem{
			ProductID: variant.ProductID,
			VariantID: variant.ID,
			SKU:       variant.SKU,
			Name:      variant.Name,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			UnitCost:  variant.CostPrice,
			LineTotal: lineTotal,
		})
	}

	tax := subtotal.Mul(s.taxRate).Round(2)
	total := subtotal.Add(tax)

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		number, err := txRepo.NextSaleNumber(ctx)
		if err != nil {
			return err
		}

		created, err := txRepo.Create(ctx, &models.Sale{
			SaleNumber: number,
			Subtotal:   subtotal,
			Tax:        tax,
			Total:      total,
			SoldBy:     input.SoldBy,
			SoldAt:     soldAt,
			Items:      items,
		})
		if err != nil {
			return err
		}

		for _, item := range created.Items {
			if err := s.catalog.AdjustStock(ctx, tx, item.VariantID, -item.Quantity); err != nil {
				return err
			}
		}

		event := SaleRecordedEvent{
			SaleID:     created.ID,
			SaleNumber: created.SaleNumber,
			Subtotal:   created.Subtotal,
			Tax:        created.Tax,
			Total:      created.Total,
			SoldAt:     created.SoldAt,
		}
		for _, item := range created.Items {
			event.Items = append(event.Items, SaleRecordedItem{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				SKU:       item.SKU,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				UnitCost:  item.UnitCost,
				LineTotal: item.LineTotal,
			})
		}
		var actor *outbox.ActorRef
		if input.SoldBy != nil {
			actor = &outbox.ActorRef{UserID: *input.SoldBy}
		}
		if err := s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleRecorded,
			AggregateType: enums.AggregateSale,
			AggregateID:   created.ID,
			Actor:         actor,
			Data:          event,
			OccurredAt:    soldAt,
		}); err != nil {
			return err
		}

		sale = created
		return nil
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sale")
	}
	return sale, nil
}

func (s *service) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func (s *service) ListSales(ctx context.Context, params pagination.Params, filters SaleFilters) (*SaleList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return list, nil
}
