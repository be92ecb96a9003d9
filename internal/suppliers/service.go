package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/pkg/db"
	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/pagination"
)

// CreateSupplierInput holds the validated payload to register a supplier.
type CreateSupplierInput struct {
	Name           string
	ContactPerson  *string
	Email          *string
	Phone          *string
	WhatsAppNumber *string
	Country        *string
	Currency       enums.Currency
	PaymentTerms   *string
	LeadTimeDays   int
	Notes          *string
}

// UpdateSupplierInput holds optional mutation values. Nil fields are left
// unchanged.
type UpdateSupplierInput struct {
	Name           *string
	ContactPerson  *string
	Email          *string
	Phone          *string
	WhatsAppNumber *string
	Country        *string
	Currency       *enums.Currency
	PaymentTerms   *string
	LeadTimeDays   *int
	Notes          *string
	IsActive       *bool
}

// SupplierList is a page of suppliers.
type SupplierList struct {
	Suppliers  []models.Supplier `json:"suppliers"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// Service exposes supplier management operations.
type Service interface {
	Create(ctx context.Context, input CreateSupplierInput) (*models.Supplier, error)
	Update(ctx context.Context, supplierID uuid.UUID, input UpdateSupplierInput) (*models.Supplier, error)
	Get(ctx context.Context, supplierID uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context, params pagination.Params, search string, activeOnly bool) (*SupplierList, error)
	Delete(ctx context.Context, supplierID uuid.UUID) (deleted bool, err error)
}

type service struct {
	repo *Repository
}

// NewService constructs a supplier service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateSupplierInput) (*models.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.BaseCurrency
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}
	if input.LeadTimeDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time cannot be negative")
	}

	supplier := &models.Supplier{
		Name:           name,
		ContactPerson:  input.ContactPerson,
		Email:          input.Email,
		Phone:          input.Phone,
		WhatsAppNumber: input.WhatsAppNumber,
		Country:        input.Country,
		Currency:       currency,
		PaymentTerms:   input.PaymentTerms,
		LeadTimeDays:   input.LeadTimeDays,
		Notes:          input.Notes,
		IsActive:       true,
	}
	created, err := s.repo.Create(ctx, supplier)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_suppliers_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "supplier name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert supplier")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, supplierID uuid.UUID, input UpdateSupplierInput) (*models.Supplier, error) {
	if _, err := s.find(ctx, supplierID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
		}
		updates["name"] = name
	}
	if input.ContactPerson != nil {
		updates["contact_person"] = *input.ContactPerson
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.WhatsAppNumber != nil {
		updates["whatsapp_number"] = *input.WhatsAppNumber
	}
	if input.Country != nil {
		updates["country"] = *input.Country
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
		}
		updates["currency"] = *input.Currency
	}
	if input.PaymentTerms != nil {
		updates["payment_terms"] = *input.PaymentTerms
	}
	if input.LeadTimeDays != nil {
		if *input.LeadTimeDays < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time cannot be negative")
		}
		updates["lead_time_days"] = *input.LeadTimeDays
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, supplierID, updates); err != nil {
			if db.IsUniqueViolation(err, "idx_suppliers_name") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "supplier name already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update supplier")
		}
	}
	return s.find(ctx, supplierID)
}

func (s *service) Get(ctx context.Context, supplierID uuid.UUID) (*models.Supplier, error) {
	return s.find(ctx, supplierID)
}

func (s *service) List(ctx context.Context, params pagination.Params, search string, activeOnly bool) (*SupplierList, error) {
	return s.repo.List(ctx, params, search, activeOnly)
}

// Delete removes a supplier no purchase order references. A referenced
// supplier is deactivated instead, keeping order history intact; the
// returned flag reports which path ran.
func (s *service) Delete(ctx context.Context, supplierID uuid.UUID) (bool, error) {
	if _, err := s.find(ctx, supplierID); err != nil {
		return false, err
	}
	count, err := s.repo.CountPurchaseOrders(ctx, supplierID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count orders")
	}
	if count > 0 {
		if err := s.repo.Update(ctx, supplierID, map[string]any{"is_active": false}); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate supplier")
		}
		return false, nil
	}
	if err := s.repo.Delete(ctx, supplierID); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete supplier")
	}
	return true, nil
}

func (s *service) find(ctx context.Context, supplierID uuid.UUID) (*models.Supplier, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	supplier, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load supplier")
	}
	return supplier, nil
}
