package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jasirilabs/lats-backend/internal/purchase/cart"
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
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines purchase-order operations beyond repository reads.
type Service interface {
	CreateDraft(ctx context.Context, input DraftInput) (*models.PurchaseOrder, error)
	UpdateDraft(ctx context.Context, input DraftUpdateInput) (*models.PurchaseOrder, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error)
	ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ApplyActions(ctx context.Context, input ApplyActionsInput) (*models.PurchaseOrder, error)
	Submit(ctx context.Context, input SubmitInput) (*models.PurchaseOrder, error)
	Confirm(ctx context.Context, input ConfirmInput) error
	Receive(ctx context.Context, input ReceiveInput) (*models.PurchaseOrder, error)
	Cancel(ctx context.Context, input CancelInput) error
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	variants VariantResolver
	stock    StockAdjuster
	engine   *cart.Engine
}

// NewService builds a purchase-order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, variants VariantResolver, stock StockAdjuster, engine *cart.Engine) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant resolver required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if engine == nil {
		return nil, fmt.Errorf("cart engine required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		variants: variants,
		stock:    stock,
		engine:   engine,
	}, nil
}

func (s *service) CreateDraft(ctx context.Context, input DraftInput) (*models.PurchaseOrder, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.BaseCurrency
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}
	rate := input.ExchangeRate
	if currency.IsBase() {
		rate = decimal.NewFromInt(1)
	} else if !rate.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exchange rate must be positive")
	}

	var created *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		number, err := txRepo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		order := &models.PurchaseOrder{
			OrderNumber:      number,
			SupplierID:       input.SupplierID,
			Status:           enums.PurchaseOrderStatusDraft,
			Currency:         currency,
			ExchangeRate:     rate,
			ExpectedDelivery: input.ExpectedDelivery,
			PaymentTerms:     input.PaymentTerms,
			Notes:            input.Notes,
			CreatedBy:        input.ActorUserID,
		}
		created, err = txRepo.CreateOrder(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) UpdateDraft(ctx context.Context, input DraftUpdateInput) (*models.PurchaseOrder, error) {
	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.PurchaseOrderStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be edited")
	}

	state := stateFromOrder(order)
	updates := map[string]any{}

	if input.SupplierID != nil {
		state.SupplierID = input.SupplierID
		updates["supplier_id"] = *input.SupplierID
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
		}
		state.Currency = *input.Currency
		updates["currency"] = *input.Currency
		if input.Currency.IsBase() {
			state.ExchangeRate = decimal.NewFromInt(1)
			updates["exchange_rate"] = state.ExchangeRate
		}
	}
	if input.ExchangeRate != nil {
		if !input.ExchangeRate.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "exchange rate must be positive")
		}
		if state.Currency.IsBase() && !input.ExchangeRate.Equal(decimal.NewFromInt(1)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base currency rate is fixed at 1")
		}
		state.ExchangeRate = *input.ExchangeRate
		updates["exchange_rate"] = *input.ExchangeRate
	}
	if input.ExpectedDelivery != nil {
		updates["expected_delivery"] = *input.ExpectedDelivery
	}
	if input.Discount != nil {
		if input.Discount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
		}
		state.Discount = *input.Discount
	}
	if input.PaymentTerms != nil {
		updates["payment_terms"] = *input.PaymentTerms
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	for key, value := range totalsUpdates(s.engine.Totals(state)) {
		updates[key] = value
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).UpdateOrder(ctx, order.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.findOrder(ctx, order.ID)
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	return s.findOrder(ctx, orderID)
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	return s.repo.ListOrders(ctx, params, filters)
}

func (s *service) ApplyActions(ctx context.Context, input ApplyActionsInput) (*models.PurchaseOrder, error) {
	if len(input.Actions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one action required")
	}
	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.PurchaseOrderStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be edited")
	}

	state := stateFromOrder(order)
	for _, raw := range input.Actions {
		action, err := s.toAction(ctx, raw)
		if err != nil {
			return nil, err
		}
		state, err = s.engine.Apply(state, action)
		if err != nil {
			return nil, err
		}
	}
	totals := s.engine.Totals(state)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ReplaceItems(ctx, order.ID, itemsFromState(state)); err != nil {
			return err
		}
		return txRepo.UpdateOrder(ctx, order.ID, totalsUpdates(totals))
	})
	if err != nil {
		return nil, err
	}
	return s.findOrder(ctx, order.ID)
}

// toAction translates one decoded request into a reducer action. Add-item
// resolves the variant snapshot up front; a product with no purchasable
// variant maps to a nil variant id, which the reducer rejects.
func (s *service) toAction(ctx context.Context, input ActionInput) (cart.Action, error) {
	switch input.Type {
	case ActionAddItem:
		if input.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		variant, err := s.variants.ResolveVariant(ctx, input.ProductID, input.VariantID)
		if err != nil {
			return nil, err
		}
		action := cart.AddItem{ProductID: input.ProductID}
		if input.Quantity != nil {
			action.Quantity = *input.Quantity
		}
		if variant != nil {
			action.VariantID = variant.ID
			action.SKU = variant.SKU
			action.Name = variant.Name
			action.CostPrice = variant.CostPrice
			action.SellingPrice = variant.SellingPrice
		}
		if input.CostPrice != nil {
			action.CostPrice = *input.CostPrice
		}
		return action, nil
	case ActionSetQuantity:
		if input.LineID == uuid.Nil || input.Quantity == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id and quantity required")
		}
		return cart.SetQuantity{LineID: input.LineID, Quantity: *input.Quantity}, nil
	case ActionSetCostPrice:
		if input.LineID == uuid.Nil || input.CostPrice == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id and cost price required")
		}
		return cart.SetCostPrice{LineID: input.LineID, CostPrice: *input.CostPrice}, nil
	case ActionRemoveItem:
		if input.LineID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
		}
		return cart.RemoveItem{LineID: input.LineID}, nil
	case ActionClear:
		return cart.Clear{}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action type %q", input.Type))
	}
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.PurchaseOrder, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.PurchaseOrderStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be submitted")
	}

	var missing []string
	if order.SupplierID == nil {
		missing = append(missing, "supplier")
	}
	if len(order.Items) == 0 {
		missing = append(missing, "items")
	}
	if order.ExpectedDelivery == nil {
		missing = append(missing, "expected_delivery")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not ready to submit").
			WithDetails(map[string]any{"missing": missing})
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		err := txRepo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.PurchaseOrderStatusSubmitted,
			"submitted_at": now,
		})
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderSubmitted,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: SubmittedEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				SupplierID:       *order.SupplierID,
				Currency:         order.Currency,
				ExchangeRate:     order.ExchangeRate,
				SubtotalAmount:   order.SubtotalAmount,
				TaxAmount:        order.TaxAmount,
				DiscountAmount:   order.DiscountAmount,
				TotalAmount:      order.TotalAmount,
				TotalBaseAmount:  order.TotalBaseAmount,
				ItemCount:        len(order.Items),
				ExpectedDelivery: order.ExpectedDelivery,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.findOrder(ctx, order.ID)
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) error {
	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(enums.PurchaseOrderStatusConfirmed) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot confirm order in status %s", order.Status))
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).UpdateOrder(ctx, order.ID, map[string]any{
			"status": enums.PurchaseOrderStatusConfirmed,
		})
	})
}

func (s *service) Receive(ctx context.Context, input ReceiveInput) (*models.PurchaseOrder, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one received line required")
	}
	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanReceive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot receive goods in status %s", order.Status))
	}

	itemsByID := make(map[uuid.UUID]*models.PurchaseOrderItem, len(order.Items))
	for i := range order.Items {
		itemsByID[order.Items[i].ID] = &order.Items[i]
	}

	for _, line := range input.Lines {
		item, ok := itemsByID[line.ItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found").
				WithDetails(map[string]any{"item_id": line.ItemID})
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "received quantity must be positive")
		}
		if item.ReceivedQty+line.Quantity > item.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "received quantity exceeds ordered quantity").
				WithDetails(map[string]any{
					"item_id":  item.ID,
					"ordered":  item.Quantity,
					"received": item.ReceivedQty,
				})
		}
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, line := range input.Lines {
			item := itemsByID[line.ItemID]
			item.ReceivedQty += line.Quantity
			err := txRepo.UpdateItem(ctx, item.ID, map[string]any{
				"received_qty": item.ReceivedQty,
			})
			if err != nil {
				return err
			}
			if err := s.stock.AdjustStock(ctx, tx, item.VariantID, line.Quantity); err != nil {
				return err
			}
		}

		complete := true
		for i := range order.Items {
			if order.Items[i].ReceivedQty < order.Items[i].Quantity {
				complete = false
				break
			}
		}

		updates := map[string]any{"status": enums.PurchaseOrderStatusPartiallyReceived}
		if complete {
			updates["status"] = enums.PurchaseOrderStatusReceived
			updates["received_at"] = now
		}
		if err := txRepo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return err
		}
		if !complete {
			return nil
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderReceived,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: ReceivedEvent{
				OrderID:         order.ID,
				OrderNumber:     order.OrderNumber,
				SupplierID:      order.SupplierID,
				TotalBaseAmount: order.TotalBaseAmount,
				ItemCount:       len(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.findOrder(ctx, order.ID)
}

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(enums.PurchaseOrderStatusCancelled) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot cancel order in status %s", order.Status))
	}

	now := time.Now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		err := txRepo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.PurchaseOrderStatusCancelled,
			"cancelled_at": now,
		})
		if err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderCancelled,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: CancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Reason:      input.Reason,
			},
		})
	})
}

func (s *service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, err
	}
	return order, nil
}
