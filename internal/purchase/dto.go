package purchase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jasirilabs/lats-backend/pkg/enums"
)

// ActionType discriminates the cart mutation carried by an ActionInput.
type ActionType string

const (
	ActionAddItem      ActionType = "add_item"
	ActionSetQuantity  ActionType = "set_quantity"
	ActionSetCostPrice ActionType = "set_cost_price"
	ActionRemoveItem   ActionType = "remove_item"
	ActionClear        ActionType = "clear"
)

// ActionInput is one decoded cart mutation from the actions endpoint. Fields
// beyond Type are interpreted per action type; unused ones are ignored.
type ActionInput struct {
	Type      ActionType       `json:"type" validate:"required"`
	ProductID uuid.UUID        `json:"productId,omitempty"`
	VariantID *uuid.UUID       `json:"variantId,omitempty"`
	LineID    uuid.UUID        `json:"lineId,omitempty"`
	Quantity  *int             `json:"quantity,omitempty"`
	CostPrice *decimal.Decimal `json:"costPrice,omitempty"`
}

// DraftInput creates an empty draft order.
type DraftInput struct {
	SupplierID       *uuid.UUID
	Currency         enums.Currency
	ExchangeRate     decimal.Decimal
	ExpectedDelivery *time.Time
	PaymentTerms     *string
	Notes            *string
	ActorUserID      uuid.UUID
}

// DraftUpdateInput patches draft metadata. Nil fields are left unchanged.
type DraftUpdateInput struct {
	OrderID          uuid.UUID
	SupplierID       *uuid.UUID
	Currency         *enums.Currency
	ExchangeRate     *decimal.Decimal
	ExpectedDelivery *time.Time
	Discount         *decimal.Decimal
	PaymentTerms     *string
	Notes            *string
	ActorUserID      uuid.UUID
}

// ApplyActionsInput runs a sequence of cart mutations against a draft.
type ApplyActionsInput struct {
	OrderID     uuid.UUID
	Actions     []ActionInput
	ActorUserID uuid.UUID
}

// SubmitInput freezes a draft and hands it to the supplier.
type SubmitInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
}

// ConfirmInput acknowledges a submitted order on the supplier's behalf.
type ConfirmInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
}

// ReceiveLine records goods received against one order item.
type ReceiveLine struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// ReceiveInput books received quantities and adjusts stock.
type ReceiveInput struct {
	OrderID     uuid.UUID
	Lines       []ReceiveLine
	ActorUserID uuid.UUID
	ActorRole   string
}

// CancelInput cancels an order that has not started receiving.
type CancelInput struct {
	OrderID     uuid.UUID
	Reason      *string
	ActorUserID uuid.UUID
	ActorRole   string
}

// OrderFilters narrows order listings.
type OrderFilters struct {
	Status     *enums.PurchaseOrderStatus
	SupplierID *uuid.UUID
}

// OrderSummary is one row in an order listing.
type OrderSummary struct {
	ID               uuid.UUID                 `json:"id"`
	OrderNumber      int64                     `json:"orderNumber"`
	SupplierID       *uuid.UUID                `json:"supplierId,omitempty"`
	SupplierName     *string                   `json:"supplierName,omitempty"`
	Status           enums.PurchaseOrderStatus `json:"status"`
	Currency         enums.Currency            `json:"currency"`
	TotalAmount      decimal.Decimal           `json:"totalAmount"`
	TotalBaseAmount  decimal.Decimal           `json:"totalBaseAmount"`
	ItemCount        int                       `json:"itemCount"`
	ExpectedDelivery *time.Time                `json:"expectedDelivery,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
}

// OrderList is a page of order summaries.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// SubmittedEvent is the purchase_order_submitted outbox payload.
type SubmittedEvent struct {
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      int64           `json:"order_number"`
	SupplierID       uuid.UUID       `json:"supplier_id"`
	Currency         enums.Currency  `json:"currency"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	SubtotalAmount   decimal.Decimal `json:"subtotal_amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TotalBaseAmount  decimal.Decimal `json:"total_base_amount"`
	ItemCount        int             `json:"item_count"`
	ExpectedDelivery *time.Time      `json:"expected_delivery,omitempty"`
}

// ReceivedEvent is the purchase_order_received outbox payload, emitted once
// when the final line completes.
type ReceivedEvent struct {
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     int64           `json:"order_number"`
	SupplierID      *uuid.UUID      `json:"supplier_id,omitempty"`
	TotalBaseAmount decimal.Decimal `json:"total_base_amount"`
	ItemCount       int             `json:"item_count"`
}

// CancelledEvent is the purchase_order_cancelled outbox payload.
type CancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	Reason      *string   `json:"reason,omitempty"`
}
