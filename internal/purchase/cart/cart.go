package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/money"
)

// Line is one entry in a draft purchase order. TotalPrice is derived from
// Quantity and CostPrice and is recomputed on every mutation, never carried
// stale.
type Line struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	VariantID  uuid.UUID
	SKU        string
	Name       string
	Quantity   int
	CostPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Notes      string
}

// State is an immutable snapshot of a draft order. Apply returns a new State;
// callers never mutate one in place. Line order is insertion order.
type State struct {
	Lines            []Line
	SupplierID       *uuid.UUID
	Currency         enums.Currency
	ExchangeRate     decimal.Decimal
	ExpectedDelivery *time.Time
	Discount         decimal.Decimal
	Notes            string
}

// NewState returns an empty draft in the base currency.
func NewState() State {
	return State{
		Currency:     enums.BaseCurrency,
		ExchangeRate: decimal.NewFromInt(1),
		Discount:     decimal.Zero,
	}
}

// Action is one cart mutation. The concrete types below form the full union.
type Action interface {
	isAction()
}

// AddItem appends a line for the variant, or merges into an existing line for
// the same (ProductID, VariantID) pair by incrementing its quantity. The
// caller resolves the variant snapshot; a nil VariantID means the product has
// nothing purchasable and the action fails without touching the state.
type AddItem struct {
	ProductID    uuid.UUID
	VariantID    uuid.UUID
	SKU          string
	Name         string
	Quantity     int
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
}

// SetQuantity sets a line's quantity to an absolute value. Zero or negative
// removes the line.
type SetQuantity struct {
	LineID   uuid.UUID
	Quantity int
}

// SetCostPrice sets a line's unit cost.
type SetCostPrice struct {
	LineID    uuid.UUID
	CostPrice decimal.Decimal
}

// RemoveItem drops a line unconditionally.
type RemoveItem struct {
	LineID uuid.UUID
}

// Clear empties the cart. The confirmation gate lives at the API layer.
type Clear struct{}

func (AddItem) isAction()      {}
func (SetQuantity) isAction()  {}
func (SetCostPrice) isAction() {}
func (RemoveItem) isAction()   {}
func (Clear) isAction()        {}

// Config carries the business constants the reducer needs.
type Config struct {
	TaxRate          decimal.Decimal
	DefaultCostRatio decimal.Decimal
}

// Engine applies actions to cart states. It holds configuration only; all
// per-order state lives in State values.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Apply executes one action against the state and returns the next state.
// The input state is never modified, including on error.
func (e *Engine) Apply(state State, action Action) (State, error) {
	switch a := action.(type) {
	case AddItem:
		return e.applyAdd(state, a)
	case SetQuantity:
		return e.applySetQuantity(state, a)
	case SetCostPrice:
		return e.applySetCostPrice(state, a)
	case RemoveItem:
		return e.applyRemove(state, a)
	case Clear:
		next := state
		next.Lines = nil
		return next, nil
	default:
		return state, pkgerrors.New(pkgerrors.CodeValidation, "unknown cart action")
	}
}

func (e *Engine) applyAdd(state State, a AddItem) (State, error) {
	if a.VariantID == uuid.Nil {
		return state, pkgerrors.New(pkgerrors.CodeValidation, "product has no purchasable variant")
	}
	qty := a.Quantity
	if qty <= 0 {
		qty = 1
	}

	next := state
	next.Lines = cloneLines(state.Lines)

	for i := range next.Lines {
		if next.Lines[i].ProductID == a.ProductID && next.Lines[i].VariantID == a.VariantID {
			next.Lines[i].Quantity += qty
			next.Lines[i].TotalPrice = money.LineTotal(next.Lines[i].Quantity, next.Lines[i].CostPrice)
			return next, nil
		}
	}

	cost := a.CostPrice
	if cost.IsZero() && a.SellingPrice.IsPositive() {
		cost = a.SellingPrice.Mul(e.cfg.DefaultCostRatio).Round(2)
	}
	if cost.IsNegative() {
		return state, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
	}

	line := Line{
		ID:         uuid.New(),
		ProductID:  a.ProductID,
		VariantID:  a.VariantID,
		SKU:        a.SKU,
		Name:       a.Name,
		Quantity:   qty,
		CostPrice:  cost,
		TotalPrice: money.LineTotal(qty, cost),
	}
	next.Lines = append(next.Lines, line)
	return next, nil
}

func (e *Engine) applySetQuantity(state State, a SetQuantity) (State, error) {
	idx := indexOf(state.Lines, a.LineID)
	if idx < 0 {
		return state, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	next := state
	if a.Quantity <= 0 {
		next.Lines = dropLine(state.Lines, idx)
		return next, nil
	}

	next.Lines = cloneLines(state.Lines)
	next.Lines[idx].Quantity = a.Quantity
	next.Lines[idx].TotalPrice = money.LineTotal(a.Quantity, next.Lines[idx].CostPrice)
	return next, nil
}

func (e *Engine) applySetCostPrice(state State, a SetCostPrice) (State, error) {
	if a.CostPrice.IsNegative() {
		return state, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
	}
	idx := indexOf(state.Lines, a.LineID)
	if idx < 0 {
		return state, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	next := state
	next.Lines = cloneLines(state.Lines)
	next.Lines[idx].CostPrice = a.CostPrice
	next.Lines[idx].TotalPrice = money.LineTotal(next.Lines[idx].Quantity, a.CostPrice)
	return next, nil
}

func (e *Engine) applyRemove(state State, a RemoveItem) (State, error) {
	idx := indexOf(state.Lines, a.LineID)
	if idx < 0 {
		return state, nil
	}
	next := state
	next.Lines = dropLine(state.Lines, idx)
	return next, nil
}

func indexOf(lines []Line, id uuid.UUID) int {
	for i := range lines {
		if lines[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneLines(lines []Line) []Line {
	if len(lines) == 0 {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func dropLine(lines []Line, idx int) []Line {
	out := make([]Line, 0, len(lines)-1)
	out = append(out, lines[:idx]...)
	return append(out, lines[idx+1:]...)
}
