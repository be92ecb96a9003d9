package cart

import (
	"github.com/shopspring/decimal"

	"github.com/jasirilabs/lats-backend/pkg/money"
)

// Totals is the derived monetary summary of a cart state. Every field is
// recomputable from the lines alone; nothing accumulates between calls.
type Totals struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	TotalInBase decimal.Decimal
}

// Totals derives the order totals for the state. Conversion to the base
// currency multiplies by the state's exchange rate and rounds at that
// boundary only.
func (e *Engine) Totals(state State) Totals {
	subtotal := decimal.Zero
	for i := range state.Lines {
		subtotal = subtotal.Add(state.Lines[i].TotalPrice)
	}

	tax := money.ApplyTax(subtotal, e.cfg.TaxRate)

	discount := state.Discount
	if discount.IsZero() {
		discount = decimal.Zero
	}

	total := subtotal.Add(tax).Sub(discount)

	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    discount,
		Total:       total,
		TotalInBase: money.ToBase(total, state.Currency, state.ExchangeRate),
	}
}
