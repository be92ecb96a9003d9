package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jasirilabs/lats-backend/pkg/enums"
)

var basePrinter = message.NewPrinter(language.English)

// LineTotal computes quantity × unit cost.
func LineTotal(quantity int, costPrice decimal.Decimal) decimal.Decimal {
	return costPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// ApplyTax returns amount × rate.
func ApplyTax(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}

// ToBase converts an amount to the home-ledger currency using the manually
// supplied exchange rate. The base currency carries no minor units, so the
// converted amount is rounded half away from zero to whole units at this
// boundary only; display formatting never feeds back into stored amounts.
func ToBase(amount decimal.Decimal, currency enums.Currency, exchangeRate decimal.Decimal) decimal.Decimal {
	if currency.IsBase() {
		return amount
	}
	return amount.Mul(exchangeRate).Round(0)
}

// Format renders an amount for display. The base currency formats as a
// grouped integer without decimal places; every other currency is
// symbol-prefixed with two decimals.
func Format(amount decimal.Decimal, currency enums.Currency) string {
	if currency.IsBase() {
		return basePrinter.Sprintf("%s %d", currency.Symbol(), amount.Round(0).IntPart())
	}
	return fmt.Sprintf("%s%s", currency.Symbol(), amount.StringFixed(2))
}

// FormatMargin renders a profit margin percentage with one decimal place.
func FormatMargin(margin decimal.Decimal) string {
	return margin.StringFixed(1) + "%"
}
