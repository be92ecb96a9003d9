package enums

import "fmt"

// Currency represents the monetary denominations purchase orders can be
// priced in. TZS is the organization's home-ledger currency; every other
// currency converts to it through a manually supplied exchange rate.
type Currency string

const (
	CurrencyTZS Currency = "TZS"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyAED Currency = "AED"
	CurrencyCNY Currency = "CNY"
	CurrencyKES Currency = "KES"
)

// BaseCurrency is the ledger currency all totals convert into.
const BaseCurrency = CurrencyTZS

var validCurrencies = []Currency{
	CurrencyTZS,
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyAED,
	CurrencyCNY,
	CurrencyKES,
}

var currencySymbols = map[Currency]string{
	CurrencyTZS: "TSh",
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyGBP: "£",
	CurrencyAED: "د.إ",
	CurrencyCNY: "¥",
	CurrencyKES: "KSh",
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsBase reports whether the currency is the home-ledger currency.
func (c Currency) IsBase() bool {
	return c == BaseCurrency
}

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	if sym, ok := currencySymbols[c]; ok {
		return sym
	}
	return string(c)
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
