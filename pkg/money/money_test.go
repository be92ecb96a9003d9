package money

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jasirilabs/lats-backend/pkg/enums"
)

func TestLineTotal(t *testing.T) {
	got := LineTotal(3, decimal.NewFromInt(1000))
	if !got.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected 3000, got %s", got)
	}
}

func TestToBaseIdentityForBaseCurrency(t *testing.T) {
	amount := decimal.NewFromInt(10000)
	got := ToBase(amount, enums.CurrencyTZS, decimal.NewFromInt(2500))
	if !got.Equal(amount) {
		t.Fatalf("base currency must be identity, got %s", got)
	}
}

func TestToBaseMultipliesByRate(t *testing.T) {
	got := ToBase(decimal.NewFromInt(10000), enums.CurrencyUSD, decimal.NewFromInt(2500))
	if !got.Equal(decimal.NewFromInt(25000000)) {
		t.Fatalf("expected 25000000, got %s", got)
	}
}

func TestToBaseRoundsToWholeUnits(t *testing.T) {
	rate, _ := decimal.NewFromString("2512.37")
	got := ToBase(decimal.NewFromFloat(10.5), enums.CurrencyUSD, rate)
	if got.Exponent() < 0 {
		t.Fatalf("expected whole units, got %s", got)
	}
	if !got.Equal(decimal.NewFromInt(26380)) {
		t.Fatalf("expected 26380, got %s", got)
	}
}

func TestFormatBaseCurrencyGroupsWithoutDecimals(t *testing.T) {
	got := Format(decimal.NewFromInt(1234567), enums.CurrencyTZS)
	if got != "TSh 1,234,567" {
		t.Fatalf("unexpected TZS format %q", got)
	}
}

func TestFormatForeignCurrencyTwoDecimals(t *testing.T) {
	got := Format(decimal.NewFromFloat(1234.5), enums.CurrencyUSD)
	if got != "$1234.50" {
		t.Fatalf("unexpected USD format %q", got)
	}
}

func TestFormatMarginOneDecimal(t *testing.T) {
	if got := FormatMargin(decimal.NewFromFloat(23.456)); got != "23.5%" {
		t.Fatalf("unexpected margin format %q", got)
	}
	if got := FormatMargin(decimal.NewFromInt(20)); got != "20.0%" {
		t.Fatalf("unexpected margin format %q", got)
	}
}
