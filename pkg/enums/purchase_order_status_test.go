package enums

import "testing"

func TestPurchaseOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    PurchaseOrderStatus
		to      PurchaseOrderStatus
		allowed bool
	}{
		{PurchaseOrderStatusDraft, PurchaseOrderStatusSubmitted, true},
		{PurchaseOrderStatusDraft, PurchaseOrderStatusCancelled, true},
		{PurchaseOrderStatusDraft, PurchaseOrderStatusReceived, false},
		{PurchaseOrderStatusSubmitted, PurchaseOrderStatusConfirmed, true},
		{PurchaseOrderStatusSubmitted, PurchaseOrderStatusDraft, false},
		{PurchaseOrderStatusConfirmed, PurchaseOrderStatusPartiallyReceived, true},
		{PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusReceived, true},
		{PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusCancelled, false},
		{PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled, false},
		{PurchaseOrderStatusCancelled, PurchaseOrderStatusSubmitted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestPurchaseOrderStatusTerminal(t *testing.T) {
	if !PurchaseOrderStatusReceived.IsTerminal() || !PurchaseOrderStatusCancelled.IsTerminal() {
		t.Fatal("received and cancelled should be terminal")
	}
	if PurchaseOrderStatusDraft.IsTerminal() {
		t.Fatal("draft should not be terminal")
	}
}

func TestParsePurchaseOrderStatus(t *testing.T) {
	status, err := ParsePurchaseOrderStatus("submitted")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if status != PurchaseOrderStatusSubmitted {
		t.Fatalf("expected submitted, got %s", status)
	}
	if _, err := ParsePurchaseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestCurrencyHelpers(t *testing.T) {
	if !CurrencyTZS.IsBase() {
		t.Fatal("TZS should be the base currency")
	}
	if CurrencyUSD.IsBase() {
		t.Fatal("USD should not be the base currency")
	}
	if _, err := ParseCurrency("XYZ"); err == nil {
		t.Fatal("expected error for unknown currency")
	}
	if CurrencyUSD.Symbol() != "$" {
		t.Fatalf("unexpected USD symbol %q", CurrencyUSD.Symbol())
	}
}

func TestStockStatusFor(t *testing.T) {
	if got := StockStatusFor(0, 5); got != StockStatusOutOfStock {
		t.Fatalf("expected out_of_stock, got %s", got)
	}
	if got := StockStatusFor(3, 5); got != StockStatusLow {
		t.Fatalf("expected low, got %s", got)
	}
	if got := StockStatusFor(50, 5); got != StockStatusInStock {
		t.Fatalf("expected in_stock, got %s", got)
	}
}
