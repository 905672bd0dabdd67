package core_test

import (
	"testing"

	"invoice-marshal/internal/core"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		cur    core.Currency
		want   string
	}{
		{"usd with grouping", "1234.50", core.CurrencyUSD, "$1,234.50"},
		{"usd whole number pads cents", "5", core.CurrencyUSD, "$5.00"},
		{"eur", "99.90", core.CurrencyEUR, "€99.90"},
		{"zero", "0", core.CurrencyUSD, "$0.00"},
		{"large", "1000000", core.CurrencyUSD, "$1,000,000.00"},
		{"unknown currency falls back to code", "10", core.Currency("GBP"), "GBP 10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.FormatAmount(d(tt.amount), tt.cur)
			if got != tt.want {
				t.Errorf("FormatAmount(%s, %s) = %q, want %q", tt.amount, tt.cur, got, tt.want)
			}
		})
	}
}

func TestCurrencyValid(t *testing.T) {
	if !core.CurrencyUSD.Valid() || !core.CurrencyEUR.Valid() {
		t.Error("expected USD and EUR to be valid")
	}
	if core.Currency("JPY").Valid() {
		t.Error("expected JPY to be invalid")
	}
	if core.Currency("").Valid() {
		t.Error("expected empty currency to be invalid")
	}
}
