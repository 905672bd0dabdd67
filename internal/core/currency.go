package core

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencySymbols = map[Currency]string{
	CurrencyUSD: "$",
	CurrencyEUR: "€",
}

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatAmount renders a monetary amount as a display string, e.g. "$1,234.50".
// It is the single source of truth for money display: the PDF renderer, email
// templates and the JSON API all go through it so the channels never drift.
func FormatAmount(amount decimal.Decimal, cur Currency) string {
	f, _ := amount.Float64()
	sym := currencySymbols[cur]
	if sym == "" {
		sym = string(cur) + " "
	}
	return sym + displayPrinter.Sprintf("%v",
		number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
