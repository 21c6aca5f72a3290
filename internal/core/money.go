package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL formats an amount as Brazilian reais, e.g. "R$ 1.234,56".
//
// The value is rounded with RoundCurrencyValue first so that displayed
// amounts match the stored ones.
func FormatBRL(amount float64) string {
	d := decimal.NewFromFloat(RoundCurrencyValue(amount))
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	fixed := d.StringFixed(2) // "1234.56"
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := "R$ " + b.String() + "," + frac
	if neg {
		return "-" + s
	}
	return s
}

// DecimalAmount converts an amount into a two-place decimal for export.
func DecimalAmount(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(RoundCurrencyValue(amount)).Round(2)
}
