// Package money formats and sums prices.
package money

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders an amount with thousand separators, "2500" -> "2,500".
// Fractions are kept to two places when present.
func Format(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return printer.Sprintf("%d", amount.IntPart())
	}
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%.2f", f)
}

// Line returns price x quantity
func Line(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Sum adds amounts
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Number renders an amount as a bare JSON number, the way the backend sends
// and expects prices. decimal.Decimal alone marshals to a quoted string.
func Number(amount decimal.Decimal) json.Number {
	return json.Number(amount.String())
}

// NumberPtr is Number for an optional amount
func NumberPtr(amount *decimal.Decimal) *json.Number {
	if amount == nil {
		return nil
	}
	n := Number(*amount)
	return &n
}
