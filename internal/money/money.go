// Package money formats and converts fixed-point amounts.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Format renders an amount with space-separated thousands, a comma before the
// two fractional digits and the currency suffix. Whole amounts omit the fraction.
func Format(amount decimal.Decimal, suffix string) string {
	amount = amount.Round(2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	whole := amount.Truncate(0)
	out := sign + groupThousands(whole.String())
	if !amount.Equal(whole) {
		fixed := amount.StringFixed(2)
		out += "," + fixed[len(fixed)-2:]
	}
	if suffix != "" {
		out += " " + suffix
	}
	return out
}

// MinorUnits converts an amount to the smallest currency unit (cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// Percent returns part/total*100 rounded to two decimals, or zero when total is zero.
func Percent(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(hundred).DivRound(decimal.NewFromInt(total), 2)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
