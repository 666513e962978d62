package model

import "github.com/shopspring/decimal"

// MinorUnitPlaces is the number of decimal places of the settlement currency.
const MinorUnitPlaces = 2

// Round2 rounds an amount to currency minor units (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(MinorUnitPlaces) }

// MaxZero clamps negative amounts to zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Percent returns amount * pct / 100 rounded to minor units.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(decimal.NewFromInt(100)))
}
