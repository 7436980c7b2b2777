package domain

import "github.com/shopspring/decimal"

var cents = decimal.NewFromInt(100)

// FloorCents floors a fiat value to its minor unit (two decimal places).
// Flooring, never rounding, so derived amounts cannot exceed their source.
func FloorCents(v decimal.Decimal) decimal.Decimal {
	return v.Mul(cents).Floor().Div(cents)
}
