package domain

import "github.com/shopspring/decimal"

// LadderRung is a single discounted limit order within a buy ladder.
type LadderRung struct {
	// Price discounted limit price, floored to the fiat minor unit.
	Price decimal.Decimal
	// Size order size in base currency units.
	Size decimal.Decimal
}

// Notional returns the fiat cost of the rung.
func (r LadderRung) Notional() decimal.Decimal {
	return r.Price.Mul(r.Size)
}
