// Package domain defines core data structures used throughout the rebalancer.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultMinimumOrderSize is used when exchange product metadata does not
// report a minimum order size for a coin.
var DefaultMinimumOrderSize = decimal.NewFromFloat(0.01)

// Coin is a tracked asset: its configuration plus exchange product metadata.
type Coin struct {
	// Symbol exchange currency symbol, unique key (e.g. BTC).
	Symbol string
	// Name display name (e.g. Bitcoin).
	Name string
	// MinimumOrderSize smallest tradable size, filled from product metadata.
	MinimumOrderSize decimal.Decimal
	// ExternalBalance holding kept outside the exchange, configured manually.
	ExternalBalance decimal.Decimal
	// WithdrawalAddress destination for sweeps, empty means never withdraw.
	WithdrawalAddress string
}

// ProductID returns the exchange product identifier for the coin quoted in fiat.
func (c Coin) ProductID(fiat string) string {
	return fmt.Sprintf("%s-%s", c.Symbol, fiat)
}

// MinOrderSize returns the known minimum order size or the conservative default.
func (c Coin) MinOrderSize() decimal.Decimal {
	if c.MinimumOrderSize.IsPositive() {
		return c.MinimumOrderSize
	}
	return DefaultMinimumOrderSize
}
