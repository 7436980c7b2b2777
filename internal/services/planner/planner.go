// Package planner apportions a spendable fiat budget across coins that sit
// below their target allocation.
package planner

import (
	"github.com/shopspring/decimal"

	"rebalancer/internal/domain"
)

// Plan compares fiat-valued holdings against target weights and returns the
// fiat amount to buy per coin. Underweight coins split the budget in proportion
// to their shortfall, overweight coins get zero. Every per-coin amount is
// floored to the fiat minor unit, so the sum never exceeds spendable.
func Plan(holdings, weights map[string]decimal.Decimal, spendable decimal.Decimal) map[string]decimal.Decimal {
	total := decimal.Zero
	for _, v := range holdings {
		total = total.Add(v)
	}

	deltas := make(map[string]decimal.Decimal, len(weights))
	positiveSum := decimal.Zero
	for coin, weight := range weights {
		target := total.Mul(weight)
		delta := target.Sub(holdings[coin]).Round(2)
		deltas[coin] = delta
		if delta.IsPositive() {
			positiveSum = positiveSum.Add(delta)
		}
	}

	amounts := make(map[string]decimal.Decimal, len(weights))
	for coin, delta := range deltas {
		if positiveSum.IsZero() || !delta.IsPositive() {
			amounts[coin] = decimal.Zero
			continue
		}
		amounts[coin] = domain.FloorCents(delta.Div(positiveSum).Mul(spendable))
	}

	return amounts
}
