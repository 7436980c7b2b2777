// Package ladder converts a per-coin fiat budget into a discount-laddered set
// of limit orders whose total cost never exceeds the budget.
package ladder

import (
	"github.com/shopspring/decimal"

	"rebalancer/internal/domain"
)

// minBuyAmount budgets at or below one cent are not worth an order.
var minBuyAmount = decimal.NewFromFloat(0.01)

// Generate splits amountToBuy across up to orderCount limit orders, each priced
// one discountStep deeper below market than the previous one. The rung count is
// capped so every order still clears the exchange minimum size, and the per-rung
// budget is floored to the fiat minor unit once so the split is deterministic.
//
// Generate is a pure function: identical inputs yield identical ladders.
func Generate(amountToBuy, price, minOrderSize decimal.Decimal, orderCount int,
	startingDiscount, discountStep decimal.Decimal) []domain.LadderRung {

	if amountToBuy.LessThanOrEqual(minBuyAmount) || !price.IsPositive() {
		return nil
	}
	if !minOrderSize.IsPositive() {
		minOrderSize = domain.DefaultMinimumOrderSize
	}

	n := int64(orderCount)
	affordable := amountToBuy.Div(minOrderSize.Mul(price)).Floor().IntPart()
	if affordable < 1 {
		affordable = 1
	}
	if affordable < n {
		n = affordable
	}
	if n < 1 {
		n = 1
	}

	perOrder := domain.FloorCents(amountToBuy.Div(decimal.NewFromInt(n)))

	discount := decimal.NewFromInt(1).Sub(startingDiscount)
	rungs := make([]domain.LadderRung, 0, n)
	for i := int64(0); i < n; i++ {
		discountedPrice := domain.FloorCents(price.Mul(discount))
		if !discountedPrice.IsPositive() {
			break
		}
		size := perOrder.Div(discountedPrice)

		// reconcile the notional implied by price*size back against the rung
		// budget: flooring the product and re-deriving the size removes the
		// drift the first division introduced. The product is settled to 8
		// decimal places first, a quotient rounded a hair below the budget
		// must not cost a whole cent.
		orderTotal := domain.FloorCents(discountedPrice.Mul(size).Round(8))
		if orderTotal.GreaterThan(perOrder) {
			orderTotal = perOrder
		}
		size = orderTotal.Div(discountedPrice)

		rungs = append(rungs, domain.LadderRung{Price: discountedPrice, Size: size})
		discount = discount.Sub(discountStep)
	}

	return rungs
}
