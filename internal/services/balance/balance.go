// Package balance merges exchange, external and journal-recorded balances into
// one fiat-valued holding per tracked coin.
package balance

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"rebalancer/internal/domain"
)

// FiatHoldings values the whole portfolio in fiat. The fiat currency row is the
// raw account balance; every coin row is
// (exchange balance + external balance + journaled withdrawn total) * price.
// Coins absent from the account list default to a zero exchange balance, but a
// coin without a positive price is a fatal condition: valuing it at zero would
// mask it as permanently underweight.
func FiatHoldings(fiat string, coins map[string]domain.Coin, accounts []domain.Account,
	withdrawn map[string]decimal.Decimal, prices map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {

	balances := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		balances[a.Currency] = a.Balance
	}

	holdings := make(map[string]decimal.Decimal, len(coins)+1)
	holdings[fiat] = balances[fiat]

	for symbol, coin := range coins {
		price, ok := prices[symbol]
		if !ok || !price.IsPositive() {
			return nil, errors.Wrapf(domain.ErrPriceUnavailable, "cannot value %s holdings", symbol)
		}

		total := balances[symbol].Add(coin.ExternalBalance).Add(withdrawn[symbol])
		holdings[symbol] = total.Mul(price)
	}

	return holdings, nil
}
