// Package weights computes target allocation weights from market
// capitalization data.
package weights

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rebalancer/internal/domain"
)

type capSource interface {
	Listings(ctx context.Context) ([]domain.CoinListing, error)
	Quote(ctx context.Context, id int64, fiat string) (domain.MarketCapQuote, error)
}

// Oracle converts external market-capitalization data into normalized target
// weights. It performs one listings fetch plus one quote fetch per coin, so it
// must be called at most once per run.
type Oracle struct {
	source capSource
	logger *zap.Logger
}

// New returns an Oracle backed by the given market-cap source.
func New(logger *zap.Logger, source capSource) *Oracle {
	return &Oracle{source: source, logger: logger}
}

// ComputeWeights returns weight = market_cap(coin) / sum(market_cap) for every
// tracked coin. Any source failure, missing listing or non-positive market cap
// fails the whole computation: rebalancing against partial data would silently
// skew every target.
func (o *Oracle) ComputeWeights(ctx context.Context, coins map[string]domain.Coin, fiat string) (map[string]decimal.Decimal, error) {
	listings, err := o.source.Listings(ctx)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "fetch listings: %v", err)
	}

	ids := make(map[string]int64, len(listings))
	for _, l := range listings {
		ids[l.Symbol] = l.ID
	}

	symbols := lo.Keys(coins)
	sort.Strings(symbols)

	caps := make(map[string]decimal.Decimal, len(coins))
	total := decimal.Zero
	for _, symbol := range symbols {
		id, ok := ids[symbol]
		if !ok {
			return nil, errors.Wrapf(domain.ErrDataUnavailable, "no listing for %s (%s)", symbol, coins[symbol].Name)
		}

		quote, err := o.source.Quote(ctx, id, fiat)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrDataUnavailable, "fetch quote for %s: %v", symbol, err)
		}
		if !quote.MarketCap.IsPositive() {
			return nil, errors.Wrapf(domain.ErrDataUnavailable, "non-positive market cap for %s", symbol)
		}

		caps[symbol] = quote.MarketCap
		total = total.Add(quote.MarketCap)
	}

	weights := make(map[string]decimal.Decimal, len(coins))
	for _, symbol := range symbols {
		weights[symbol] = caps[symbol].Div(total)
		o.logger.Info("coin weight",
			zap.String("coin", symbol),
			zap.String("weight", weights[symbol].StringFixed(4)))
	}

	return weights, nil
}
