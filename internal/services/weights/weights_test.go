package weights

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rebalancer/internal/domain"
)

type fakeCapSource struct {
	listings    []domain.CoinListing
	listingsErr error
	quotes      map[int64]domain.MarketCapQuote
	quoteErr    error
}

func (f *fakeCapSource) Listings(context.Context) ([]domain.CoinListing, error) {
	return f.listings, f.listingsErr
}

func (f *fakeCapSource) Quote(_ context.Context, id int64, _ string) (domain.MarketCapQuote, error) {
	if f.quoteErr != nil {
		return domain.MarketCapQuote{}, f.quoteErr
	}
	return f.quotes[id], nil
}

func trackedCoins() map[string]domain.Coin {
	return map[string]domain.Coin{
		"BTC": {Symbol: "BTC", Name: "Bitcoin"},
		"ETH": {Symbol: "ETH", Name: "Ethereum"},
		"LTC": {Symbol: "LTC", Name: "Litecoin"},
	}
}

func TestComputeWeightsNormalizes(t *testing.T) {
	source := &fakeCapSource{
		listings: []domain.CoinListing{
			{ID: 1, Symbol: "BTC"},
			{ID: 2, Symbol: "ETH"},
			{ID: 3, Symbol: "LTC"},
			{ID: 4, Symbol: "XRP"},
		},
		quotes: map[int64]domain.MarketCapQuote{
			1: {MarketCap: decimal.NewFromInt(600)},
			2: {MarketCap: decimal.NewFromInt(300)},
			3: {MarketCap: decimal.NewFromInt(100)},
		},
	}

	oracle := New(zap.NewNop(), source)
	weights, err := oracle.ComputeWeights(context.Background(), trackedCoins(), "USD")
	require.NoError(t, err)
	require.Len(t, weights, 3)

	assert.Equal(t, "0.6000", weights["BTC"].StringFixed(4))
	assert.Equal(t, "0.3000", weights["ETH"].StringFixed(4))
	assert.Equal(t, "0.1000", weights["LTC"].StringFixed(4))

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	assert.True(t, sum.Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -9)),
		"weights sum to %s, want 1", sum)
}

func TestComputeWeightsMissingListingFailsRun(t *testing.T) {
	source := &fakeCapSource{
		listings: []domain.CoinListing{
			{ID: 1, Symbol: "BTC"},
			{ID: 2, Symbol: "ETH"},
		},
		quotes: map[int64]domain.MarketCapQuote{
			1: {MarketCap: decimal.NewFromInt(600)},
			2: {MarketCap: decimal.NewFromInt(300)},
		},
	}

	oracle := New(zap.NewNop(), source)
	_, err := oracle.ComputeWeights(context.Background(), trackedCoins(), "USD")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestComputeWeightsSourceErrorsFailRun(t *testing.T) {
	oracle := New(zap.NewNop(), &fakeCapSource{listingsErr: errors.New("boom")})
	_, err := oracle.ComputeWeights(context.Background(), trackedCoins(), "USD")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)

	oracle = New(zap.NewNop(), &fakeCapSource{
		listings: []domain.CoinListing{
			{ID: 1, Symbol: "BTC"},
			{ID: 2, Symbol: "ETH"},
			{ID: 3, Symbol: "LTC"},
		},
		quoteErr: errors.New("boom"),
	})
	_, err = oracle.ComputeWeights(context.Background(), trackedCoins(), "USD")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestComputeWeightsRejectsNonPositiveMarketCap(t *testing.T) {
	source := &fakeCapSource{
		listings: []domain.CoinListing{
			{ID: 1, Symbol: "BTC"},
			{ID: 2, Symbol: "ETH"},
			{ID: 3, Symbol: "LTC"},
		},
		quotes: map[int64]domain.MarketCapQuote{
			1: {MarketCap: decimal.NewFromInt(600)},
			2: {MarketCap: decimal.Zero},
			3: {MarketCap: decimal.NewFromInt(100)},
		},
	}

	oracle := New(zap.NewNop(), source)
	_, err := oracle.ComputeWeights(context.Background(), trackedCoins(), "USD")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}
