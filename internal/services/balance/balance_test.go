package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rebalancer/internal/domain"
)

func coins() map[string]domain.Coin {
	return map[string]domain.Coin{
		"BTC": {Symbol: "BTC", Name: "Bitcoin"},
		"ETH": {Symbol: "ETH", Name: "Ethereum", ExternalBalance: decimal.NewFromInt(2)},
	}
}

func TestFiatHoldingsMergesAllSources(t *testing.T) {
	accounts := []domain.Account{
		{Currency: "USD", Balance: decimal.NewFromInt(150)},
		{Currency: "BTC", Balance: decimal.NewFromInt(1)},
		{Currency: "ETH", Balance: decimal.NewFromInt(3)},
	}
	withdrawn := map[string]decimal.Decimal{
		"BTC": decimal.NewFromFloat(0.5),
	}
	prices := map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(1000),
		"ETH": decimal.NewFromInt(100),
	}

	holdings, err := FiatHoldings("USD", coins(), accounts, withdrawn, prices)
	require.NoError(t, err)

	// fiat is the raw balance, not multiplied by anything
	assert.Equal(t, "150.00", holdings["USD"].StringFixed(2))
	// (1 on exchange + 0.5 withdrawn) * 1000
	assert.Equal(t, "1500.00", holdings["BTC"].StringFixed(2))
	// (3 on exchange + 2 external) * 100
	assert.Equal(t, "500.00", holdings["ETH"].StringFixed(2))
}

func TestFiatHoldingsDefaultsMissingAccountsToZero(t *testing.T) {
	accounts := []domain.Account{
		{Currency: "USD", Balance: decimal.NewFromInt(50)},
	}
	prices := map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(1000),
		"ETH": decimal.NewFromInt(100),
	}

	holdings, err := FiatHoldings("USD", coins(), accounts, nil, prices)
	require.NoError(t, err)

	assert.True(t, holdings["BTC"].IsZero())
	// external balances are part of the portfolio even with no exchange account
	assert.Equal(t, "200.00", holdings["ETH"].StringFixed(2))
}

func TestFiatHoldingsMissingPriceIsFatal(t *testing.T) {
	accounts := []domain.Account{
		{Currency: "USD", Balance: decimal.NewFromInt(50)},
		{Currency: "BTC", Balance: decimal.NewFromInt(1)},
	}
	prices := map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(1000),
		// ETH price missing
	}

	_, err := FiatHoldings("USD", coins(), accounts, nil, prices)
	require.ErrorIs(t, err, domain.ErrPriceUnavailable)

	prices["ETH"] = decimal.Zero
	_, err = FiatHoldings("USD", coins(), accounts, nil, prices)
	require.ErrorIs(t, err, domain.ErrPriceUnavailable)
}
