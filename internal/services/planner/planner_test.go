package planner

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSplitsBudgetByShortfall(t *testing.T) {
	holdings := map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1000),
		"BTC": decimal.Zero,
		"ETH": decimal.Zero,
	}
	weights := map[string]decimal.Decimal{
		"BTC": decimal.NewFromFloat(0.7),
		"ETH": decimal.NewFromFloat(0.3),
	}

	amounts := Plan(holdings, weights, decimal.NewFromInt(1000))

	assert.Equal(t, "700.00", amounts["BTC"].StringFixed(2))
	assert.Equal(t, "300.00", amounts["ETH"].StringFixed(2))
}

func TestPlanOverweightCoinGetsNothing(t *testing.T) {
	holdings := map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(100),
		"BTC": decimal.NewFromInt(500),
		"ETH": decimal.Zero,
	}
	weights := map[string]decimal.Decimal{
		"BTC": decimal.NewFromFloat(0.5),
		"ETH": decimal.NewFromFloat(0.5),
	}

	amounts := Plan(holdings, weights, decimal.NewFromInt(100))

	assert.True(t, amounts["BTC"].IsZero(), "overweight coin got %s", amounts["BTC"])
	assert.Equal(t, "100.00", amounts["ETH"].StringFixed(2))
}

func TestPlanNoShortfallMeansNoPurchases(t *testing.T) {
	holdings := map[string]decimal.Decimal{
		"USD": decimal.Zero,
		"BTC": decimal.NewFromInt(100),
		"ETH": decimal.NewFromInt(100),
	}
	weights := map[string]decimal.Decimal{
		"BTC": decimal.NewFromFloat(0.5),
		"ETH": decimal.NewFromFloat(0.5),
	}

	amounts := Plan(holdings, weights, decimal.NewFromInt(50))

	require.Len(t, amounts, 2)
	for coin, amount := range amounts {
		assert.True(t, amount.IsZero(), "%s got %s without a shortfall", coin, amount)
	}
}

func TestPlanNeverExceedsSpendable(t *testing.T) {
	third := decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	holdings := map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(10),
		"BTC": decimal.Zero,
		"ETH": decimal.Zero,
		"LTC": decimal.Zero,
	}
	weights := map[string]decimal.Decimal{
		"BTC": third,
		"ETH": third,
		"LTC": third,
	}
	spendable := decimal.NewFromInt(10)

	amounts := Plan(holdings, weights, spendable)

	sum := decimal.Zero
	for _, amount := range amounts {
		assert.True(t, amount.Equal(amount.Round(2)), "amount %s not floored to cents", amount)
		sum = sum.Add(amount)
	}
	assert.True(t, sum.LessThanOrEqual(spendable), "planned %s out of %s", sum, spendable)
}
