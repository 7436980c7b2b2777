package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rebalancer/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetYamlDefaults(t *testing.T) {
	path := writeConfig(t, `
mode: buy
api_key: key
api_secret: secret
api_passphrase: pass
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	assert.Equal(t, "USD", cfg.FiatCurrency)
	assert.Equal(t, 5, cfg.OrderCount)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, int32(8), cfg.WithdrawPrecision)
	assert.Equal(t, "0.005", cfg.StartingDiscount.String())
	assert.Equal(t, "0.01", cfg.DiscountStep.String())
	assert.Equal(t, "25", cfg.WithdrawalAmount.String())
	assert.Equal(t, "0.01", cfg.DustThreshold.String())

	require.Len(t, cfg.Coins, 3)
	assert.Equal(t, "Bitcoin", cfg.Coins["BTC"].Name)
}

func TestGetYamlCoins(t *testing.T) {
	path := writeConfig(t, `
mode: buy
api_key: key
api_secret: secret
api_passphrase: pass
coins:
  BTC:
    name: Bitcoin
    withdrawal_address: bc1qexample
    external_balance: "1.5"
  XLM:
    name: Stellar
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)

	require.Len(t, cfg.Coins, 2)
	assert.Equal(t, "bc1qexample", cfg.Coins["BTC"].WithdrawalAddress)
	assert.Equal(t, "1.5", cfg.Coins["BTC"].ExternalBalance.String())
	assert.True(t, cfg.Coins["XLM"].ExternalBalance.IsZero())
}

func TestGetYamlRejectsBadDecimal(t *testing.T) {
	path := writeConfig(t, `
mode: buy
api_key: key
api_secret: secret
api_passphrase: pass
starting_discount: "half a percent"
`)

	_, err := getYaml(path)
	require.ErrorIs(t, err, domain.ErrConfigurationInvalid)
}

func TestValidateDepositMode(t *testing.T) {
	path := writeConfig(t, `
mode: deposit
api_key: key
api_secret: secret
api_passphrase: pass
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)
	require.ErrorIs(t, cfg.validate(), domain.ErrConfigurationInvalid)

	cfg.DepositAmount = cfg.WithdrawalAmount // any positive amount
	require.ErrorIs(t, cfg.validate(), domain.ErrConfigurationInvalid,
		"payment method still missing")

	cfg.PaymentMethodID = "pm-1"
	require.NoError(t, cfg.validate())
}

func TestValidateMode(t *testing.T) {
	path := writeConfig(t, `
mode: hodl
api_key: key
api_secret: secret
api_passphrase: pass
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)
	require.ErrorIs(t, cfg.validate(), domain.ErrConfigurationInvalid)
}

func TestValidateRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `
mode: buy
api_key: key
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)
	require.ErrorIs(t, cfg.validate(), domain.ErrConfigurationInvalid)
}
