// Package config loads the rebalancer configuration from a YAML file with
// flag overrides.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"rebalancer/internal/domain"
)

const (
	ModeBuy     = "buy"
	ModeDeposit = "deposit"
)

// CoinConfig is the per-coin configuration surface.
type CoinConfig struct {
	Name              string
	WithdrawalAddress string
	ExternalBalance   decimal.Decimal
}

// Config is the full, validated configuration of one run.
type Config struct {
	Mode string

	APIURL        string
	APIKey        string
	APISecret     string
	APIPassphrase string

	FiatCurrency string
	Coins        map[string]CoinConfig

	StartingDiscount decimal.Decimal
	DiscountStep     decimal.Decimal
	OrderCount       int

	// WithdrawalAmount fiat floor: at or below it the run sweeps coins to
	// external addresses instead of buying.
	WithdrawalAmount  decimal.Decimal
	DustThreshold     decimal.Decimal
	WithdrawPrecision int32

	MaxRetries int
	JournalDir string

	// deposit mode only
	DepositAmount   decimal.Decimal
	PaymentMethodID string
}

type coinTmp struct {
	Name              string `yaml:"name"`
	WithdrawalAddress string `yaml:"withdrawal_address,omitempty"`
	ExternalBalance   string `yaml:"external_balance,omitempty"`
}

type configTmp struct {
	Mode string `yaml:"mode"`

	APIURL        string `yaml:"api_url,omitempty"`
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
	APIPassphrase string `yaml:"api_passphrase"`

	FiatCurrency string             `yaml:"fiat_currency,omitempty"`
	Coins        map[string]coinTmp `yaml:"coins,omitempty"`

	StartingDiscount string `yaml:"starting_discount,omitempty"`
	DiscountStep     string `yaml:"discount_step,omitempty"`
	OrderCount       int    `yaml:"order_count,omitempty"`

	WithdrawalAmount  string `yaml:"withdrawal_amount,omitempty"`
	DustThreshold     string `yaml:"dust_threshold,omitempty"`
	WithdrawPrecision int32  `yaml:"withdraw_precision,omitempty"`

	MaxRetries int    `yaml:"max_retries,omitempty"`
	JournalDir string `yaml:"journal_dir,omitempty"`

	DepositAmount   string `yaml:"deposit_amount,omitempty"`
	PaymentMethodID string `yaml:"payment_method_id,omitempty"`
}

// Get parses flags and loads the YAML config. The -mode flag overrides the
// mode from the file.
func Get() (Config, error) {
	path := flag.String("config", "config.yaml", "path to yaml config")
	mode := flag.String("mode", "", "run mode (buy or deposit), overrides config")
	flag.Parse()

	cfg, err := getYaml(*path)
	if err != nil {
		return Config{}, err
	}
	if *mode != "" {
		cfg.Mode = *mode
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	cfg := Config{
		Mode:              tmp.Mode,
		APIURL:            tmp.APIURL,
		APIKey:            tmp.APIKey,
		APISecret:         tmp.APISecret,
		APIPassphrase:     tmp.APIPassphrase,
		FiatCurrency:      tmp.FiatCurrency,
		OrderCount:        tmp.OrderCount,
		WithdrawPrecision: tmp.WithdrawPrecision,
		MaxRetries:        tmp.MaxRetries,
		JournalDir:        tmp.JournalDir,
		PaymentMethodID:   tmp.PaymentMethodID,
	}

	if cfg.FiatCurrency == "" {
		cfg.FiatCurrency = "USD"
	}
	if cfg.OrderCount == 0 {
		cfg.OrderCount = 5
	}
	if cfg.WithdrawPrecision == 0 {
		cfg.WithdrawPrecision = 8
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	cfg.StartingDiscount, err = parseDecimal("starting_discount", tmp.StartingDiscount, "0.005")
	if err != nil {
		return Config{}, err
	}
	cfg.DiscountStep, err = parseDecimal("discount_step", tmp.DiscountStep, "0.01")
	if err != nil {
		return Config{}, err
	}
	cfg.WithdrawalAmount, err = parseDecimal("withdrawal_amount", tmp.WithdrawalAmount, "25")
	if err != nil {
		return Config{}, err
	}
	cfg.DustThreshold, err = parseDecimal("dust_threshold", tmp.DustThreshold, "0.01")
	if err != nil {
		return Config{}, err
	}
	cfg.DepositAmount, err = parseDecimal("deposit_amount", tmp.DepositAmount, "0")
	if err != nil {
		return Config{}, err
	}

	cfg.Coins = make(map[string]CoinConfig, len(tmp.Coins))
	for symbol, c := range tmp.Coins {
		external, err := parseDecimal(fmt.Sprintf("coins.%s.external_balance", symbol), c.ExternalBalance, "0")
		if err != nil {
			return Config{}, err
		}
		cfg.Coins[symbol] = CoinConfig{
			Name:              c.Name,
			WithdrawalAddress: c.WithdrawalAddress,
			ExternalBalance:   external,
		}
	}
	if len(cfg.Coins) == 0 {
		cfg.Coins = defaultCoins()
	}

	return cfg, nil
}

// parseDecimal parses a string-typed decimal field, falling back to def when
// the field is empty.
func parseDecimal(field, raw, def string) (decimal.Decimal, error) {
	if raw == "" {
		raw = def
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(domain.ErrConfigurationInvalid, "incorrect '%s' param (must be a decimal): %v", field, err)
	}
	return v, nil
}

func defaultCoins() map[string]CoinConfig {
	return map[string]CoinConfig{
		"BTC": {Name: "Bitcoin"},
		"ETH": {Name: "Ethereum"},
		"LTC": {Name: "Litecoin"},
	}
}

func (c Config) validate() error {
	switch c.Mode {
	case ModeBuy, ModeDeposit:
	default:
		return errors.Wrapf(domain.ErrConfigurationInvalid, "unknown mode %q, want %q or %q", c.Mode, ModeBuy, ModeDeposit)
	}

	if c.APIKey == "" || c.APISecret == "" || c.APIPassphrase == "" {
		return errors.Wrap(domain.ErrConfigurationInvalid, "api_key, api_secret and api_passphrase are required")
	}

	if c.Mode == ModeDeposit {
		if !c.DepositAmount.IsPositive() {
			return errors.Wrap(domain.ErrConfigurationInvalid, "deposit mode requires a positive 'deposit_amount'")
		}
		if c.PaymentMethodID == "" {
			return errors.Wrap(domain.ErrConfigurationInvalid, "deposit mode requires 'payment_method_id'")
		}
	}

	if c.OrderCount < 1 {
		return errors.Wrap(domain.ErrConfigurationInvalid, "'order_count' must be at least 1")
	}
	if c.StartingDiscount.IsNegative() || c.DiscountStep.IsNegative() {
		return errors.Wrap(domain.ErrConfigurationInvalid, "'starting_discount' and 'discount_step' must not be negative")
	}

	return nil
}
