package internal

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rebalancer/config"
	"rebalancer/internal/domain"
	"rebalancer/internal/services/balance"
	"rebalancer/internal/services/ladder"
	"rebalancer/internal/services/planner"
	"rebalancer/internal/services/withdrawer"
)

// Exchange is the venue the rebalancer trades against.
type Exchange interface {
	Accounts(ctx context.Context) ([]domain.Account, error)
	Products(ctx context.Context) ([]domain.Product, error)
	Ticker(ctx context.Context, productID string) (domain.Ticker, error)
	PlaceLimitBuy(ctx context.Context, order domain.LimitBuy) (domain.OrderResult, error)
	CancelAll(ctx context.Context, productID string) error
	Withdraw(ctx context.Context, amount decimal.Decimal, currency, address string) (domain.WithdrawalResult, error)
	Deposit(ctx context.Context, paymentMethodID string, amount decimal.Decimal, currency string) (domain.DepositResult, error)
}

// WeightSource computes target allocation weights per coin.
type WeightSource interface {
	ComputeWeights(ctx context.Context, coins map[string]domain.Coin, fiat string) (map[string]decimal.Decimal, error)
}

// Journal is the durable record of confirmed exchange actions.
type Journal interface {
	RecordOrder(rec domain.OrderRecord) error
	RecordDeposit(rec domain.DepositRecord) error
	RecordWithdrawal(rec domain.WithdrawalRecord) error
	WithdrawnTotals() (map[string]decimal.Decimal, error)
}

// Rebalancer executes one full rebalance-or-deposit cycle against the
// exchange. One logical run per process invocation, all calls sequential;
// overlapping invocations against the same journal must be serialized by the
// caller's scheduling.
type Rebalancer struct {
	cfg        config.Config
	exchange   Exchange
	weights    WeightSource
	journal    Journal
	withdrawer *withdrawer.Withdrawer
	logger     *zap.Logger
	coins      map[string]domain.Coin
}

// NewRebalancer wires a Rebalancer from its collaborators.
func NewRebalancer(cfg config.Config, logger *zap.Logger, exchange Exchange, weights WeightSource, journal Journal) *Rebalancer {
	coins := make(map[string]domain.Coin, len(cfg.Coins))
	for symbol, cc := range cfg.Coins {
		coins[symbol] = domain.Coin{
			Symbol:            symbol,
			Name:              cc.Name,
			ExternalBalance:   cc.ExternalBalance,
			WithdrawalAddress: cc.WithdrawalAddress,
		}
	}

	return &Rebalancer{
		cfg:        cfg,
		exchange:   exchange,
		weights:    weights,
		journal:    journal,
		withdrawer: withdrawer.New(logger, exchange, journal, cfg.DustThreshold, cfg.WithdrawPrecision),
		logger:     logger,
		coins:      coins,
	}
}

// Run executes one cycle in the configured mode.
func (r *Rebalancer) Run(ctx context.Context) error {
	switch r.cfg.Mode {
	case config.ModeDeposit:
		return r.runDeposit(ctx)
	case config.ModeBuy:
		return r.runBuy(ctx)
	default:
		return errors.Wrapf(domain.ErrConfigurationInvalid, "unknown mode %q", r.cfg.Mode)
	}
}

func (r *Rebalancer) runDeposit(ctx context.Context) error {
	r.logger.Info("performing deposit",
		zap.String("amount", r.cfg.DepositAmount.String()),
		zap.String("currency", r.cfg.FiatCurrency))

	result, err := r.exchange.Deposit(ctx, r.cfg.PaymentMethodID, r.cfg.DepositAmount, r.cfg.FiatCurrency)
	if err != nil {
		return errors.Wrap(err, "deposit request failed")
	}
	if result.ID == "" {
		r.logger.Warn("deposit rejected by exchange")
		return nil
	}

	rec := domain.DepositRecord{
		DepositID:       result.ID,
		Currency:        r.cfg.FiatCurrency,
		Amount:          r.cfg.DepositAmount,
		PaymentMethodID: r.cfg.PaymentMethodID,
		PayoutAt:        result.PayoutAt,
	}
	if err := r.journal.RecordDeposit(rec); err != nil {
		return errors.Wrapf(err, "journal deposit %s", result.ID)
	}

	r.logger.Info("deposit recorded",
		zap.String("deposit_id", result.ID),
		zap.Time("payout_at", result.PayoutAt))
	return nil
}

func (r *Rebalancer) runBuy(ctx context.Context) error {
	r.logger.Info("starting buy cycle")

	if err := r.applyProductMetadata(ctx); err != nil {
		return err
	}

	// stale open orders would double-spend the budget computed below
	for _, symbol := range r.sortedSymbols() {
		productID := r.coins[symbol].ProductID(r.cfg.FiatCurrency)
		if err := r.exchange.CancelAll(ctx, productID); err != nil {
			return errors.Wrapf(err, "cancel open orders for %s", productID)
		}
	}

	accounts, err := r.exchange.Accounts(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch accounts")
	}

	prices, err := r.fetchPrices(ctx)
	if err != nil {
		return err
	}

	withdrawn, err := r.journal.WithdrawnTotals()
	if err != nil {
		return errors.Wrap(err, "read withdrawn totals from journal")
	}

	holdings, err := balance.FiatHoldings(r.cfg.FiatCurrency, r.coins, accounts, withdrawn, prices)
	if err != nil {
		return err
	}

	fiatAmount := holdings[r.cfg.FiatCurrency]
	if fiatAmount.GreaterThan(r.cfg.WithdrawalAmount) {
		r.logger.Info("fiat balance above withdrawal threshold, buying",
			zap.String("fiat_balance", fiatAmount.String()),
			zap.String("threshold", r.cfg.WithdrawalAmount.String()))
		return r.placeLadders(ctx, holdings, prices, fiatAmount)
	}

	r.logger.Info("fiat balance at or below withdrawal threshold, sweeping coins without buying",
		zap.String("fiat_balance", fiatAmount.String()),
		zap.String("threshold", r.cfg.WithdrawalAmount.String()))
	return r.withdrawer.Sweep(ctx, r.coins, accounts)
}

// applyProductMetadata fills every coin's minimum order size from exchange
// product metadata. Coins without a matching product keep a zero minimum and
// fall back to the conservative default at ladder time.
func (r *Rebalancer) applyProductMetadata(ctx context.Context) error {
	products, err := r.exchange.Products(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch products")
	}

	for _, p := range products {
		coin, ok := r.coins[p.BaseCurrency]
		if !ok || p.QuoteCurrency != r.cfg.FiatCurrency {
			continue
		}
		coin.MinimumOrderSize = p.BaseMinSize
		r.coins[p.BaseCurrency] = coin
	}

	return nil
}

// fetchPrices refreshes every tracked coin's fiat price, once per run.
func (r *Rebalancer) fetchPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(r.coins))
	for _, symbol := range r.sortedSymbols() {
		productID := r.coins[symbol].ProductID(r.cfg.FiatCurrency)
		ticker, err := r.exchange.Ticker(ctx, productID)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch ticker for %s", productID)
		}
		if !ticker.Price.IsPositive() {
			return nil, errors.Wrapf(domain.ErrPriceUnavailable, "non-positive price for %s", productID)
		}
		prices[symbol] = ticker.Price
	}
	return prices, nil
}

func (r *Rebalancer) placeLadders(ctx context.Context, holdings, prices map[string]decimal.Decimal, spendable decimal.Decimal) error {
	weights, err := r.weights.ComputeWeights(ctx, r.coins, r.cfg.FiatCurrency)
	if err != nil {
		return err
	}

	amounts := planner.Plan(holdings, weights, spendable)

	for _, symbol := range r.sortedSymbols() {
		coin := r.coins[symbol]
		amount := amounts[symbol]

		rungs := ladder.Generate(amount, prices[symbol], coin.MinOrderSize(),
			r.cfg.OrderCount, r.cfg.StartingDiscount, r.cfg.DiscountStep)
		if len(rungs) == 0 {
			r.logger.Info("nothing to buy",
				zap.String("coin", symbol),
				zap.String("amount", amount.String()))
			continue
		}

		for _, rung := range rungs {
			order := domain.LimitBuy{
				ProductID:     coin.ProductID(r.cfg.FiatCurrency),
				Price:         rung.Price,
				Size:          rung.Size,
				ClientOrderID: uuid.New().String(),
			}

			result, err := r.exchange.PlaceLimitBuy(ctx, order)
			if err != nil {
				return errors.Wrapf(err, "place order for %s", symbol)
			}
			if !result.Placed() {
				r.logger.Warn("order rejected",
					zap.String("coin", symbol),
					zap.String("price", rung.Price.StringFixed(2)),
					zap.String("size", rung.Size.StringFixed(8)),
					zap.String("reason", result.Reason))
				continue
			}

			createdAt := result.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			rec := domain.OrderRecord{
				OrderID:   result.ID,
				Currency:  symbol,
				Price:     rung.Price,
				Size:      rung.Size,
				CreatedAt: createdAt,
			}
			if err := r.journal.RecordOrder(rec); err != nil {
				return errors.Wrapf(err, "journal order %s", result.ID)
			}

			r.logger.Info("order placed",
				zap.String("coin", symbol),
				zap.String("order_id", result.ID),
				zap.String("price", rung.Price.StringFixed(2)),
				zap.String("size", rung.Size.StringFixed(8)))
		}
	}

	return nil
}

func (r *Rebalancer) sortedSymbols() []string {
	symbols := lo.Keys(r.coins)
	sort.Strings(symbols)
	return symbols
}
