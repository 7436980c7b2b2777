// Package withdrawer sweeps settled coin balances to configured external
// addresses once no further buying is warranted.
package withdrawer

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rebalancer/internal/domain"
)

// DefaultDustThreshold balances below this are not worth a withdrawal.
var DefaultDustThreshold = decimal.NewFromFloat(0.01)

// DefaultPrecision digits kept when truncating the reported balance. The
// exchange reports one more decimal digit than its withdrawal endpoint
// accepts, so submitting the raw balance over-requests.
const DefaultPrecision = 8

type exchange interface {
	Withdraw(ctx context.Context, amount decimal.Decimal, currency, address string) (domain.WithdrawalResult, error)
}

type journal interface {
	RecordWithdrawal(rec domain.WithdrawalRecord) error
}

// Withdrawer requests full-balance withdrawals for coins above the dust
// threshold and journals the confirmed transactions.
type Withdrawer struct {
	exchange      exchange
	journal       journal
	logger        *zap.Logger
	dustThreshold decimal.Decimal
	precision     int32
}

// New returns a Withdrawer. A non-positive dustThreshold or precision falls
// back to the defaults.
func New(logger *zap.Logger, exchange exchange, journal journal, dustThreshold decimal.Decimal, precision int32) *Withdrawer {
	if !dustThreshold.IsPositive() {
		dustThreshold = DefaultDustThreshold
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Withdrawer{
		exchange:      exchange,
		journal:       journal,
		logger:        logger,
		dustThreshold: dustThreshold,
		precision:     precision,
	}
}

// Sweep withdraws the available balance of every coin that has a withdrawal
// address and at least the dust threshold on the exchange. The submitted
// amount is the reported balance truncated to the configured precision,
// truncation and not rounding, so the request never exceeds what the exchange
// actually holds.
func (w *Withdrawer) Sweep(ctx context.Context, coins map[string]domain.Coin, accounts []domain.Account) error {
	balances := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		balances[a.Currency] = a.Balance
	}

	symbols := lo.Keys(coins)
	sort.Strings(symbols)

	for _, symbol := range symbols {
		coin := coins[symbol]
		if coin.WithdrawalAddress == "" {
			w.logger.Info("no withdrawal address configured, skipping", zap.String("coin", symbol))
			continue
		}

		reported := balances[symbol]
		if reported.LessThan(w.dustThreshold) {
			w.logger.Info("balance below dust threshold, skipping",
				zap.String("coin", symbol),
				zap.String("balance", reported.String()))
			continue
		}

		amount := reported.Truncate(w.precision)
		w.logger.Info("withdrawing",
			zap.String("coin", symbol),
			zap.String("amount", amount.String()),
			zap.String("address", coin.WithdrawalAddress))

		result, err := w.exchange.Withdraw(ctx, amount, symbol, coin.WithdrawalAddress)
		if err != nil {
			return errors.Wrapf(err, "withdraw %s", symbol)
		}
		if result.ID == "" {
			w.logger.Warn("withdrawal rejected by exchange", zap.String("coin", symbol))
			continue
		}

		rec := domain.WithdrawalRecord{
			WithdrawalID: result.ID,
			Currency:     symbol,
			Amount:       amount,
			Address:      coin.WithdrawalAddress,
			CreatedAt:    time.Now(),
		}
		if err := w.journal.RecordWithdrawal(rec); err != nil {
			return errors.Wrapf(err, "journal withdrawal %s", result.ID)
		}
	}

	return nil
}
