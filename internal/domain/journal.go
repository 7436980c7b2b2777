package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal records are written only after the exchange confirmed the action
// with a non-empty identifier, never speculatively, and are never mutated.

// OrderRecord is a confirmed limit order placement.
type OrderRecord struct {
	OrderID   string          `json:"order_id"`
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	CreatedAt time.Time       `json:"created_at"`
}

// DepositRecord is a confirmed fiat deposit.
type DepositRecord struct {
	DepositID       string          `json:"deposit_id"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethodID string          `json:"payment_method_id"`
	PayoutAt        time.Time       `json:"payout_at"`
}

// WithdrawalRecord is a confirmed crypto withdrawal.
type WithdrawalRecord struct {
	WithdrawalID string          `json:"withdrawal_id"`
	Currency     string          `json:"currency"`
	Amount       decimal.Decimal `json:"amount"`
	Address      string          `json:"address"`
	CreatedAt    time.Time       `json:"created_at"`
}
