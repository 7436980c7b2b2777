package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a single currency balance reported by the exchange.
type Account struct {
	Currency  string
	Balance   decimal.Decimal
	Available decimal.Decimal
}

// Product is exchange metadata for a tradable pair.
type Product struct {
	ID            string
	BaseCurrency  string
	QuoteCurrency string
	BaseMinSize   decimal.Decimal
}

// Ticker is the latest trade price for a product.
type Ticker struct {
	Price decimal.Decimal
}

// LimitBuy is a post-only limit buy order to be submitted to the exchange.
type LimitBuy struct {
	ProductID     string
	Price         decimal.Decimal
	Size          decimal.Decimal
	ClientOrderID string
}

// OrderResult is the outcome of an order placement. An empty ID means the
// exchange rejected the order and Reason carries its message.
type OrderResult struct {
	ID        string
	CreatedAt time.Time
	Reason    string
}

// Placed reports whether the exchange accepted the order.
func (r OrderResult) Placed() bool {
	return r.ID != ""
}

// WithdrawalResult is the outcome of a crypto withdrawal request, an empty ID
// means the request was rejected.
type WithdrawalResult struct {
	ID string
}

// DepositResult is the outcome of a fiat deposit request.
type DepositResult struct {
	ID       string
	PayoutAt time.Time
}
