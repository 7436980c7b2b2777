package domain

import "github.com/shopspring/decimal"

// CoinListing maps a currency symbol to the market-cap source's numeric id.
type CoinListing struct {
	ID     int64
	Symbol string
	Name   string
}

// MarketCapQuote is a single coin's market data in one fiat currency.
type MarketCapQuote struct {
	MarketCap decimal.Decimal
	Price     decimal.Decimal
}
