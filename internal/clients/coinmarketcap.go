package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"rebalancer/internal/domain"
)

const defaultCoinMarketCapURL = "https://api.coinmarketcap.com"

// CoinMarketCap fetches market capitalization data used to derive target
// weights.
type CoinMarketCap struct {
	baseURL    string
	httpClient *http.Client
}

// NewCoinMarketCap returns a client, an empty baseURL selects the public API.
func NewCoinMarketCap(baseURL string) *CoinMarketCap {
	if baseURL == "" {
		baseURL = defaultCoinMarketCapURL
	}
	return &CoinMarketCap{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type listingWire struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Listings returns the symbol-to-id mapping for all listed coins.
func (c *CoinMarketCap) Listings(ctx context.Context) ([]domain.CoinListing, error) {
	var wire struct {
		Data []listingWire `json:"data"`
	}
	if err := c.get(ctx, "/v2/listings/", &wire); err != nil {
		return nil, err
	}

	listings := make([]domain.CoinListing, 0, len(wire.Data))
	for _, l := range wire.Data {
		listings = append(listings, domain.CoinListing{ID: l.ID, Symbol: l.Symbol, Name: l.Name})
	}

	return listings, nil
}

type quoteWire struct {
	MarketCap json.Number `json:"market_cap"`
	Price     json.Number `json:"price"`
}

// Quote returns market cap and price for one coin id, converted to fiat.
func (c *CoinMarketCap) Quote(ctx context.Context, id int64, fiat string) (domain.MarketCapQuote, error) {
	var wire struct {
		Data struct {
			Quotes map[string]quoteWire `json:"quotes"`
		} `json:"data"`
	}

	path := fmt.Sprintf("/v2/ticker/%d/?convert=%s", id, url.QueryEscape(fiat))
	if err := c.get(ctx, path, &wire); err != nil {
		return domain.MarketCapQuote{}, err
	}

	quote, ok := wire.Data.Quotes[fiat]
	if !ok {
		return domain.MarketCapQuote{}, errors.Errorf("no %s quote for coin id %d", fiat, id)
	}

	marketCap, err := decimal.NewFromString(quote.MarketCap.String())
	if err != nil {
		return domain.MarketCapQuote{}, errors.Wrapf(err, "parse market cap for coin id %d", id)
	}
	price, err := decimal.NewFromString(quote.Price.String())
	if err != nil {
		return domain.MarketCapQuote{}, errors.Wrapf(err, "parse price for coin id %d", id)
	}

	return domain.MarketCapQuote{MarketCap: marketCap, Price: price}, nil
}

func (c *CoinMarketCap) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "build request %s", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s response", path)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s response", path)
	}

	return nil
}
