package clients

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"rebalancer/internal/domain"
)

const defaultCoinbaseURL = "https://api.exchange.coinbase.com"

// Coinbase is a minimal authenticated client for the Coinbase Exchange REST
// API, covering only the endpoints the rebalancer needs. The exchange accepts
// prices with 2 and sizes with 8 decimal digits, both formatted here.
type Coinbase struct {
	baseURL    string
	key        string
	secret     string
	passphrase string
	httpClient *http.Client
}

// NewCoinbase returns a client for the given API credentials. An empty baseURL
// selects the production endpoint.
func NewCoinbase(baseURL, key, secret, passphrase string) *Coinbase {
	if baseURL == "" {
		baseURL = defaultCoinbaseURL
	}
	return &Coinbase{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		secret:     secret,
		passphrase: passphrase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type accountWire struct {
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
}

// Accounts returns all currency balances of the profile.
func (c *Coinbase) Accounts(ctx context.Context) ([]domain.Account, error) {
	var wire []accountWire
	if _, err := c.do(ctx, http.MethodGet, "/accounts", nil, &wire); err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(wire))
	for _, a := range wire {
		balance, err := decimal.NewFromString(a.Balance)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s balance", a.Currency)
		}
		available, err := decimal.NewFromString(a.Available)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s available balance", a.Currency)
		}
		accounts = append(accounts, domain.Account{
			Currency:  a.Currency,
			Balance:   balance,
			Available: available,
		})
	}

	return accounts, nil
}

type productWire struct {
	ID            string `json:"id"`
	BaseCurrency  string `json:"base_currency"`
	QuoteCurrency string `json:"quote_currency"`
	BaseMinSize   string `json:"base_min_size"`
}

// Products returns metadata for all tradable pairs.
func (c *Coinbase) Products(ctx context.Context) ([]domain.Product, error) {
	var wire []productWire
	if _, err := c.do(ctx, http.MethodGet, "/products", nil, &wire); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(wire))
	for _, p := range wire {
		minSize, err := decimal.NewFromString(p.BaseMinSize)
		if err != nil {
			// some products omit the field, the caller falls back to a default
			minSize = decimal.Zero
		}
		products = append(products, domain.Product{
			ID:            p.ID,
			BaseCurrency:  p.BaseCurrency,
			QuoteCurrency: p.QuoteCurrency,
			BaseMinSize:   minSize,
		})
	}

	return products, nil
}

// Ticker returns the last trade price for a product.
func (c *Coinbase) Ticker(ctx context.Context, productID string) (domain.Ticker, error) {
	var wire struct {
		Price string `json:"price"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/products/"+productID+"/ticker", nil, &wire); err != nil {
		return domain.Ticker{}, err
	}
	if wire.Price == "" {
		return domain.Ticker{}, errors.Wrapf(domain.ErrPriceUnavailable, "no ticker price for %s", productID)
	}

	price, err := decimal.NewFromString(wire.Price)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "parse %s ticker price", productID)
	}

	return domain.Ticker{Price: price}, nil
}

// PlaceLimitBuy submits a post-only limit buy. A client-rejected order (HTTP
// 4xx) is reported as a result with the exchange message, not as an error, so
// the run can continue with the remaining coins.
func (c *Coinbase) PlaceLimitBuy(ctx context.Context, order domain.LimitBuy) (domain.OrderResult, error) {
	payload := map[string]any{
		"type":       "limit",
		"side":       "buy",
		"product_id": order.ProductID,
		"price":      order.Price.StringFixed(2),
		"size":       order.Size.StringFixed(8),
		"post_only":  true,
	}
	if order.ClientOrderID != "" {
		payload["client_oid"] = order.ClientOrderID
	}

	var wire struct {
		ID        string `json:"id"`
		CreatedAt string `json:"created_at"`
		Message   string `json:"message"`
	}
	status, err := c.do(ctx, http.MethodPost, "/orders", payload, &wire)
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		reason := wire.Message
		if reason == "" {
			reason = fmt.Sprintf("rejected with status %d", status)
		}
		return domain.OrderResult{Reason: reason}, nil
	}
	if err != nil {
		return domain.OrderResult{}, err
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, wire.CreatedAt)
	return domain.OrderResult{ID: wire.ID, CreatedAt: createdAt}, nil
}

// CancelAll cancels every open order for a product.
func (c *Coinbase) CancelAll(ctx context.Context, productID string) error {
	path := "/orders?product_id=" + url.QueryEscape(productID)
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Withdraw requests a crypto withdrawal to an external address.
func (c *Coinbase) Withdraw(ctx context.Context, amount decimal.Decimal, currency, address string) (domain.WithdrawalResult, error) {
	payload := map[string]any{
		"amount":         amount.String(),
		"currency":       currency,
		"crypto_address": address,
	}

	var wire struct {
		ID string `json:"id"`
	}
	status, err := c.do(ctx, http.MethodPost, "/withdrawals/crypto", payload, &wire)
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return domain.WithdrawalResult{}, nil
	}
	if err != nil {
		return domain.WithdrawalResult{}, err
	}

	return domain.WithdrawalResult{ID: wire.ID}, nil
}

// Deposit requests a fiat deposit from a linked payment method.
func (c *Coinbase) Deposit(ctx context.Context, paymentMethodID string, amount decimal.Decimal, currency string) (domain.DepositResult, error) {
	payload := map[string]any{
		"amount":            amount.String(),
		"currency":          currency,
		"payment_method_id": paymentMethodID,
	}

	var wire struct {
		ID       string `json:"id"`
		PayoutAt string `json:"payout_at"`
	}
	status, err := c.do(ctx, http.MethodPost, "/deposits/payment-method", payload, &wire)
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return domain.DepositResult{}, nil
	}
	if err != nil {
		return domain.DepositResult{}, err
	}

	payoutAt, _ := time.Parse(time.RFC3339Nano, wire.PayoutAt)
	return domain.DepositResult{ID: wire.ID, PayoutAt: payoutAt}, nil
}

// do signs and executes one request. Any status >= 400 is returned as an
// error, but a 4xx body is still decoded into out so callers that treat
// client rejection as a result can surface the exchange message.
func (c *Coinbase) do(ctx context.Context, method, path string, payload, out any) (int, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, errors.Wrap(err, "marshal request body")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, errors.Wrapf(err, "build %s %s request", method, path)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature, err := c.sign(timestamp, method, path, body)
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("CB-ACCESS-KEY", c.key)
	req.Header.Set("CB-ACCESS-SIGN", signature)
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-ACCESS-PASSPHRASE", c.passphrase)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errors.Wrapf(err, "read %s %s response", method, path)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil && resp.StatusCode < http.StatusBadRequest {
			return resp.StatusCode, errors.Wrapf(err, "decode %s %s response", method, path)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, errors.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return resp.StatusCode, nil
}

// sign builds the CB-ACCESS-SIGN header: base64(HMAC-SHA256(base64decode(secret),
// timestamp + method + path + body)).
func (c *Coinbase) sign(timestamp, method, path string, body []byte) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "decode api secret")
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
