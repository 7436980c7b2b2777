package domain

import "github.com/pkg/errors"

var (
	// ErrDataUnavailable market-cap source errored or omitted a tracked coin,
	// the run must not rebalance against partial data.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrPriceUnavailable a tracked coin has no positive price this run.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrConfigurationInvalid required configuration is missing or malformed,
	// never retried.
	ErrConfigurationInvalid = errors.New("configuration invalid")
)
