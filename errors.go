package valutatrade

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// The presentation layer must be able to tell every failure mode apart, so
// each kind is a distinct error type usable with errors.As.

// CurrencyNotFoundError reports a currency code absent from the registry.
type CurrencyNotFoundError struct {
	Code string
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// RateUnavailableError reports that no provider and no cache entry, fresh or
// stale, could produce a rate for the pair. Fatal for the requested operation
// only.
type RateUnavailableError struct {
	Pair Pair
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no rate available for %s: all providers failed and nothing cached", e.Pair)
}

// InsufficientFundsError reports a buy/sell rejected because the required
// balance is absent. No state was mutated.
type InsufficientFundsError struct {
	Available Money
	Required  Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s available, %s required", e.Available, e.Required)
}

// InvalidAmountError reports a non-positive amount requested for a portfolio
// operation.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("amount must be positive, got %s", e.Amount)
}

// ConfigurationError reports an unusable configuration (missing credential,
// unknown provider name, bad value). Fatal at startup, before any core
// operation runs.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ErrUnsupportedPair is returned by a provider asked for a pair outside its
// capability. The aggregator treats it as an immediate failure for that
// provider only, not an error that aborts the whole resolution.
var ErrUnsupportedPair = errors.New("pair not supported by this provider")
