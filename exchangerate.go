package valutatrade

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ExchangeRateAPI fetches fiat rates from the ExchangeRate-API v6 "latest"
// endpoint. A credential is required; the key is part of the URL path per the
// v6 API contract.
type ExchangeRateAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries int
	log     zerolog.Logger
}

// NewExchangeRateAPI creates an ExchangeRate-API provider.
func NewExchangeRateAPI(apiKey string, timeout time.Duration, retries int, log zerolog.Logger) *ExchangeRateAPI {
	return &ExchangeRateAPI{
		baseURL: "https://v6.exchangerate-api.com/v6",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		log:     log.With().Str("provider", ProviderExchangeRate).Logger(),
	}
}

func (c *ExchangeRateAPI) Name() string { return ProviderExchangeRate }

// Supports accepts fiat-to-fiat pairs only.
func (c *ExchangeRateAPI) Supports(pair Pair) bool {
	base, err := LookupCurrency(pair.Base())
	if err != nil || base.Kind != Fiat {
		return false
	}
	quote, err := LookupCurrency(pair.Quote())
	return err == nil && quote.Kind == Fiat
}

// FetchRate queries GET /v6/<key>/latest/<base> and picks the quote currency
// out of the conversion table.
func (c *ExchangeRateAPI) FetchRate(ctx context.Context, pair Pair) (Rate, error) {
	if !c.Supports(pair) {
		return Rate{}, ErrUnsupportedPair
	}

	addr := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, pair.Base())
	c.log.Debug().Stringer("pair", pair).Msg("fetching rate")

	var payload struct {
		Result    string             `json:"result"`
		ErrorType string             `json:"error-type"`
		BaseCode  string             `json:"base_code"`
		Rates     map[string]float64 `json:"conversion_rates"`
	}
	if err := getJSON(ctx, c.client, addr, nil, c.retries, &payload); err != nil {
		return Rate{}, fmt.Errorf("exchangerate-api request for %s failed: %w", pair, err)
	}
	if payload.Result != "success" {
		return Rate{}, fmt.Errorf("exchangerate-api error for %s: %s", pair, payload.ErrorType)
	}
	val, ok := payload.Rates[pair.Quote()]
	if !ok {
		return Rate{}, fmt.Errorf("exchangerate-api response misses rate for %s", pair)
	}
	if val <= 0 {
		return Rate{}, fmt.Errorf("exchangerate-api returned non-positive rate %v for %s", val, pair)
	}
	return R(decimal.NewFromFloat(val)), nil
}
