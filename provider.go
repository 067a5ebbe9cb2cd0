package valutatrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RateProvider is an external source of exchange rates. Implementations hold
// connection configuration only; they keep no rate state of their own.
type RateProvider interface {
	// Name identifies the provider in quotes, history records and logs.
	Name() string
	// Supports reports whether the provider can quote the pair. An
	// unsupported pair is skipped by the aggregator, it is not a failure.
	Supports(pair Pair) bool
	// FetchRate fetches the current rate for a supported pair. The context
	// carries the fetch deadline; any error is a provider failure the
	// aggregator recovers from by falling through to the next provider.
	FetchRate(ctx context.Context, pair Pair) (Rate, error)
}

// Provider names accepted in the priority-order configuration.
const (
	ProviderCoinGecko    = "coingecko"
	ProviderExchangeRate = "exchangerate"
)

// ProvidersFromConfig builds the provider chain in the configured priority
// order. Unknown names and missing credentials are configuration errors.
func ProvidersFromConfig(cfg *Config, log zerolog.Logger) ([]RateProvider, error) {
	providers := make([]RateProvider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case ProviderCoinGecko:
			providers = append(providers, NewCoinGecko(cfg.CoinGeckoAPIKey, cfg.FetchTimeout, cfg.MaxRetries, log))
		case ProviderExchangeRate:
			if cfg.ExchangeRateAPIKey == "" {
				return nil, &ConfigurationError{Reason: "provider " + ProviderExchangeRate + " requires EXCHANGERATE_API_KEY"}
			}
			providers = append(providers, NewExchangeRateAPI(cfg.ExchangeRateAPIKey, cfg.FetchTimeout, cfg.MaxRetries, log))
		default:
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown provider %q", name)}
		}
	}
	if len(providers) == 0 {
		return nil, &ConfigurationError{Reason: "no providers configured"}
	}
	return providers, nil
}

// getJSON performs an HTTP GET and unmarshals the JSON response into data.
// 429 responses and transport errors are retried with exponential backoff up
// to retries attempts; the backoff wait aborts as soon as the context is
// cancelled.
func getJSON(ctx context.Context, client *http.Client, addr string, header http.Header, retries int, data any) error {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "valutatrade-hub/1.0")
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited by %v (status %d)", req.URL.Host, resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
		}
		return json.Unmarshal(body, data)
	}
	return lastErr
}
