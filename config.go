package valutatrade

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the resolved configuration the core consumes. The core never
// reads environment variables itself; LoadConfig turns the environment (and
// an optional .env file) into this struct once, at startup.
type Config struct {
	// DataDir is the directory holding rates.json, history.jsonl and
	// ledger.jsonl.
	DataDir string `env:"VTH_DATA_DIR" env-default:"data"`

	// Providers is the fallback priority order for rate resolution.
	Providers []string `env:"VTH_PROVIDERS" env-separator:"," env-default:"coingecko,exchangerate"`

	// FiatTTL and CryptoTTL are the cache TTLs per pair kind.
	FiatTTL   time.Duration `env:"VTH_FIAT_TTL" env-default:"60s"`
	CryptoTTL time.Duration `env:"VTH_CRYPTO_TTL" env-default:"30s"`

	// FetchTimeout bounds each provider fetch; MaxRetries bounds the
	// rate-limit backoff loop inside one fetch.
	FetchTimeout time.Duration `env:"VTH_FETCH_TIMEOUT" env-default:"10s"`
	MaxRetries   int           `env:"VTH_MAX_RETRIES" env-default:"3"`

	// QuoteCurrency is the default pricing currency for portfolio operations.
	QuoteCurrency string `env:"VTH_QUOTE_CURRENCY" env-default:"USD"`

	// Workers is the refresh concurrency across distinct pairs.
	Workers int `env:"VTH_WORKERS" env-default:"4"`

	// UpdateInterval is the default period of the watch command.
	UpdateInterval time.Duration `env:"VTH_UPDATE_INTERVAL" env-default:"5m"`

	CoinGeckoAPIKey    string `env:"COINGECKO_API_KEY"`
	ExchangeRateAPIKey string `env:"EXCHANGERATE_API_KEY"`

	LogLevel  string `env:"VTH_LOG_LEVEL" env-default:"info"`
	LogPretty bool   `env:"VTH_LOG_PRETTY" env-default:"true"`
}

// LoadConfig loads .env (when present), reads the environment and validates
// the result. Any problem is a ConfigurationError, fatal before the core
// runs.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("cannot read environment: %v", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the core relies on.
func (c *Config) Validate() error {
	if _, err := LookupCurrency(c.QuoteCurrency); err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("quote currency: %v", err)}
	}
	if c.FiatTTL <= 0 || c.CryptoTTL <= 0 {
		return &ConfigurationError{Reason: "cache TTLs must be positive"}
	}
	if c.FetchTimeout <= 0 {
		return &ConfigurationError{Reason: "fetch timeout must be positive"}
	}
	if len(c.Providers) == 0 {
		return &ConfigurationError{Reason: "no providers configured"}
	}
	for _, name := range c.Providers {
		switch name {
		case ProviderCoinGecko:
		case ProviderExchangeRate:
			if c.ExchangeRateAPIKey == "" {
				return &ConfigurationError{Reason: "provider " + ProviderExchangeRate + " requires EXCHANGERATE_API_KEY"}
			}
		default:
			return &ConfigurationError{Reason: fmt.Sprintf("unknown provider %q", name)}
		}
	}
	return nil
}

// AggregatorOptions derives the aggregator tunables from the configuration.
func (c *Config) AggregatorOptions() AggregatorOptions {
	return AggregatorOptions{
		FiatTTL:      c.FiatTTL,
		CryptoTTL:    c.CryptoTTL,
		FetchTimeout: c.FetchTimeout,
	}
}
