package valutatrade

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// coinIDs maps crypto tickers to CoinGecko coin ids.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"LTC":   "litecoin",
	"XRP":   "ripple",
	"BNB":   "binancecoin",
	"MATIC": "matic-network",
}

// CoinGecko fetches crypto rates from the CoinGecko simple/price endpoint.
// It works without credentials; a demo API key, when configured, is sent as
// a header to lift the anonymous rate limit.
type CoinGecko struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries int
	log     zerolog.Logger
}

// NewCoinGecko creates a CoinGecko provider. timeout bounds each HTTP
// request, retries bounds the rate-limit backoff loop.
func NewCoinGecko(apiKey string, timeout time.Duration, retries int, log zerolog.Logger) *CoinGecko {
	return &CoinGecko{
		baseURL: "https://api.coingecko.com/api/v3",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		log:     log.With().Str("provider", ProviderCoinGecko).Logger(),
	}
}

func (c *CoinGecko) Name() string { return ProviderCoinGecko }

// Supports accepts pairs whose base is a crypto currency with a known coin id
// and whose quote CoinGecko accepts as a vs_currency (any registered fiat, or
// BTC/ETH for crypto-to-crypto pairs).
func (c *CoinGecko) Supports(pair Pair) bool {
	if _, ok := coinIDs[pair.Base()]; !ok {
		return false
	}
	quote, err := LookupCurrency(pair.Quote())
	if err != nil {
		return false
	}
	return quote.Kind == Fiat || quote.Code == "BTC" || quote.Code == "ETH"
}

// FetchRate queries GET /simple/price?ids=<coin>&vs_currencies=<quote>.
// The response nests the price under dynamic keys ({"bitcoin":{"usd":59337.21}}),
// so it is extracted with a jsonpath instead of a dedicated struct.
func (c *CoinGecko) FetchRate(ctx context.Context, pair Pair) (Rate, error) {
	if !c.Supports(pair) {
		return Rate{}, ErrUnsupportedPair
	}
	id := coinIDs[pair.Base()]
	vs := strings.ToLower(pair.Quote())

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", vs)
	addr := c.baseURL + "/simple/price?" + q.Encode()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("x-cg-demo-api-key", c.apiKey)
	}

	c.log.Debug().Stringer("pair", pair).Str("coin", id).Msg("fetching rate")

	var jobj any
	if err := getJSON(ctx, c.client, addr, header, c.retries, &jobj); err != nil {
		return Rate{}, fmt.Errorf("coingecko request for %s failed: %w", pair, err)
	}

	path := fmt.Sprintf("$.%s.%s", id, vs)
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return Rate{}, fmt.Errorf("coingecko response for %s misses %q: %w", pair, path, err)
	}
	val, ok := jval.(float64)
	if !ok {
		return Rate{}, fmt.Errorf("coingecko response for %s: %q is not a number: %v", pair, path, jval)
	}
	if val <= 0 {
		return Rate{}, fmt.Errorf("coingecko returned non-positive rate %v for %s", val, pair)
	}
	return R(decimal.NewFromFloat(val)), nil
}
