// Package valutatrade implements the core of a multi-currency rate hub: it
// fetches fiat and crypto exchange rates from remote providers, caches them
// with a TTL so the tool keeps working offline, and maintains a virtual
// portfolio whose buy/sell operations are priced through the same rate
// resolution path and recorded in an append-only ledger.
package valutatrade

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// CurrencyKind distinguishes fiat currencies from crypto tickers.
type CurrencyKind int

const (
	Fiat CurrencyKind = iota
	Crypto
)

func (k CurrencyKind) String() string {
	switch k {
	case Fiat:
		return "fiat"
	case Crypto:
		return "crypto"
	default:
		return "unknown"
	}
}

// Currency describes a known currency: an uppercase code, a display name and
// its kind. The kind decides which providers can quote it and which cache TTL
// applies to its pairs.
type Currency struct {
	Code string
	Name string
	Kind CurrencyKind
}

// currencies is the registry of currencies the hub knows how to price.
var currencies = map[string]Currency{
	"USD": {"USD", "US Dollar", Fiat},
	"EUR": {"EUR", "Euro", Fiat},
	"GBP": {"GBP", "Pound Sterling", Fiat},
	"JPY": {"JPY", "Japanese Yen", Fiat},
	"CAD": {"CAD", "Canadian Dollar", Fiat},
	"AUD": {"AUD", "Australian Dollar", Fiat},
	"CHF": {"CHF", "Swiss Franc", Fiat},
	"CNY": {"CNY", "Chinese Yuan", Fiat},
	"RUB": {"RUB", "Russian Ruble", Fiat},

	"BTC":   {"BTC", "Bitcoin", Crypto},
	"ETH":   {"ETH", "Ethereum", Crypto},
	"SOL":   {"SOL", "Solana", Crypto},
	"ADA":   {"ADA", "Cardano", Crypto},
	"DOT":   {"DOT", "Polkadot", Crypto},
	"DOGE":  {"DOGE", "Dogecoin", Crypto},
	"LTC":   {"LTC", "Litecoin", Crypto},
	"XRP":   {"XRP", "Ripple", Crypto},
	"BNB":   {"BNB", "Binance Coin", Crypto},
	"MATIC": {"MATIC", "Polygon", Crypto},
}

// LookupCurrency returns the currency registered under code (case
// insensitive), or a CurrencyNotFoundError.
func LookupCurrency(code string) (Currency, error) {
	cur, ok := currencies[strings.ToUpper(code)]
	if !ok {
		return Currency{}, &CurrencyNotFoundError{Code: code}
	}
	return cur, nil
}

// KnownCurrencies returns all registered currencies sorted by code.
func KnownCurrencies() []Currency {
	codes := slices.Collect(maps.Keys(currencies))
	slices.Sort(codes)
	all := make([]Currency, 0, len(codes))
	for _, code := range codes {
		all = append(all, currencies[code])
	}
	return all
}

// Pair is an ordered (base, quote) currency pair. It is an immutable value
// type used as the cache and history key. The price of a pair is the amount
// of quote currency one unit of base currency is worth.
type Pair struct {
	base  string
	quote string
}

// NewPair builds a pair from two registered currency codes.
func NewPair(base, quote string) (Pair, error) {
	b, err := LookupCurrency(base)
	if err != nil {
		return Pair{}, err
	}
	q, err := LookupCurrency(quote)
	if err != nil {
		return Pair{}, err
	}
	return Pair{base: b.Code, quote: q.Code}, nil
}

// ParsePair parses "BTC/USD" or the storage key form "BTC_USD".
func ParsePair(s string) (Pair, error) {
	sep := "/"
	if !strings.Contains(s, "/") {
		sep = "_"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, fmt.Errorf("invalid currency pair %q, want BASE/QUOTE", s)
	}
	return NewPair(parts[0], parts[1])
}

func (p Pair) Base() string  { return p.base }
func (p Pair) Quote() string { return p.quote }

// String returns the display form, e.g. "BTC/USD".
func (p Pair) String() string { return p.base + "/" + p.quote }

// Key returns the storage key form, e.g. "BTC_USD".
func (p Pair) Key() string { return p.base + "_" + p.quote }

// IsIdentity reports whether base and quote are the same currency.
func (p Pair) IsIdentity() bool { return p.base == p.quote }

// IsZero reports whether the pair is the zero value.
func (p Pair) IsZero() bool { return p.base == "" && p.quote == "" }

// Inverse returns the pair with base and quote swapped.
func (p Pair) Inverse() Pair { return Pair{base: p.quote, quote: p.base} }

// HasCrypto reports whether either side of the pair is a crypto currency.
func (p Pair) HasCrypto() bool {
	for _, code := range []string{p.base, p.quote} {
		if cur, err := LookupCurrency(code); err == nil && cur.Kind == Crypto {
			return true
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler so a Pair serializes as its
// display form in JSON objects and map keys.
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pair) UnmarshalText(text []byte) error {
	parsed, err := ParsePair(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MustParsePair is a test helper that panics on invalid input.
func MustParsePair(s string) Pair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}
