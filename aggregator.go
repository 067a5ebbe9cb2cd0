package valutatrade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AggregatorOptions carries the rate-resolution tunables. All fields come
// from configuration; the zero value is not usable.
type AggregatorOptions struct {
	// FiatTTL is the cache TTL for pairs with no crypto side.
	FiatTTL time.Duration
	// CryptoTTL is the cache TTL for pairs with at least one crypto side.
	CryptoTTL time.Duration
	// FetchTimeout bounds each single provider fetch.
	FetchTimeout time.Duration
}

// RateAggregator is the single entry point for resolving a rate. It consults
// the cache first, walks the providers in priority order, and falls back to a
// stale cache entry when every provider fails.
type RateAggregator struct {
	cache     *RateCache
	history   *HistoryLog
	providers []RateProvider
	opts      AggregatorOptions
	log       zerolog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewRateAggregator wires the aggregator. The provider slice order is the
// fallback priority order.
func NewRateAggregator(cache *RateCache, history *HistoryLog, providers []RateProvider, opts AggregatorOptions, log zerolog.Logger) *RateAggregator {
	return &RateAggregator{
		cache:     cache,
		history:   history,
		providers: providers,
		opts:      opts,
		log:       log.With().Str("component", "aggregator").Logger(),
		now:       time.Now,
	}
}

// Resolve produces a quote for the pair, reporting how it was obtained.
//
// The fast path is a fresh cache hit, which triggers no network call. On a
// miss or a stale entry the providers are tried sequentially in priority
// order; the first success refreshes the cache. If every provider fails a
// stale entry is served as the offline guarantee, and only when nothing is
// cached at all does Resolve fail with RateUnavailableError.
//
// Every successful resolution appends exactly one history record; failures
// and cancellations append none.
func (a *RateAggregator) Resolve(ctx context.Context, pair Pair) (Quote, Resolution, error) {
	if pair.IsIdentity() {
		// Same currency on both sides: rate 1 by construction, no cache,
		// provider or history involvement.
		return Quote{Pair: pair, Price: R(1), Source: "identity", FetchedAt: a.now()}, ResolvedIdentity, nil
	}

	cached, freshness := a.cache.Get(pair)
	if freshness == Fresh {
		a.log.Debug().Stringer("pair", pair).Str("source", cached.Source).Msg("serving fresh cached rate")
		a.record(cached, ResolvedFreshCache)
		return cached, ResolvedFreshCache, nil
	}

	for _, provider := range a.providers {
		if !provider.Supports(pair) {
			a.log.Debug().Stringer("pair", pair).Str("provider", provider.Name()).Msg("pair unsupported, skipping")
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout)
		rate, err := provider.FetchRate(fetchCtx, pair)
		cancel()

		if ctxErr := ctx.Err(); ctxErr != nil {
			// The caller cancelled: discard any result, leave cache and
			// history untouched.
			return Quote{}, "", ctxErr
		}
		if err != nil {
			a.log.Warn().Err(err).Stringer("pair", pair).Str("provider", provider.Name()).Msg("provider failed")
			continue
		}

		quote := Quote{Pair: pair, Price: rate, Source: provider.Name(), FetchedAt: a.now()}
		a.cache.Put(quote, a.TTLFor(pair))
		a.record(quote, ResolvedProvider)
		a.log.Info().Stringer("pair", pair).Str("provider", provider.Name()).Stringer("rate", rate).Msg("fetched rate")
		return quote, ResolvedProvider, nil
	}

	if freshness == Stale {
		age := a.now().Sub(cached.FetchedAt)
		a.log.Warn().Stringer("pair", pair).Dur("age", age).Str("source", cached.Source).
			Msg("all providers failed, serving stale cached rate")
		a.record(cached, ResolvedStaleCache)
		return cached, ResolvedStaleCache, nil
	}

	return Quote{}, "", &RateUnavailableError{Pair: pair}
}

// TTLFor returns the cache TTL for a pair: crypto pairs expire faster than
// fiat ones.
func (a *RateAggregator) TTLFor(pair Pair) time.Duration {
	if pair.HasCrypto() {
		return a.opts.CryptoTTL
	}
	return a.opts.FiatTTL
}

func (a *RateAggregator) record(quote Quote, via Resolution) {
	a.history.Append(HistoryRecord{
		ID:          uuid.NewString(),
		Quote:       quote,
		ResolvedVia: via,
	})
}
