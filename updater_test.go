package valutatrade

import (
	"context"
	"errors"
	"testing"
)

func TestRefreshAllKeepsInputOrder(t *testing.T) {
	provider := &fakeProvider{name: "p", rate: R(42)}
	agg, _, _, _ := newTestAggregator(provider)
	updater := NewUpdater(agg, 3, agg.log)

	pairs := []Pair{
		MustParsePair("BTC/USD"),
		MustParsePair("ETH/USD"),
		MustParsePair("EUR/USD"),
	}
	results := updater.RefreshAll(context.Background(), pairs)
	if len(results) != len(pairs) {
		t.Fatalf("got %d results, want %d", len(results), len(pairs))
	}
	for i, res := range results {
		if res.Pair != pairs[i] {
			t.Errorf("results[%d].Pair = %v, want %v", i, res.Pair, pairs[i])
		}
		if res.Err != nil {
			t.Errorf("results[%d].Err = %v", i, res.Err)
		}
		if res.Resolution != ResolvedProvider {
			t.Errorf("results[%d].Resolution = %v, want provider", i, res.Resolution)
		}
	}
	if provider.fetchCount() != len(pairs) {
		t.Errorf("provider calls = %d, want %d", provider.fetchCount(), len(pairs))
	}
}

func TestRefreshAllReportsFailures(t *testing.T) {
	// only fiat pairs are supported, the crypto pair has no provider and no
	// cache to fall back to
	provider := &fakeProvider{
		name:     "fiat-only",
		supports: func(p Pair) bool { return !p.HasCrypto() },
		rate:     R(1),
	}
	agg, _, _, _ := newTestAggregator(provider)
	updater := NewUpdater(agg, 2, agg.log)

	pairs := []Pair{MustParsePair("EUR/USD"), MustParsePair("BTC/USD")}
	results := updater.RefreshAll(context.Background(), pairs)

	if results[0].Err != nil {
		t.Errorf("fiat pair failed: %v", results[0].Err)
	}
	var unavailable *RateUnavailableError
	if !errors.As(results[1].Err, &unavailable) {
		t.Errorf("crypto pair err = %v, want RateUnavailableError", results[1].Err)
	}
}

func TestNewUpdaterMinimumWorkers(t *testing.T) {
	agg, _, _, _ := newTestAggregator(&fakeProvider{name: "p", rate: R(1)})
	updater := NewUpdater(agg, 0, agg.log)

	results := updater.RefreshAll(context.Background(), []Pair{MustParsePair("BTC/USD")})
	if len(results) != 1 || results[0].Err != nil {
		t.Errorf("results = %+v", results)
	}
}

func TestDefaultTrackedPairs(t *testing.T) {
	pairs := DefaultTrackedPairs()
	if len(pairs) != len(KnownCurrencies())-1 {
		t.Errorf("got %d pairs, want one per non-USD currency", len(pairs))
	}
	for _, pair := range pairs {
		if pair.Quote() != "USD" {
			t.Errorf("pair %v not quoted in USD", pair)
		}
		if pair.IsIdentity() {
			t.Errorf("identity pair %v tracked", pair)
		}
	}
}
