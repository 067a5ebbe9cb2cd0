package valutatrade

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// RefreshResult is the outcome of refreshing one tracked pair.
type RefreshResult struct {
	Pair       Pair
	Resolution Resolution
	Err        error
}

// Updater refreshes a set of tracked pairs through the aggregator, several
// pairs at a time. The fallback chain for any single pair stays sequential
// inside Resolve; only distinct pairs run in parallel.
type Updater struct {
	rates   *RateAggregator
	workers int
	log     zerolog.Logger
}

// NewUpdater creates an updater running at most workers concurrent
// resolutions.
func NewUpdater(rates *RateAggregator, workers int, log zerolog.Logger) *Updater {
	if workers < 1 {
		workers = 1
	}
	return &Updater{
		rates:   rates,
		workers: workers,
		log:     log.With().Str("component", "updater").Logger(),
	}
}

// RefreshAll resolves every pair and returns one result per pair, in input
// order. Individual failures are reported in the results, not returned.
func (u *Updater) RefreshAll(ctx context.Context, pairs []Pair) []RefreshResult {
	results := make([]RefreshResult, len(pairs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range u.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				pair := pairs[i]
				_, via, err := u.rates.Resolve(ctx, pair)
				results[i] = RefreshResult{Pair: pair, Resolution: via, Err: err}
			}
		}()
	}
	for i := range pairs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	fetched := 0
	for _, r := range results {
		if r.Err == nil {
			fetched++
		}
	}
	u.log.Info().Int("pairs", len(pairs)).Int("resolved", fetched).Msg("refresh finished")
	return results
}

// DefaultTrackedPairs returns the pairs the update command refreshes when
// none are given: every registered currency against USD.
func DefaultTrackedPairs() []Pair {
	var pairs []Pair
	for _, cur := range KnownCurrencies() {
		if cur.Code == "USD" {
			continue
		}
		pairs = append(pairs, Pair{base: cur.Code, quote: "USD"})
	}
	return pairs
}
