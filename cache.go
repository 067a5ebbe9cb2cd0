package valutatrade

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// CacheEntry is a cached quote with its expiry. Entries are stored by value
// and never mutated in place; a refresh overwrites the whole entry.
type CacheEntry struct {
	Quote     Quote     `json:"quote"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsFresh reports whether the entry is still within its TTL at the given time.
func (e CacheEntry) IsFresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// RateCache holds quotes keyed by pair, each stamped with an expiry computed
// from a per-call TTL. Staleness is evaluated lazily at read time; there is
// no eviction goroutine, and expired entries stay available for the
// aggregator's offline fallback until overwritten.
//
// A sync.Map gives exactly the required concurrency contract: lookups and
// stores for different pairs never block each other, while a store for one
// pair is atomic with respect to its readers.
type RateCache struct {
	entries sync.Map // Pair.Key() -> CacheEntry

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewRateCache creates an empty cache using the wall clock.
func NewRateCache() *RateCache {
	return &RateCache{now: time.Now}
}

// Get returns the cached quote for the pair and its freshness. The returned
// quote is the zero value when freshness is Missing.
func (c *RateCache) Get(pair Pair) (Quote, Freshness) {
	v, ok := c.entries.Load(pair.Key())
	if !ok {
		return Quote{}, Missing
	}
	entry := v.(CacheEntry)
	if entry.IsFresh(c.now()) {
		return entry.Quote, Fresh
	}
	return entry.Quote, Stale
}

// Put stores or overwrites the entry for the quote's pair, expiring ttl after
// the quote's fetch time.
func (c *RateCache) Put(quote Quote, ttl time.Duration) {
	c.entries.Store(quote.Pair.Key(), CacheEntry{
		Quote:     quote,
		ExpiresAt: quote.FetchedAt.Add(ttl),
	})
}

// Len returns the number of cached entries.
func (c *RateCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Entries returns a snapshot of all cached entries sorted by pair key, for
// persistence and status reporting.
func (c *RateCache) Entries() []CacheEntry {
	var all []CacheEntry
	c.entries.Range(func(_, v any) bool {
		all = append(all, v.(CacheEntry))
		return true
	})
	slices.SortFunc(all, func(a, b CacheEntry) int {
		return strings.Compare(a.Quote.Pair.Key(), b.Quote.Pair.Key())
	})
	return all
}

// Restore loads previously persisted entries, overwriting any current ones.
// Expired entries are kept: they are the stale fallback after a restart.
func (c *RateCache) Restore(entries []CacheEntry) {
	for _, e := range entries {
		c.entries.Store(e.Quote.Pair.Key(), e)
	}
}
