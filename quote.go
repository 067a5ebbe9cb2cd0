package valutatrade

import "time"

// Quote is a resolved exchange rate for a pair, stamped with the provider
// that produced it and the time it was fetched. Quotes are immutable once
// created.
type Quote struct {
	Pair      Pair      `json:"pair"`
	Price     Rate      `json:"price"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Freshness is the state of a cache entry relative to the current time and
// its TTL.
type Freshness int

const (
	// Missing means no entry exists for the pair.
	Missing Freshness = iota
	// Fresh means an entry exists and has not expired.
	Fresh
	// Stale means an entry exists but its TTL has elapsed. Stale entries
	// remain available for offline fallback until overwritten.
	Stale
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// Resolution records how a quote was obtained by the aggregator.
type Resolution string

const (
	// ResolvedFreshCache means the quote was served from an unexpired cache entry.
	ResolvedFreshCache Resolution = "fresh-cache"
	// ResolvedProvider means the quote was fetched from a remote provider.
	ResolvedProvider Resolution = "provider"
	// ResolvedStaleCache means every provider failed and an expired cache
	// entry was served instead (degraded mode).
	ResolvedStaleCache Resolution = "stale-cache"
	// ResolvedIdentity means base and quote are the same currency, the rate
	// is 1 by construction and neither cache nor providers were consulted.
	ResolvedIdentity Resolution = "identity"
)
