package valutatrade

import (
	"iter"
	"slices"
	"sync"
	"time"
)

// HistoryRecord is one resolved rate: the quote plus how it was obtained.
// Records are created once and never mutated or deleted.
type HistoryRecord struct {
	ID          string
	Quote       Quote
	ResolvedVia Resolution
}

// HistoryLog is the append-only record of every resolved rate, independent of
// portfolio activity. Insertion order is chronological order.
type HistoryLog struct {
	mu      sync.Mutex
	records []HistoryRecord
}

// NewHistoryLog creates an empty history log.
func NewHistoryLog() *HistoryLog {
	return &HistoryLog{}
}

// Append records a resolved rate. A local append does not fail.
func (h *HistoryLog) Append(records ...HistoryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, records...)
}

// Len returns the number of records.
func (h *HistoryLog) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Records returns a restartable sequence of the records for a pair fetched
// within [since, until], in fetch-time ascending order. A zero since or until
// leaves that bound open; a zero pair matches every pair.
//
// Insertion order is not fetch-time order across pairs: a cache hit is
// recorded at resolution time but carries the older FetchedAt of the cached
// quote, so the matches are sorted before iteration. The sort is stable,
// records sharing a fetch time keep their insertion order.
func (h *HistoryLog) Records(pair Pair, since, until time.Time) iter.Seq[HistoryRecord] {
	h.mu.Lock()
	snapshot := h.records[:len(h.records):len(h.records)]
	h.mu.Unlock()

	var matches []HistoryRecord
	for _, rec := range snapshot {
		if !pair.IsZero() && rec.Quote.Pair != pair {
			continue
		}
		at := rec.Quote.FetchedAt
		if !since.IsZero() && at.Before(since) {
			continue
		}
		if !until.IsZero() && at.After(until) {
			continue
		}
		matches = append(matches, rec)
	}
	slices.SortStableFunc(matches, func(a, b HistoryRecord) int {
		return a.Quote.FetchedAt.Compare(b.Quote.FetchedAt)
	})

	return func(yield func(HistoryRecord) bool) {
		for _, rec := range matches {
			if !yield(rec) {
				return
			}
		}
	}
}

// All returns a lazy sequence over every record in insertion order.
func (h *HistoryLog) All() iter.Seq[HistoryRecord] {
	// The log is append-only, so a snapshot of the slice header is a stable
	// view for the whole iteration.
	h.mu.Lock()
	snapshot := h.records[:len(h.records):len(h.records)]
	h.mu.Unlock()

	return func(yield func(HistoryRecord) bool) {
		for _, rec := range snapshot {
			if !yield(rec) {
				return
			}
		}
	}
}
