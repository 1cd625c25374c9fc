package domain

import "time"

// StockQuote is a point-in-time price snapshot for a single underlying.
//
// Invariant: Last > 0 when present. If both Bid and Ask are present, Bid <= Ask.
type StockQuote struct {
	Symbol         string
	Last           float64
	Bid            float64
	Ask            float64
	Volume         int64
	Timestamp      time.Time
	Change         float64
	ChangePercent  float64
	PreviousClose  float64
	MarketCap      *int64
}

// Valid reports whether the quote satisfies the invariants in SPEC_FULL.md §3.
func (q StockQuote) Valid() bool {
	if q.Last <= 0 {
		return false
	}
	if q.Bid > 0 && q.Ask > 0 && q.Bid > q.Ask {
		return false
	}
	return true
}

// Stale reports whether the quote is older than the given staleness window.
// A stale quote is still usable (spec.md §4.4 edge-case policy) but callers
// should flag it.
func (q StockQuote) Stale(maxAge time.Duration) bool {
	if q.Timestamp.IsZero() {
		return false
	}
	return time.Since(q.Timestamp) > maxAge
}
