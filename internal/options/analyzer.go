// Package options implements the PMCC options analyzer (C4): partitioning
// an option chain into LEAPS/short candidates, bounded-cross-product
// pairing, scoring, and the edge-case policy of spec.md §4.4 — the core
// domain algorithm of the whole system.
package options

import (
	"sort"
	"time"

	"github.com/pmccscan/pmccscan/internal/domain"
)

// Analyze runs the full C4 pipeline against one symbol's option chain:
// partition into LEAPS/short candidates, bound and pair them, score every
// surviving pair, and return candidates ranked best-first. A chain whose
// quote is older than staleQuoteWindow is still usable (spec.md §4.4 says
// stale quotes are flagged, not discarded) — StaleQuote records that on
// every candidate produced from it.
func Analyze(chain domain.OptionChain, criteria Criteria) []*domain.PMCCCandidate {
	criteria = criteria.WithDefaults()

	leaps, shorts := Partition(chain, criteria)
	if len(leaps) == 0 || len(shorts) == 0 {
		return nil
	}

	stampDTE(leaps, chain.Updated)
	stampDTE(shorts, chain.Updated)

	candidates := Pair(chain.Underlying, chain.UnderlyingPrice, leaps, shorts, criteria)

	stale := isStale(chain.Updated)
	for _, c := range candidates {
		c.StaleQuote = stale
	}

	sort.Slice(candidates, func(i, j int) bool {
		return lessCandidate(candidates[j], candidates[i])
	})
	for i, c := range candidates {
		c.Rank = i + 1
	}
	return candidates
}

// lessCandidate orders candidates for ranking: TotalScore descending, ties
// broken by liquidity descending then risk_reward descending (spec.md
// §4.4's tie-break rule).
func lessCandidate(a, b *domain.PMCCCandidate) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore < b.TotalScore
	}
	if a.Scores.Liquidity != b.Scores.Liquidity {
		return a.Scores.Liquidity < b.Scores.Liquidity
	}
	return a.Risk.RiskReward < b.Risk.RiskReward
}

// stampDTE overwrites each contract's DTE field with its value computed
// against the chain's own Updated timestamp, so downstream comparisons
// (NewPMCCCandidate's LongCall.DTE > ShortCall.DTE check) see a consistent
// figure even when the upstream adapter left DTE unset.
func stampDTE(contracts []domain.OptionContract, asOf time.Time) {
	for i := range contracts {
		contracts[i].DTE = dte(contracts[i], asOf)
	}
}

func isStale(updated time.Time) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) > staleQuoteWindow
}
