package options

import (
	"sort"
	"time"

	"github.com/pmccscan/pmccscan/internal/domain"
)

const staleQuoteWindow = 24 * time.Hour

// dte computes days-to-expiration from an expiration date against the
// chain's updated timestamp, used only when a contract's own DTE field
// wasn't populated by the adapter.
func dte(c domain.OptionContract, asOf time.Time) int {
	if c.DTE != 0 {
		return c.DTE
	}
	d := c.Expiration.Sub(asOf)
	return int(d.Hours() / 24)
}

// Partition splits a chain's calls into LEAPS and short candidates per the
// edge-case policy and thresholds of spec.md §4.4: missing Greeks, crossed
// markets, and zero-OI-zero-volume contracts are discarded outright before
// either bucket is considered.
func Partition(chain domain.OptionChain, criteria Criteria) (leaps, shorts []domain.OptionContract) {
	for _, c := range chain.Calls() {
		if c.Crossed() || c.IlliquidNoInterest() || !c.HasGreeks() {
			continue
		}

		d := dte(c, chain.Updated)
		spread := c.SpreadPct()
		if spread < 0 {
			continue
		}

		switch {
		case isLEAPSCandidate(c, d, spread, criteria):
			leaps = append(leaps, c)
		case isShortCandidate(c, d, spread, criteria):
			shorts = append(shorts, c)
		}
	}

	sort.Slice(leaps, func(i, j int) bool { return deltaOf(leaps[i]) > deltaOf(leaps[j]) })
	sort.Slice(shorts, func(i, j int) bool { return shorts[i].Bid > shorts[j].Bid })

	if len(leaps) > criteria.MaxPairsPerSide {
		leaps = leaps[:criteria.MaxPairsPerSide]
	}
	if len(shorts) > criteria.MaxPairsPerSide {
		shorts = shorts[:criteria.MaxPairsPerSide]
	}
	return leaps, shorts
}

func isLEAPSCandidate(c domain.OptionContract, d int, spread float64, cr Criteria) bool {
	if d < cr.LEAPSMinDTE || d > cr.LEAPSMaxDTE {
		return false
	}
	delta := deltaOf(c)
	if delta < cr.LEAPSMinDelta || delta > cr.LEAPSMaxDelta {
		return false
	}
	if !c.InTheMoney() {
		return false
	}
	if spread > cr.LEAPSMaxSpreadPct {
		return false
	}
	return c.OpenInterest >= cr.LEAPSMinOpenInterest
}

func isShortCandidate(c domain.OptionContract, d int, spread float64, cr Criteria) bool {
	if d < cr.ShortMinDTE || d > cr.ShortMaxDTE {
		return false
	}
	delta := deltaOf(c)
	if delta < cr.ShortMinDelta || delta > cr.ShortMaxDelta {
		return false
	}
	if c.InTheMoney() {
		return false // must be OTM relative to current price
	}
	if spread > cr.ShortMaxSpreadPct {
		return false
	}
	return c.OpenInterest >= cr.ShortMinOpenInterest
}

func deltaOf(c domain.OptionContract) float64 {
	if c.Delta == nil {
		return 0
	}
	return *c.Delta
}
