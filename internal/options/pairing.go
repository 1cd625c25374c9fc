package options

import (
	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/risk"
)

// Pair runs the bounded cross-product over the already-capped leaps/shorts
// lists from Partition, validates each combination against the PMCC
// invariant and the minimum risk_reward threshold, then keeps only the
// single best-scoring pair per (long expiration, short expiration) bucket
// (spec.md §4.4 steps 3-4).
func Pair(symbol string, underlyingPrice float64, leaps, shorts []domain.OptionContract, cr Criteria) []*domain.PMCCCandidate {
	type bucketKey struct {
		longExp, shortExp string
	}
	best := make(map[bucketKey]*domain.PMCCCandidate)

	for _, long := range leaps {
		for _, short := range shorts {
			candidate, ok := tryPair(symbol, underlyingPrice, long, short, cr)
			if !ok {
				continue
			}

			key := bucketKey{
				longExp:  candidate.LongCall.Expiration.Format("2006-01-02"),
				shortExp: candidate.ShortCall.Expiration.Format("2006-01-02"),
			}
			existing, present := best[key]
			if !present || candidate.TotalScore > existing.TotalScore {
				best[key] = candidate
			}
		}
	}

	out := make([]*domain.PMCCCandidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	return out
}

// tryPair validates one long/short combination and, if valid, scores it.
// Scoring happens here (rather than in a later pass) because the
// best-per-bucket comparison in Pair needs TotalScore already populated.
func tryPair(symbol string, underlyingPrice float64, long, short domain.OptionContract, cr Criteria) (*domain.PMCCCandidate, bool) {
	if long.Strike >= short.Strike {
		return nil, false
	}
	if long.DTE <= short.DTE {
		return nil, false
	}
	if short.Strike <= underlyingPrice {
		return nil, false
	}

	netDebit := risk.NetDebit(long, short)
	if netDebit.Sign() <= 0 {
		return nil, false
	}

	rm := risk.Calculate(long, short, netDebit)
	if rm.MaxProfit.Sign() <= 0 {
		return nil, false
	}
	if rm.RiskReward < cr.MinRiskReward {
		return nil, false
	}

	candidate, err := domain.NewPMCCCandidate(symbol, underlyingPrice, long, short, netDebit, rm)
	if err != nil {
		return nil, false
	}

	breakeven, _ := rm.Breakeven.Float64()
	liquidity := LiquidityScore(long, short)
	probability := ProbabilityScore(underlyingPrice, breakeven, short.DTE, deltaOf(long), cr)
	roi := ROIPotentialScore(rm.RiskReward)

	candidate.Scores = domain.SubScores{
		Liquidity:    liquidity,
		Probability:  probability,
		ROIPotential: roi,
	}
	candidate.TotalScore = TotalScore(roi, scaleRiskReward(rm.RiskReward), probability, liquidity, cr)

	return candidate, true
}

// scaleRiskReward maps risk_reward onto the same 0-100 scale ROIPotential
// uses so the weighted sum in TotalScore combines like-scaled terms; it is
// deliberately identical to ROIPotentialScore's formula since both quantify
// the same ratio for different purposes (spec.md §4.4 lists ROI_potential
// and risk_reward as separate weighted terms even though both derive from
// the spread's profit-to-risk ratio).
func scaleRiskReward(riskReward float64) float64 {
	return ROIPotentialScore(riskReward)
}
