package options

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pmccscan/pmccscan/internal/domain"
)

// spreadScore applies the "~10 points per 1% spread" linear penalty from
// spec.md §4.4, grounded on original_source's
// src/models/pmcc_models.py::calculate_liquidity_score — spreadPct is a
// fraction (0.05 == 5%).
func spreadScore(spreadPct float64) float64 {
	score := 100 - spreadPct*100*10
	return clamp(score, 0, 100)
}

// volumeOIScore combines log-scaled volume and open interest into a single
// 0-100 score. Log scaling keeps a handful of extra contracts from
// dominating the way a linear scale would; the constant is tuned so
// typical liquid LEAPS names (volume/OI in the thousands) land near the
// top of the range without saturating illiquid single-digit-OI names at
// zero.
func volumeOIScore(volume, openInterest int64) float64 {
	const logScale = 12.5
	v := math.Log10(float64(volume) + 1)
	oi := math.Log10(float64(openInterest) + 1)
	return clamp((v+oi)*logScale, 0, 100)
}

// LiquidityScore is the liquidity sub-score per spec.md §4.4 (weighted by
// Criteria.WeightLiquidity in TotalScore): LEAPS spread 40%, short spread
// 30%, combined log-volume+log-OI 30%.
func LiquidityScore(long, short domain.OptionContract) float64 {
	leapsSpread := spreadScore(long.SpreadPct())
	shortSpread := spreadScore(short.SpreadPct())
	volOI := volumeOIScore(long.Volume+short.Volume, long.OpenInterest+short.OpenInterest)
	return leapsSpread*0.4 + shortSpread*0.3 + volOI*0.3
}

// ProbabilityScore is the qualitative 0-100 proxy for how likely the spread
// is to be profitable: distance from breakeven to the current underlying
// price (closer is better, modeled via a normal CDF the way
// trader/pkg/formulas/stats.go uses gonum for portfolio statistics rather
// than an ad hoc linear formula), short DTE centered in its allowed window,
// and LEAPS delta centered near 0.80 (spec.md §4.4).
func ProbabilityScore(underlyingPrice float64, breakeven float64, shortDTE int, longDelta float64, cr Criteria) float64 {
	breakevenScore := breakevenProximityScore(underlyingPrice, breakeven)
	dteScore := centeredScore(float64(shortDTE), float64(cr.ShortMinDTE), float64(cr.ShortMaxDTE))
	deltaScore := 100 - math.Abs(longDelta-0.80)*500 // 0.02 delta off target costs 10 points
	deltaScore = clamp(deltaScore, 0, 100)

	return breakevenScore*0.4 + dteScore*0.3 + deltaScore*0.3
}

// breakevenProximityScore models "closer breakeven to current price is
// better" with a normal distribution centered on the underlying price: the
// implied move estimate (sigma) is a fixed fraction of the underlying price,
// giving a principled, reproducible curve instead of a hand-tuned linear
// ramp.
func breakevenProximityScore(underlyingPrice, breakeven float64) float64 {
	if underlyingPrice <= 0 {
		return 0
	}
	const impliedMoveFraction = 0.15 // ~15% of spot as a one-sigma move estimate
	sigma := underlyingPrice * impliedMoveFraction
	if sigma <= 0 {
		return 0
	}
	dist := distuv.Normal{Mu: underlyingPrice, Sigma: sigma}
	// CDF(breakeven) is the probability the underlying finishes below
	// breakeven; 1-CDF is the probability of finishing above it (profitable
	// at expiration for a call spread), scaled to 0-100.
	return clamp((1-dist.CDF(breakeven))*100, 0, 100)
}

// centeredScore scores x's position within [min,max], peaking at 100 at the
// midpoint and falling off linearly to 0 at either edge.
func centeredScore(x, min, max float64) float64 {
	if max <= min {
		return 50
	}
	mid := (min + max) / 2
	halfWidth := (max - min) / 2
	distance := math.Abs(x - mid)
	return clamp(100*(1-distance/halfWidth), 0, 100)
}

// ROIPotentialScore maps risk_reward onto a 0-100 scale: a risk_reward of
// 1.0 or higher (profit potential at least matching capital at risk) scores
// 100; below that it scales linearly.
func ROIPotentialScore(riskReward float64) float64 {
	if riskReward <= 0 {
		return 0
	}
	return clamp(riskReward*100, 0, 100)
}

// TotalScore combines the four weighted sub-scores (spec.md §4.4).
func TotalScore(roi, riskReward, probability, liquidity float64, cr Criteria) float64 {
	return roi*cr.WeightROI + riskReward*cr.WeightRiskReward + probability*cr.WeightProbability + liquidity*cr.WeightLiquidity
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
