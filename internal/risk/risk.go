// Package risk computes PMCC position risk metrics with exact decimal
// arithmetic, resolving the Decimal/float mixing bug flagged in spec.md §9.
// Grounded on the formula shapes in original_source's
// src/models/pmcc_models.py (calculate_risk_metrics), re-expressed with
// shopspring/decimal the way tommy-ca-opensqt_market_maker uses it for
// money throughout its order book and fill simulation.
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/pmccscan/pmccscan/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Calculate derives a PMCCCandidate's risk block from the long/short legs
// and the net debit paid to enter the position.
//
//   MaxLoss   = NetDebit (the most the position can lose is what was paid)
//   MaxProfit = (ShortStrike - LongStrike) - NetDebit, the width of the
//               spread less what was paid for it
//   Breakeven = LongStrike + NetDebit
//   RiskReward = MaxProfit / MaxLoss when MaxLoss > 0, else 0
//
// Net Greeks are a simple long-minus-short combination; nil propagates
// (a leg missing a Greek makes the combined figure unavailable rather than
// silently treating the missing value as zero).
func Calculate(long, short domain.OptionContract, netDebit decimal.Decimal) domain.RiskMetrics {
	width := decimal.NewFromFloat(short.Strike - long.Strike)
	maxProfit := width.Sub(netDebit)
	breakeven := decimal.NewFromFloat(long.Strike).Add(netDebit)

	riskReward := 0.0
	if netDebit.Sign() > 0 {
		rr, _ := maxProfit.Div(netDebit).Float64()
		riskReward = rr
	}

	return domain.RiskMetrics{
		MaxLoss:    netDebit,
		MaxProfit:  maxProfit,
		Breakeven:  breakeven,
		RiskReward: riskReward,
		NetDelta:   combine(long.Delta, short.Delta),
		NetGamma:   combine(long.Gamma, short.Gamma),
		NetTheta:   combine(long.Theta, short.Theta),
		NetVega:    combine(long.Vega, short.Vega),
	}
}

// NetDebit is LongCall.Ask - ShortCall.Bid, expressed as an exact decimal so
// the subsequent max-profit and breakeven figures never accumulate binary
// floating point error (spec.md §9).
func NetDebit(long, short domain.OptionContract) decimal.Decimal {
	return decimal.NewFromFloat(long.Ask).Sub(decimal.NewFromFloat(short.Bid))
}

func combine(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}
