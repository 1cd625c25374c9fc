package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubScores holds the 0-100 component scores that feed TotalScore (spec.md §4.4).
// Volatility, Technical and Fundamental are optional, so they are pointers
// rather than zero-valued floats (a zero score and "not computed" must never
// be confused). The options analyzer fills only Liquidity, Probability and
// ROIPotential; nothing in this module sets the three optional scores, so
// they stay nil.
type SubScores struct {
	Liquidity   float64
	Volatility  *float64
	Technical   *float64
	Fundamental *float64
	Probability float64
	ROIPotential float64
}

// PMCCCandidate is one surviving long-LEAPS/short-call pair, fully scored.
//
// Validity invariant (spec.md §3): LongCall.Side == ShortCall.Side == Call,
// LongCall.Strike < ShortCall.Strike, LongCall.DTE > ShortCall.DTE, and
// NetDebit == LongCall.Ask - ShortCall.Bid > 0. NewPMCCCandidate checks the
// sides, strike and DTE ordering, NetDebit > 0 and MaxProfit > 0 at
// construction time; it does not compare NetDebit against the legs' Ask and
// Bid, so that equality rests on the caller that computed NetDebit.
type PMCCCandidate struct {
	Symbol          string
	UnderlyingPrice float64
	LongCall        OptionContract
	ShortCall       OptionContract
	NetDebit        decimal.Decimal
	Risk            RiskMetrics
	Scores          SubScores
	TotalScore      float64
	Rank            int // 0 means unranked

	// StaleQuote flags a candidate built from a chain whose quote is older
	// than the analyzer's staleness window. Per spec.md §4.4 a stale quote
	// is usable, not disqualifying, so this is informational only.
	StaleQuote bool

	// AI fields (§4.7). All nil/zero until the AI augmentor runs; serialized
	// unconditionally (never added post-hoc by mutation elsewhere) per the
	// redesign note in spec.md §9.
	AIInsights          *AIAnalysis
	ClaudeScore         *float64
	CombinedScore       *float64
	ClaudeReasoning     *string
	AIRecommendation    *string
	ClaudeConfidence    *float64
	AIAnalysisTimestamp *time.Time
	IVRank              *float64 // informational only, from original_source's iv_rank (see SPEC_FULL.md §3)

	DiscoveredAt time.Time
}

// ErrInvalidPMCC is returned by NewPMCCCandidate when the proposed pair does
// not satisfy the PMCC validity invariant.
type ErrInvalidPMCC struct {
	Reason string
}

func (e *ErrInvalidPMCC) Error() string { return "invalid PMCC pair: " + e.Reason }

// NewPMCCCandidate validates and constructs a PMCCCandidate from a long/short
// pair and the computed risk block. It is the single place a candidate comes
// into existence, so every candidate that exists anywhere in the system
// satisfies the invariant in spec.md §3.
func NewPMCCCandidate(symbol string, underlyingPrice float64, long, short OptionContract, netDebit decimal.Decimal, risk RiskMetrics) (*PMCCCandidate, error) {
	if long.Side != Call || short.Side != Call {
		return nil, &ErrInvalidPMCC{Reason: "both legs must be calls"}
	}
	if !(long.Strike < short.Strike) {
		return nil, &ErrInvalidPMCC{Reason: "long strike must be below short strike"}
	}
	if !(long.DTE > short.DTE) {
		return nil, &ErrInvalidPMCC{Reason: "long DTE must exceed short DTE"}
	}
	if netDebit.Sign() <= 0 {
		return nil, &ErrInvalidPMCC{Reason: "net debit must be positive"}
	}
	if risk.MaxProfit.Sign() <= 0 {
		return nil, &ErrInvalidPMCC{Reason: "max profit must be positive"}
	}
	return &PMCCCandidate{
		Symbol:          symbol,
		UnderlyingPrice: underlyingPrice,
		LongCall:        long,
		ShortCall:       short,
		NetDebit:        netDebit,
		Risk:            risk,
		DiscoveredAt:    time.Now().UTC(),
	}, nil
}
