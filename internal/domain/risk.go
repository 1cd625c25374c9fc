package domain

import "github.com/shopspring/decimal"

// RiskMetrics holds the position-level risk figures derived in C5 (spec.md §3, §4.5).
//
// Monetary fields are exact decimals — no binary floats participate in the
// price arithmetic (net debit, max profit/loss, breakeven) per the redesign
// note in spec.md §9 that unifies the Decimal/float mixing bug in the source.
type RiskMetrics struct {
	MaxLoss     decimal.Decimal
	MaxProfit   decimal.Decimal
	Breakeven   decimal.Decimal
	RiskReward  float64 // a ratio, not a cash amount: float64 is appropriate here
	NetDelta    *float64
	NetGamma    *float64
	NetTheta    *float64
	NetVega     *float64
}
