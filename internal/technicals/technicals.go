// Package technicals computes the fixed set of indicators the scanner uses
// (spec.md §4.1/§9 REDESIGN FLAG #3) from historical OHLCV bars, using
// go-talib exactly the way trader/pkg/formulas and trader-go/pkg/formulas
// do: one small wrapper function per indicator, returning the last computed
// value (or nil when there isn't enough history), never a raw talib slice.
package technicals

import (
	"github.com/markcheno/go-talib"

	"github.com/pmccscan/pmccscan/internal/domain"
)

// Compute derives every indicator in domain.TechnicalIndicators from a
// chronologically ordered (oldest first) slice of bars. Indicators that
// need more history than is available are left nil rather than computed
// from a too-short series, matching CalculateRSI/CalculateBollingerBands's
// insufficient-data guard.
func Compute(bars []domain.Bar) domain.TechnicalIndicators {
	closes := closesOf(bars)
	highs := highsOf(bars)
	lows := lowsOf(bars)

	out := domain.TechnicalIndicators{
		RSI14:  rsi(closes, 14),
		ATR14:  atr(highs, lows, closes, 14),
		SMA20:  sma(closes, 20),
		SMA50:  sma(closes, 50),
		SMA200: sma(closes, 200),
	}
	out.MACD, out.MACDSignal, out.MACDHistogram = macd(closes, 12, 26, 9)

	upper, middle, lower := bollinger(closes, 20, 2.0)
	out.BollingerUpper, out.BollingerMiddle, out.BollingerLower = upper, middle, lower
	out.BollingerPosition = bollingerPosition(closes, upper, lower)

	return out
}

func closesOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func highsOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lowsOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func rsi(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	out := talib.Rsi(closes, period)
	return lastValid(out)
}

func atr(highs, lows, closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	out := talib.Atr(highs, lows, closes, period)
	return lastValid(out)
}

func sma(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	out := talib.Sma(closes, period)
	return lastValid(out)
}

func macd(closes []float64, fast, slow, signal int) (*float64, *float64, *float64) {
	if len(closes) < slow+signal {
		return nil, nil, nil
	}
	m, s, h := talib.Macd(closes, fast, slow, signal)
	return lastValid(m), lastValid(s), lastValid(h)
}

func bollinger(closes []float64, period int, stdDev float64) (*float64, *float64, *float64) {
	if len(closes) < period {
		return nil, nil, nil
	}
	// MAType 0 = SMA, matching trader/pkg/formulas/bollinger.go's usage.
	upper, middle, lower := talib.BBands(closes, period, stdDev, stdDev, 0)
	return lastValid(upper), lastValid(middle), lastValid(lower)
}

// bollingerPosition places the latest close within [0,1] between the lower
// and upper bands, clamped at the edges when price trades outside the
// bands, matching CalculateBollingerPosition's behavior.
func bollingerPosition(closes []float64, upper, lower *float64) *float64 {
	if len(closes) == 0 || upper == nil || lower == nil {
		return nil
	}
	width := *upper - *lower
	if width == 0 {
		p := 0.5
		return &p
	}
	pos := (closes[len(closes)-1] - *lower) / width
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return &pos
}

func lastValid(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if v != v { // NaN
		return nil
	}
	return &v
}
