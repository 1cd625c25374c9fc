package domain

import "time"

// FundamentalMetrics is the fixed, named schema the fundamentals adapter
// reduces every upstream payload to (spec.md §4.1: "raw payloads are never
// leaked beyond the adapter"). Grounded on
// trader/internal/clients/yahoo/client.go's FundamentalData.
type FundamentalMetrics struct {
	Symbol                   string
	PERatio                  *float64
	ForwardPE                *float64
	PEGRatio                 *float64
	PriceToBook              *float64
	RevenueGrowth            *float64
	EarningsGrowth           *float64
	ProfitMargin             *float64
	OperatingMargin          *float64
	ROE                      *float64
	DebtToEquity             *float64
	CurrentRatio             *float64
	MarketCap                *int64
	DividendYield            *float64
	FiveYearAvgDividendYield *float64

	// Most-recent-quarter snapshots. The fundamentals adapter does not read
	// quarterly statements, so nothing in this module fills these three
	// snapshots; they stay zero-valued.
	BalanceSheet BalanceSheetSnapshot
	CashFlow     CashFlowSnapshot
	Income       IncomeSnapshot
}

// BalanceSheetSnapshot is the most recent quarter's balance sheet, reduced
// to the fields the scoring/AI-context stages actually consume.
type BalanceSheetSnapshot struct {
	QuarterEnd      time.Time
	TotalAssets     *float64
	TotalLiabilities *float64
	TotalEquity     *float64
	CashAndEquiv    *float64
	TotalDebt       *float64
}

// CashFlowSnapshot is the most recent quarter's cash flow statement.
type CashFlowSnapshot struct {
	QuarterEnd         time.Time
	OperatingCashFlow  *float64
	FreeCashFlow       *float64
	CapitalExpenditure *float64
}

// IncomeSnapshot is the most recent quarter's income statement.
type IncomeSnapshot struct {
	QuarterEnd   time.Time
	Revenue      *float64
	GrossProfit  *float64
	NetIncome    *float64
	EPS          *float64
}

// AnalystRatings is produced from the same upstream quote-info payload as
// FundamentalMetrics (grounded on yahoo/client.go's GetAnalystData).
type AnalystRatings struct {
	Recommendation string // strong_buy, buy, hold, sell or strong_sell, derived from the upstream 1..5 rating
	TargetPrice    *float64
	CurrentPrice   *float64
	UpsidePercent  *float64
}

// CalendarEventType distinguishes earnings announcements from dividend events.
type CalendarEventType string

const (
	EventEarnings CalendarEventType = "earnings"
	EventDividend CalendarEventType = "dividend"
)

// CalendarEvent is a single upcoming or past earnings/dividend event.
//
// Resolves REDESIGN FLAG #2 (spec.md §9): Date is always the event's
// announcement/ex-date, never the fiscal quarter it reports on. A
// FundamentalMetrics quarter-end is a distinct concept and is never
// substituted here.
type CalendarEvent struct {
	Symbol string
	Type   CalendarEventType
	Date   time.Time
	Label  string // e.g. "Q3 FY25 earnings", "$0.24/share dividend"
}

// NewsItem is a single headline relevant to the symbol.
type NewsItem struct {
	Symbol    string
	Headline  string
	Source    string
	URL       string
	Published time.Time
	Sentiment *float64 // -1..1 when the upstream provides it; nil otherwise
}

// EconEvent is a macro-economic calendar entry (e.g. CPI release, FOMC meeting).
type EconEvent struct {
	Name    string
	Country string
	Date    time.Time
	Impact  string // "low", "medium", "high" as reported upstream
}

// Bar is a single OHLCV candle.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// TechnicalIndicators is the single normalized shape every technical
// indicator leaves the system in. Resolves REDESIGN FLAG #3 (spec.md §9):
// the upstream sometimes returns indicators as strings and sometimes as
// lists-of-dicts; C9 (internal/technicals) always produces this struct by
// computing indicators itself from historical bars, so no caller ever has
// to type-switch on indicator shape.
type TechnicalIndicators struct {
	RSI14            *float64
	ATR14            *float64
	SMA20            *float64
	SMA50            *float64
	SMA200           *float64
	MACD             *float64
	MACDSignal       *float64
	MACDHistogram    *float64
	BollingerUpper   *float64
	BollingerMiddle  *float64
	BollingerLower   *float64
	BollingerPosition *float64 // 0 (at lower band) .. 1 (at upper band)
}

// EnhancedStockData is the composite input to the AI augmentor (spec.md §3).
type EnhancedStockData struct {
	Symbol             string
	Quote              StockQuote
	Fundamentals       *FundamentalMetrics
	Analyst            *AnalystRatings
	Technicals         *TechnicalIndicators
	CalendarEvents     []CalendarEvent
	News               []NewsItem
	EconomicEvents     []EconEvent
	HistoricalPrices   []Bar // capped at 30 days per spec.md §3
	CompletenessScore  float64
}

// ComputeCompleteness derives the 0-100 completeness heuristic from which
// optional sections were populated. Each of the seven optional sections
// (fundamentals, analyst, technicals, calendar, news, economic events,
// history) contributes an equal share; the quote is mandatory and not
// scored.
func (d *EnhancedStockData) ComputeCompleteness() float64 {
	const sections = 7
	have := 0
	if d.Fundamentals != nil {
		have++
	}
	if d.Analyst != nil {
		have++
	}
	if d.Technicals != nil {
		have++
	}
	if len(d.CalendarEvents) > 0 {
		have++
	}
	if len(d.News) > 0 {
		have++
	}
	if len(d.EconomicEvents) > 0 {
		have++
	}
	if len(d.HistoricalPrices) > 0 {
		have++
	}
	score := float64(have) / float64(sections) * 100
	d.CompletenessScore = score
	return score
}
