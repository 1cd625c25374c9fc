package domain

// AIRecommendation is the closed set of recommendations the AI analyst
// provider may return (spec.md §4.7).
type AIRecommendation string

const (
	RecommendBuy   AIRecommendation = "buy"
	RecommendHold  AIRecommendation = "hold"
	RecommendAvoid AIRecommendation = "avoid"
)

// AIAnalysis is the strict, parsed response from analyze_pmcc_opportunity
// (spec.md §4.7 step 4).
type AIAnalysis struct {
	Symbol                  string
	PMCCScore               float64 // 0-100
	ExecutionRiskScore      float64
	FinancialStabilityScore float64
	CalendarEventScore      float64
	TechnicalSetupScore     float64
	Recommendation          AIRecommendation
	ConfidenceLevel         float64 // 0-100
	KeyRisks                []string
	KeyOpportunities        []string
	ManagementStrategy      string
	EntryTiming             string
	ExitConditions          []string
	PositionSizing          string
}

// AIAnalysisRequest is the context package assembled for a single candidate
// before issuing analyze_pmcc_opportunity (spec.md §4.7 step 2). Fields are
// left as pointers/zero-length slices so the JSON-free prompt builder can
// detect "absent" and omit it, rather than rendering a sentinel.
type AIAnalysisRequest struct {
	Candidate   *PMCCCandidate
	Enhanced    *EnhancedStockData
	MarketCtx   map[string]string
}
