package ai

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
	"github.com/pmccscan/pmccscan/internal/router"
)

type fakeAIProvider struct {
	completeness float64
	pmccScore    float64
	failAnalysis bool
}

func (f fakeAIProvider) Name() string         { return "fake" }
func (f fakeAIProvider) Type() providers.Type { return providers.TypeClaude }
func (f fakeAIProvider) SupportsOperation(op providers.Operation) bool {
	return op == providers.OpGetEnhancedStockData || op == providers.OpAnalyzePMCCOpportunity
}
func (f fakeAIProvider) HealthCheck(ctx context.Context) domain.Envelope[domain.ProviderHealth] {
	return providers.NotSupported[domain.ProviderHealth]("fake", providers.OpHealthCheck)
}
func (f fakeAIProvider) GetStockQuote(ctx context.Context, symbol string) domain.Envelope[domain.StockQuote] {
	return providers.NotSupported[domain.StockQuote]("fake", providers.OpGetStockQuote)
}
func (f fakeAIProvider) GetStockQuotes(ctx context.Context, symbols []string) domain.Envelope[[]domain.StockQuote] {
	return providers.NotSupported[[]domain.StockQuote]("fake", providers.OpGetStockQuotes)
}
func (f fakeAIProvider) GetOptionsChain(ctx context.Context, args providers.OptionsChainArgs) domain.Envelope[domain.OptionChain] {
	return providers.NotSupported[domain.OptionChain]("fake", providers.OpGetOptionsChain)
}
func (f fakeAIProvider) ScreenStocks(ctx context.Context, c domain.ScreeningCriteria) domain.Envelope[[]domain.ScreenerResult] {
	return providers.NotSupported[[]domain.ScreenerResult]("fake", providers.OpScreenStocks)
}
func (f fakeAIProvider) GetFundamentalData(ctx context.Context, symbol string) domain.Envelope[domain.FundamentalMetrics] {
	return providers.NotSupported[domain.FundamentalMetrics]("fake", providers.OpGetFundamentalData)
}
func (f fakeAIProvider) GetCalendarEvents(ctx context.Context, args providers.CalendarEventsArgs) domain.Envelope[[]domain.CalendarEvent] {
	return providers.NotSupported[[]domain.CalendarEvent]("fake", providers.OpGetCalendarEvents)
}
func (f fakeAIProvider) GetTechnicalIndicators(ctx context.Context, symbol string) domain.Envelope[domain.TechnicalIndicators] {
	return providers.NotSupported[domain.TechnicalIndicators]("fake", providers.OpGetTechnicalIndicators)
}
func (f fakeAIProvider) GetCompanyNews(ctx context.Context, args providers.CompanyNewsArgs) domain.Envelope[[]domain.NewsItem] {
	return providers.NotSupported[[]domain.NewsItem]("fake", providers.OpGetCompanyNews)
}
func (f fakeAIProvider) GetEconomicEvents(ctx context.Context, args providers.EconomicEventsArgs) domain.Envelope[[]domain.EconEvent] {
	return providers.NotSupported[[]domain.EconEvent]("fake", providers.OpGetEconomicEvents)
}
func (f fakeAIProvider) GetHistoricalPrices(ctx context.Context, args providers.HistoricalPricesArgs) domain.Envelope[[]domain.Bar] {
	return providers.NotSupported[[]domain.Bar]("fake", providers.OpGetHistoricalPrices)
}
func (f fakeAIProvider) GetEnhancedStockData(ctx context.Context, symbol string) domain.Envelope[domain.EnhancedStockData] {
	return domain.Ok(domain.EnhancedStockData{Symbol: symbol, CompletenessScore: f.completeness})
}
func (f fakeAIProvider) AnalyzePMCCOpportunity(ctx context.Context, args providers.AnalyzeOpportunityArgs) domain.Envelope[domain.AIAnalysis] {
	if f.failAnalysis {
		return domain.Error[domain.AIAnalysis](&domain.ProviderError{Kind: domain.ErrParse, Provider: "fake", Message: "bad json"})
	}
	return domain.Ok(domain.AIAnalysis{
		Symbol: args.Candidate.Symbol, PMCCScore: f.pmccScore, Recommendation: domain.RecommendBuy,
		ConfidenceLevel: 80, ManagementStrategy: "roll the short call at 21 DTE",
	})
}

func testCandidate(t *testing.T, symbol string, totalScore float64) *domain.PMCCCandidate {
	t.Helper()
	long := domain.OptionContract{Side: domain.Call, Strike: 70, DTE: 400}
	short := domain.OptionContract{Side: domain.Call, Strike: 110, DTE: 30}
	risk := domain.RiskMetrics{MaxLoss: decimal.NewFromInt(10), MaxProfit: decimal.NewFromInt(10), RiskReward: 1}
	c, err := domain.NewPMCCCandidate(symbol, 100, long, short, decimal.NewFromInt(10), risk)
	require.NoError(t, err)
	c.TotalScore = totalScore
	return c
}

func TestAugmentMergesCombinedScore(t *testing.T) {
	r := router.New(router.Config{}, zerolog.Nop())
	r.Register(fakeAIProvider{completeness: 90, pmccScore: 80})

	a := New(r, Config{Enabled: true, MinCompleteness: 60, DailyCostLimitUSD: 10}, zerolog.Nop())
	c := testCandidate(t, "AAPL", 60)

	warnings := a.Augment(context.Background(), []*domain.PMCCCandidate{c})
	assert.Empty(t, warnings)
	require.NotNil(t, c.CombinedScore)
	assert.InDelta(t, 0.6*60+0.4*80, *c.CombinedScore, 0.001)
	assert.Equal(t, "buy", *c.AIRecommendation)
}

func TestAugmentSkipsWhenDisabled(t *testing.T) {
	r := router.New(router.Config{}, zerolog.Nop())
	r.Register(fakeAIProvider{completeness: 90, pmccScore: 80})

	a := New(r, Config{Enabled: false}, zerolog.Nop())
	c := testCandidate(t, "AAPL", 60)

	warnings := a.Augment(context.Background(), []*domain.PMCCCandidate{c})
	assert.Empty(t, warnings)
	assert.Nil(t, c.CombinedScore)
}

func TestAugmentSkipsBelowCompletenessThreshold(t *testing.T) {
	r := router.New(router.Config{}, zerolog.Nop())
	r.Register(fakeAIProvider{completeness: 10, pmccScore: 80})

	a := New(r, Config{Enabled: true, MinCompleteness: 60}, zerolog.Nop())
	c := testCandidate(t, "AAPL", 60)

	warnings := a.Augment(context.Background(), []*domain.PMCCCandidate{c})
	require.Len(t, warnings, 1)
	assert.Nil(t, c.CombinedScore)
}

func TestAugmentSkipsOnceDailyBudgetExhausted(t *testing.T) {
	r := router.New(router.Config{}, zerolog.Nop())
	r.Register(fakeAIProvider{completeness: 90, pmccScore: 80})

	a := New(r, Config{Enabled: true, MinCompleteness: 60, DailyCostLimitUSD: costPerAnalysis}, zerolog.Nop())
	c1 := testCandidate(t, "AAPL", 60)
	c2 := testCandidate(t, "MSFT", 60)

	a.Augment(context.Background(), []*domain.PMCCCandidate{c1})
	warnings := a.Augment(context.Background(), []*domain.PMCCCandidate{c2})

	require.Len(t, warnings, 1)
	assert.Nil(t, c2.CombinedScore)
}

func TestAugmentRecordsWarningOnAnalysisFailureWithoutPanicking(t *testing.T) {
	r := router.New(router.Config{}, zerolog.Nop())
	r.Register(fakeAIProvider{completeness: 90, failAnalysis: true})

	a := New(r, Config{Enabled: true, MinCompleteness: 60, DailyCostLimitUSD: 10}, zerolog.Nop())
	c := testCandidate(t, "AAPL", 60)

	warnings := a.Augment(context.Background(), []*domain.PMCCCandidate{c})
	require.Len(t, warnings, 1)
	assert.Nil(t, c.CombinedScore)
}
