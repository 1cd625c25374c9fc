// Package providers defines the common operation catalogue every upstream
// adapter speaks (spec.md §4.1), collapsing the source's many
// provider-specific ad-hoc methods into one interface with capability
// discovery, per the redesign note in spec.md §9.
package providers

import (
	"context"
	"time"

	"github.com/pmccscan/pmccscan/internal/domain"
)

// Operation names the abstract operation catalogue. Using a named string
// type (rather than a hand-rolled interface segregation per operation) lets
// the router build one preference table and one supports_operation check,
// matching how the teacher's adapters are driven by capability rather than
// type assertions.
type Operation string

const (
	OpHealthCheck             Operation = "health_check"
	OpGetStockQuote           Operation = "get_stock_quote"
	OpGetStockQuotes          Operation = "get_stock_quotes"
	OpGetOptionsChain         Operation = "get_options_chain"
	OpScreenStocks            Operation = "screen_stocks"
	OpGetFundamentalData      Operation = "get_fundamental_data"
	OpGetCalendarEvents       Operation = "get_calendar_events"
	OpGetTechnicalIndicators  Operation = "get_technical_indicators"
	OpGetCompanyNews          Operation = "get_company_news"
	OpGetEconomicEvents       Operation = "get_economic_events"
	OpGetHistoricalPrices     Operation = "get_historical_prices"
	OpGetEnhancedStockData    Operation = "get_enhanced_stock_data"
	OpAnalyzePMCCOpportunity  Operation = "analyze_pmcc_opportunity"
)

// Type identifies a concrete provider within the registry (spec.md §4.2).
type Type string

const (
	TypeFundamentals Type = "fundamentals"
	TypeQuotes       Type = "quotes"
	TypeClaude       Type = "claude"
)

// OptionsChainArgs parameterizes get_options_chain.
type OptionsChainArgs struct {
	Symbol          string
	ExpirationFrom  *time.Time
	ExpirationTo    *time.Time
}

// CalendarEventsArgs parameterizes get_calendar_events.
type CalendarEventsArgs struct {
	Symbol string
	Types  []domain.CalendarEventType
	From   time.Time
	To     time.Time
}

// CompanyNewsArgs parameterizes get_company_news.
type CompanyNewsArgs struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

// EconomicEventsArgs parameterizes get_economic_events.
type EconomicEventsArgs struct {
	From    time.Time
	To      time.Time
	Country string
}

// HistoricalPricesArgs parameterizes get_historical_prices.
type HistoricalPricesArgs struct {
	Symbol string
	Period string
	From   time.Time
	To     time.Time
}

// AnalyzeOpportunityArgs parameterizes analyze_pmcc_opportunity.
type AnalyzeOpportunityArgs struct {
	Candidate *domain.PMCCCandidate
	Enhanced  *domain.EnhancedStockData
	MarketCtx map[string]string
}

// Provider is the common operation catalogue (spec.md §4.1). Every adapter
// implements every method; unsupported operations return a NotSupported
// envelope rather than panicking or being omitted from the interface, so
// the router can treat every adapter uniformly and still discover
// capability via SupportsOperation.
type Provider interface {
	Name() string
	Type() Type
	SupportsOperation(op Operation) bool

	HealthCheck(ctx context.Context) domain.Envelope[domain.ProviderHealth]
	GetStockQuote(ctx context.Context, symbol string) domain.Envelope[domain.StockQuote]
	GetStockQuotes(ctx context.Context, symbols []string) domain.Envelope[[]domain.StockQuote]
	GetOptionsChain(ctx context.Context, args OptionsChainArgs) domain.Envelope[domain.OptionChain]
	ScreenStocks(ctx context.Context, criteria domain.ScreeningCriteria) domain.Envelope[[]domain.ScreenerResult]
	GetFundamentalData(ctx context.Context, symbol string) domain.Envelope[domain.FundamentalMetrics]
	GetCalendarEvents(ctx context.Context, args CalendarEventsArgs) domain.Envelope[[]domain.CalendarEvent]
	GetTechnicalIndicators(ctx context.Context, symbol string) domain.Envelope[domain.TechnicalIndicators]
	GetCompanyNews(ctx context.Context, args CompanyNewsArgs) domain.Envelope[[]domain.NewsItem]
	GetEconomicEvents(ctx context.Context, args EconomicEventsArgs) domain.Envelope[[]domain.EconEvent]
	GetHistoricalPrices(ctx context.Context, args HistoricalPricesArgs) domain.Envelope[[]domain.Bar]
	GetEnhancedStockData(ctx context.Context, symbol string) domain.Envelope[domain.EnhancedStockData]
	AnalyzePMCCOpportunity(ctx context.Context, args AnalyzeOpportunityArgs) domain.Envelope[domain.AIAnalysis]
}

// NotSupported builds the standard envelope for an operation a concrete
// adapter doesn't implement.
func NotSupported[T any](providerName string, op Operation) domain.Envelope[T] {
	return domain.Error[T](domain.NewNotSupported(providerName, string(op)))
}
