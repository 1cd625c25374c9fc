package quotes

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
)

// Adapter is the MarketData.app-backed quotes provider: it owns a Client
// internally and exposes the domain-facing Provider interface, following
// the adapter-wraps-client split of
// internal/clients/tradernet.TradernetBrokerAdapter.
type Adapter struct {
	client *Client
}

func New(apiKey string, log zerolog.Logger) *Adapter {
	return &Adapter{client: NewClient(apiKey, log)}
}

func (a *Adapter) Name() string         { return "marketdata" }
func (a *Adapter) Type() providers.Type { return providers.TypeQuotes }

var supportedOps = map[providers.Operation]bool{
	providers.OpHealthCheck:      true,
	providers.OpGetStockQuote:    true,
	providers.OpGetStockQuotes:   true,
	providers.OpGetOptionsChain:  true,
}

func (a *Adapter) SupportsOperation(op providers.Operation) bool {
	return supportedOps[op]
}

func (a *Adapter) HealthCheck(ctx context.Context) domain.Envelope[domain.ProviderHealth] {
	start := time.Now()
	_, err := a.client.fetchQuotes(ctx, []string{"AAPL"})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		status := domain.HealthUnhealthy
		if err.Kind == domain.ErrRateLimited {
			status = domain.HealthDegraded
		}
		return domain.Ok(domain.ProviderHealth{Status: status, LastCheck: time.Now(), LatencyMS: latency, ErrorMessage: err.Message})
	}
	return domain.Ok(domain.ProviderHealth{Status: domain.HealthHealthy, LastCheck: time.Now(), LatencyMS: latency})
}

func (a *Adapter) GetStockQuote(ctx context.Context, symbol string) domain.Envelope[domain.StockQuote] {
	quotes, err := a.client.fetchQuotes(ctx, []string{symbol})
	if err != nil {
		return domain.Error[domain.StockQuote](err)
	}
	if len(quotes) == 0 {
		return domain.Empty[domain.StockQuote]()
	}
	return domain.Ok(quotes[0])
}

func (a *Adapter) GetStockQuotes(ctx context.Context, symbols []string) domain.Envelope[[]domain.StockQuote] {
	if len(symbols) == 0 {
		return domain.Empty[[]domain.StockQuote]()
	}
	quotes, err := a.client.fetchQuotes(ctx, symbols)
	if err != nil {
		return domain.Error[[]domain.StockQuote](err)
	}
	if len(quotes) == 0 {
		return domain.Empty[[]domain.StockQuote]()
	}
	return domain.Ok(quotes)
}

func (a *Adapter) GetOptionsChain(ctx context.Context, args providers.OptionsChainArgs) domain.Envelope[domain.OptionChain] {
	chain, err := a.client.fetchOptionsChain(ctx, args.Symbol, args.ExpirationFrom, args.ExpirationTo)
	if err != nil {
		return domain.Error[domain.OptionChain](err)
	}
	if len(chain.Contracts) == 0 {
		return domain.Empty[domain.OptionChain]()
	}
	if valErr := chain.Validate(); valErr != nil {
		if pe, ok := valErr.(*domain.ProviderError); ok {
			pe.Provider = a.Name()
			return domain.Error[domain.OptionChain](pe)
		}
	}
	return domain.Ok(*chain)
}

// The remainder of the catalogue belongs to other providers.

func (a *Adapter) ScreenStocks(ctx context.Context, criteria domain.ScreeningCriteria) domain.Envelope[[]domain.ScreenerResult] {
	return providers.NotSupported[[]domain.ScreenerResult](a.Name(), providers.OpScreenStocks)
}

func (a *Adapter) GetFundamentalData(ctx context.Context, symbol string) domain.Envelope[domain.FundamentalMetrics] {
	return providers.NotSupported[domain.FundamentalMetrics](a.Name(), providers.OpGetFundamentalData)
}

func (a *Adapter) GetCalendarEvents(ctx context.Context, args providers.CalendarEventsArgs) domain.Envelope[[]domain.CalendarEvent] {
	return providers.NotSupported[[]domain.CalendarEvent](a.Name(), providers.OpGetCalendarEvents)
}

func (a *Adapter) GetTechnicalIndicators(ctx context.Context, symbol string) domain.Envelope[domain.TechnicalIndicators] {
	return providers.NotSupported[domain.TechnicalIndicators](a.Name(), providers.OpGetTechnicalIndicators)
}

func (a *Adapter) GetCompanyNews(ctx context.Context, args providers.CompanyNewsArgs) domain.Envelope[[]domain.NewsItem] {
	return providers.NotSupported[[]domain.NewsItem](a.Name(), providers.OpGetCompanyNews)
}

func (a *Adapter) GetEconomicEvents(ctx context.Context, args providers.EconomicEventsArgs) domain.Envelope[[]domain.EconEvent] {
	return providers.NotSupported[[]domain.EconEvent](a.Name(), providers.OpGetEconomicEvents)
}

func (a *Adapter) GetHistoricalPrices(ctx context.Context, args providers.HistoricalPricesArgs) domain.Envelope[[]domain.Bar] {
	return providers.NotSupported[[]domain.Bar](a.Name(), providers.OpGetHistoricalPrices)
}

func (a *Adapter) GetEnhancedStockData(ctx context.Context, symbol string) domain.Envelope[domain.EnhancedStockData] {
	return providers.NotSupported[domain.EnhancedStockData](a.Name(), providers.OpGetEnhancedStockData)
}

func (a *Adapter) AnalyzePMCCOpportunity(ctx context.Context, args providers.AnalyzeOpportunityArgs) domain.Envelope[domain.AIAnalysis] {
	return providers.NotSupported[domain.AIAnalysis](a.Name(), providers.OpAnalyzePMCCOpportunity)
}
