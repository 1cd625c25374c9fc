package router

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
)

// fakeProvider is a minimal Provider double whose GetStockQuote result is
// scripted per-call, letting tests drive the breaker deterministically.
type fakeProvider struct {
	name    string
	results []domain.Envelope[domain.StockQuote]
	calls   int
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) Type() providers.Type { return providers.TypeQuotes }
func (f *fakeProvider) SupportsOperation(op providers.Operation) bool {
	return op == providers.OpGetStockQuote
}
func (f *fakeProvider) HealthCheck(ctx context.Context) domain.Envelope[domain.ProviderHealth] {
	return domain.Ok(domain.ProviderHealth{Status: domain.HealthHealthy})
}
func (f *fakeProvider) GetStockQuote(ctx context.Context, symbol string) domain.Envelope[domain.StockQuote] {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		return f.results[len(f.results)-1]
	}
	return f.results[i]
}
func (f *fakeProvider) GetStockQuotes(ctx context.Context, symbols []string) domain.Envelope[[]domain.StockQuote] {
	return providers.NotSupported[[]domain.StockQuote](f.name, providers.OpGetStockQuotes)
}
func (f *fakeProvider) GetOptionsChain(ctx context.Context, args providers.OptionsChainArgs) domain.Envelope[domain.OptionChain] {
	return providers.NotSupported[domain.OptionChain](f.name, providers.OpGetOptionsChain)
}
func (f *fakeProvider) ScreenStocks(ctx context.Context, c domain.ScreeningCriteria) domain.Envelope[[]domain.ScreenerResult] {
	return providers.NotSupported[[]domain.ScreenerResult](f.name, providers.OpScreenStocks)
}
func (f *fakeProvider) GetFundamentalData(ctx context.Context, symbol string) domain.Envelope[domain.FundamentalMetrics] {
	return providers.NotSupported[domain.FundamentalMetrics](f.name, providers.OpGetFundamentalData)
}
func (f *fakeProvider) GetCalendarEvents(ctx context.Context, args providers.CalendarEventsArgs) domain.Envelope[[]domain.CalendarEvent] {
	return providers.NotSupported[[]domain.CalendarEvent](f.name, providers.OpGetCalendarEvents)
}
func (f *fakeProvider) GetTechnicalIndicators(ctx context.Context, symbol string) domain.Envelope[domain.TechnicalIndicators] {
	return providers.NotSupported[domain.TechnicalIndicators](f.name, providers.OpGetTechnicalIndicators)
}
func (f *fakeProvider) GetCompanyNews(ctx context.Context, args providers.CompanyNewsArgs) domain.Envelope[[]domain.NewsItem] {
	return providers.NotSupported[[]domain.NewsItem](f.name, providers.OpGetCompanyNews)
}
func (f *fakeProvider) GetEconomicEvents(ctx context.Context, args providers.EconomicEventsArgs) domain.Envelope[[]domain.EconEvent] {
	return providers.NotSupported[[]domain.EconEvent](f.name, providers.OpGetEconomicEvents)
}
func (f *fakeProvider) GetHistoricalPrices(ctx context.Context, args providers.HistoricalPricesArgs) domain.Envelope[[]domain.Bar] {
	return providers.NotSupported[[]domain.Bar](f.name, providers.OpGetHistoricalPrices)
}
func (f *fakeProvider) GetEnhancedStockData(ctx context.Context, symbol string) domain.Envelope[domain.EnhancedStockData] {
	return providers.NotSupported[domain.EnhancedStockData](f.name, providers.OpGetEnhancedStockData)
}
func (f *fakeProvider) AnalyzePMCCOpportunity(ctx context.Context, args providers.AnalyzeOpportunityArgs) domain.Envelope[domain.AIAnalysis] {
	return providers.NotSupported[domain.AIAnalysis](f.name, providers.OpAnalyzePMCCOpportunity)
}

func transientErr(provider string) domain.Envelope[domain.StockQuote] {
	return domain.Error[domain.StockQuote](&domain.ProviderError{Kind: domain.ErrTransient, Provider: provider, Op: "get_stock_quote", Message: "boom"})
}

func callQuote(ctx context.Context, p providers.Provider) domain.Envelope[domain.StockQuote] {
	return p.GetStockQuote(ctx, "AAPL")
}

func TestBreakerTripsAfterThresholdConsecutiveFailures(t *testing.T) {
	fp := &fakeProvider{name: "flaky", results: []domain.Envelope[domain.StockQuote]{
		transientErr("flaky"), transientErr("flaky"), transientErr("flaky"),
		transientErr("flaky"), transientErr("flaky"), domain.Ok(domain.StockQuote{Symbol: "AAPL", Last: 100}),
	}}
	r := New(Config{MaxRetries: 0, CircuitBreakerThreshold: 5, CircuitBreakerCooldown: time.Hour, AdapterConcurrency: 10}, zerolog.Nop())
	r.Register(fp)

	for i := 0; i < 5; i++ {
		env := Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
		assert.Equal(t, domain.StatusError, env.Status)
	}
	assert.Equal(t, "open", r.BreakerState("flaky"))

	// Breaker is open: the call is refused without even touching the provider.
	callsBefore := fp.calls
	env := Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	assert.Equal(t, domain.StatusError, env.Status)
	assert.Equal(t, callsBefore, fp.calls, "breaker-open call must not reach the provider")
}

func TestBreakerHalfOpenProbeRecoversOnSuccess(t *testing.T) {
	fp := &fakeProvider{name: "flaky", results: []domain.Envelope[domain.StockQuote]{
		transientErr("flaky"), transientErr("flaky"), transientErr("flaky"),
		transientErr("flaky"), transientErr("flaky"), domain.Ok(domain.StockQuote{Symbol: "AAPL", Last: 100}),
	}}
	r := New(Config{MaxRetries: 0, CircuitBreakerThreshold: 5, CircuitBreakerCooldown: 10 * time.Millisecond, AdapterConcurrency: 10}, zerolog.Nop())
	r.Register(fp)

	for i := 0; i < 5; i++ {
		Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	}
	require.Equal(t, "open", r.BreakerState("flaky"))

	time.Sleep(20 * time.Millisecond)
	env := Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	assert.Equal(t, domain.StatusOK, env.Status)
	assert.Equal(t, "closed", r.BreakerState("flaky"))
}

func TestRetryRecoversWithinMaxRetries(t *testing.T) {
	fp := &fakeProvider{name: "recovers", results: []domain.Envelope[domain.StockQuote]{
		transientErr("recovers"), domain.Ok(domain.StockQuote{Symbol: "AAPL", Last: 100}),
	}}
	r := New(Config{MaxRetries: 2, RetryBackoffBase: time.Millisecond, CircuitBreakerThreshold: 5, CircuitBreakerCooldown: time.Hour, AdapterConcurrency: 10}, zerolog.Nop())
	r.Register(fp)

	env := Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	assert.Equal(t, domain.StatusOK, env.Status)
	assert.Equal(t, "closed", r.BreakerState("recovers"))
}

func TestAuthenticationErrorDoesNotTripBreaker(t *testing.T) {
	authErr := domain.Error[domain.StockQuote](&domain.ProviderError{Kind: domain.ErrAuthentication, Provider: "noauth", Message: "bad key"})
	fp := &fakeProvider{name: "noauth", results: []domain.Envelope[domain.StockQuote]{authErr, authErr, authErr, authErr, authErr, authErr}}
	r := New(Config{MaxRetries: 0, CircuitBreakerThreshold: 5, CircuitBreakerCooldown: time.Hour, AdapterConcurrency: 10}, zerolog.Nop())
	r.Register(fp)

	for i := 0; i < 10; i++ {
		Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	}
	assert.Equal(t, "closed", r.BreakerState("noauth"), "authentication failures must never trip the breaker")
	assert.Equal(t, 1, fp.calls, "an adapter marked unhealthy by an authentication failure must be excluded from future candidate lists, not retried every scan")
}

func TestUnhealthyProviderExcludedFromCandidatesUntilHealthCheckRecovers(t *testing.T) {
	authErr := domain.Error[domain.StockQuote](&domain.ProviderError{Kind: domain.ErrAuthentication, Provider: "noauth", Message: "bad key"})
	fp := &fakeProvider{name: "noauth", results: []domain.Envelope[domain.StockQuote]{authErr}}
	r := New(Config{MaxRetries: 0, CircuitBreakerThreshold: 5, CircuitBreakerCooldown: time.Hour, AdapterConcurrency: 10}, zerolog.Nop())
	r.Register(fp)

	env := Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	assert.Equal(t, domain.StatusError, env.Status)
	assert.Equal(t, domain.ErrAuthentication, env.Err.Kind)

	env = Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	assert.Equal(t, domain.ErrNotSupported, env.Err.Kind, "with no healthy candidates left, invoke must not reach the adapter again")
	assert.Equal(t, 1, fp.calls)

	r.recordHealth("noauth", domain.ProviderHealth{Status: domain.HealthHealthy})
	env = Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	assert.Equal(t, domain.ErrAuthentication, env.Err.Kind, "a health_check recovering the adapter must make it a candidate again")
	assert.Equal(t, 2, fp.calls)
}

func TestTransientFailureIsDegradedNotUnhealthy(t *testing.T) {
	fp := &fakeProvider{name: "flaky", results: []domain.Envelope[domain.StockQuote]{
		transientErr("flaky"), transientErr("flaky"), domain.Ok(domain.StockQuote{Symbol: "AAPL", Last: 100}),
	}}
	r := New(Config{MaxRetries: 0, CircuitBreakerThreshold: 5, CircuitBreakerCooldown: time.Hour, AdapterConcurrency: 10}, zerolog.Nop())
	r.Register(fp)

	Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	h, ok := r.LastHealth("flaky")
	require.True(t, ok)
	assert.Equal(t, domain.HealthDegraded, h.Status, "a transient failure must stay degraded (still routable) rather than unhealthy; the breaker handles exclusion once its threshold trips")

	env := Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	assert.Equal(t, domain.StatusError, env.Status, "a degraded adapter must still be a routing candidate")
}

func TestUnsupportedOperationReturnsNotSupportedWithoutRegisteredProvider(t *testing.T) {
	r := New(Config{}, zerolog.Nop())
	env := Invoke[domain.StockQuote](context.Background(), r, providers.OpGetStockQuote, "", callQuote)
	assert.Equal(t, domain.StatusError, env.Status)
	assert.Equal(t, domain.ErrNotSupported, env.Err.Kind)
}
