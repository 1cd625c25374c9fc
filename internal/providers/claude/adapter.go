// Package claude implements the Provider interface's analyze_pmcc_opportunity
// operation (plus health_check) against Anthropic's Messages API; every other
// operation returns NotSupported.
// Grounded structurally on trader/internal/clients/yahoo/client.go's plain
// *http.Client wrapper; the strict-JSON response contract follows spec.md
// §4.7 step 4.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1/messages"
	apiVersion     = "2023-06-01"
)

// Adapter is the Claude-backed AI analyst provider.
type Adapter struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
	log     zerolog.Logger
}

func New(apiKey, model string, log zerolog.Logger) *Adapter {
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	return &Adapter{
		http:    &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		log:     log.With().Str("provider", "claude").Logger(),
	}
}

func (a *Adapter) Name() string         { return "claude" }
func (a *Adapter) Type() providers.Type { return providers.TypeClaude }

func (a *Adapter) SupportsOperation(op providers.Operation) bool {
	return op == providers.OpAnalyzePMCCOpportunity || op == providers.OpHealthCheck
}

func (a *Adapter) HealthCheck(ctx context.Context) domain.Envelope[domain.ProviderHealth] {
	if a.apiKey == "" {
		return domain.Ok(domain.ProviderHealth{
			Status:       domain.HealthUnhealthy,
			LastCheck:    time.Now(),
			ErrorMessage: "CLAUDE_API_KEY is not configured",
		})
	}
	return domain.Ok(domain.ProviderHealth{Status: domain.HealthHealthy, LastCheck: time.Now()})
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzePMCCOpportunity sends the assembled context through the prompt
// template and parses the strict JSON contract. A malformed response is
// retried exactly once by asking the model to reformat as pure JSON
// (spec.md §4.7 step 4 edge case), never by silently guessing fields.
func (a *Adapter) AnalyzePMCCOpportunity(ctx context.Context, args providers.AnalyzeOpportunityArgs) domain.Envelope[domain.AIAnalysis] {
	if a.apiKey == "" {
		return domain.Error[domain.AIAnalysis](&domain.ProviderError{
			Kind: domain.ErrConfiguration, Provider: a.Name(), Op: string(providers.OpAnalyzePMCCOpportunity),
			Message: "CLAUDE_API_KEY is not configured",
		})
	}

	prompt := BuildPrompt(args)
	text, err := a.call(ctx, prompt)
	if err != nil {
		return domain.Error[domain.AIAnalysis](err)
	}

	analysis, parseErr := ParseAnalysis(text)
	retried := false
	if parseErr != nil {
		retried = true
		retryPrompt := prompt + "\n\nYour previous reply could not be parsed as JSON. Reply with ONLY the JSON object, no prose, no markdown fences."
		text2, err2 := a.call(ctx, retryPrompt)
		if err2 != nil {
			return domain.Error[domain.AIAnalysis](err2)
		}
		analysis, parseErr = ParseAnalysis(text2)
		if parseErr != nil {
			return domain.Error[domain.AIAnalysis](&domain.ProviderError{
				Kind: domain.ErrParse, Provider: a.Name(), Op: string(providers.OpAnalyzePMCCOpportunity),
				Message: "model response was not valid JSON after one retry", Cause: parseErr,
			})
		}
	}
	if args.Candidate != nil {
		analysis.Symbol = args.Candidate.Symbol
	}

	env := domain.Ok(*analysis)
	if retried {
		env.ProviderMeta = map[string]string{"parse_retried": "true"}
	}
	return env
}

func (a *Adapter) call(ctx context.Context, prompt string) (string, *domain.ProviderError) {
	reqBody := messageRequest{
		Model:     a.model,
		MaxTokens: 1500,
		Messages:  []message{{Role: "user", Content: prompt}},
	}
	body, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: "failed to read response body", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", &domain.ProviderError{Kind: domain.ErrAuthentication, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: "upstream rejected API key"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &domain.ProviderError{Kind: domain.ErrRateLimited, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: "rate limited"}
	case resp.StatusCode >= 500:
		return "", &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: fmt.Sprintf("upstream returned %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return "", &domain.ProviderError{Kind: domain.ErrParse, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: fmt.Sprintf("upstream returned %d", resp.StatusCode)}
	}

	var decoded messageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &domain.ProviderError{Kind: domain.ErrParse, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: "failed to decode response envelope", Cause: err}
	}
	if decoded.Error != nil {
		return "", &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: decoded.Error.Message}
	}
	if len(decoded.Content) == 0 {
		return "", &domain.ProviderError{Kind: domain.ErrBusiness, Provider: a.Name(), Op: "analyze_pmcc_opportunity", Message: "empty response content"}
	}
	return strings.TrimSpace(decoded.Content[0].Text), nil
}

// The remainder of the catalogue does not apply to an AI analyst provider.

func (a *Adapter) GetStockQuote(ctx context.Context, symbol string) domain.Envelope[domain.StockQuote] {
	return providers.NotSupported[domain.StockQuote](a.Name(), providers.OpGetStockQuote)
}

func (a *Adapter) GetStockQuotes(ctx context.Context, symbols []string) domain.Envelope[[]domain.StockQuote] {
	return providers.NotSupported[[]domain.StockQuote](a.Name(), providers.OpGetStockQuotes)
}

func (a *Adapter) GetOptionsChain(ctx context.Context, args providers.OptionsChainArgs) domain.Envelope[domain.OptionChain] {
	return providers.NotSupported[domain.OptionChain](a.Name(), providers.OpGetOptionsChain)
}

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
