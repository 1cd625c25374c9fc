// Package fundamentals implements the Provider interface against EODHD's
// REST API: fundamentals, calendar events, company news, economic events
// and historical prices. Structurally grounded on
// trader/internal/clients/yahoo/client.go (a plain *http.Client wrapped with
// a zerolog.Logger, one method per upstream concern, raw JSON reduced to a
// fixed schema before it ever leaves the client).
package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
)

const defaultBaseURL = "https://eodhd.com/api"

// Adapter is the EODHD-backed fundamentals provider.
type Adapter struct {
	http    *http.Client
	apiKey  string
	baseURL string
	log     zerolog.Logger
}

// New builds an Adapter. An empty apiKey is legal: every call then fails
// with ErrConfiguration, which the router treats as non-retryable and
// non-breaker-tripping rather than fatal (spec.md §6, §7).
func New(apiKey string, log zerolog.Logger) *Adapter {
	return &Adapter{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		log:     log.With().Str("provider", "eodhd").Logger(),
	}
}

func (a *Adapter) Name() string           { return "eodhd" }
func (a *Adapter) Type() providers.Type   { return providers.TypeFundamentals }

var supportedOps = map[providers.Operation]bool{
	providers.OpHealthCheck:            true,
	providers.OpScreenStocks:           true,
	providers.OpGetFundamentalData:     true,
	providers.OpGetCalendarEvents:      true,
	providers.OpGetCompanyNews:         true,
	providers.OpGetEconomicEvents:      true,
	providers.OpGetHistoricalPrices:    true,
	providers.OpGetEnhancedStockData:   true,
	providers.OpGetTechnicalIndicators: true,
}

func (a *Adapter) SupportsOperation(op providers.Operation) bool {
	return supportedOps[op]
}

// get issues a GET request against the EODHD API and decodes the JSON body
// into target. Non-2xx responses are translated into the provider error
// taxonomy (spec.md §7) rather than left as opaque *url.Error values.
func (a *Adapter) get(ctx context.Context, path string, query url.Values, target any) *domain.ProviderError {
	if a.apiKey == "" {
		return &domain.ProviderError{Kind: domain.ErrConfiguration, Provider: a.Name(), Op: path, Message: "EODHD_API_TOKEN is not configured"}
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", a.apiKey)
	query.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", a.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: path, Message: "failed to build request", Cause: err}
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: path, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: path, Message: "failed to read response body", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.ProviderError{Kind: domain.ErrAuthentication, Provider: a.Name(), Op: path, Message: "upstream rejected API token"}
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 0
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			fmt.Sscanf(ra, "%d", &retryAfter)
		}
		return &domain.ProviderError{Kind: domain.ErrRateLimited, Provider: a.Name(), Op: path, Message: "rate limited", RetryAfter: retryAfter}
	case resp.StatusCode >= 500:
		return &domain.ProviderError{Kind: domain.ErrTransient, Provider: a.Name(), Op: path, Message: fmt.Sprintf("upstream returned %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &domain.ProviderError{Kind: domain.ErrParse, Provider: a.Name(), Op: path, Message: fmt.Sprintf("upstream returned %d", resp.StatusCode)}
	}

	if len(body) == 0 || string(body) == "null" {
		return nil // caller treats as empty, not an error
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &domain.ProviderError{Kind: domain.ErrParse, Provider: a.Name(), Op: path, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func (a *Adapter) HealthCheck(ctx context.Context) domain.Envelope[domain.ProviderHealth] {
	start := time.Now()
	var out struct {
		Name string `json:"name"`
	}
	pErr := a.get(ctx, "/user", nil, &out)
	latency := time.Since(start).Milliseconds()

	if pErr != nil {
		status := domain.HealthUnhealthy
		if pErr.Kind == domain.ErrRateLimited {
			status = domain.HealthDegraded
		}
		return domain.Ok(domain.ProviderHealth{
			Status:       status,
			LastCheck:    time.Now(),
			LatencyMS:    latency,
			ErrorMessage: pErr.Message,
		})
	}
	return domain.Ok(domain.ProviderHealth{
		Status:    domain.HealthHealthy,
		LastCheck: time.Now(),
		LatencyMS: latency,
	})
}

func getFloat(m map[string]any, key string) *float64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return &n
		case json.Number:
			f, err := n.Float64()
			if err == nil {
				return &f
			}
		}
	}
	return nil
}

func getInt64(m map[string]any, key string) *int64 {
	if f := getFloat(m, key); f != nil {
		i := int64(*f)
		return &i
	}
	return nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
