// Package quotes implements the Provider interface against MarketData.app:
// stock quotes and options chains. Split into a thin client (this file) and
// an adapter (adapter.go) the way internal/clients/tradernet separates
// Client (wire-level) from *BrokerAdapter (domain-level), rather than
// mixing HTTP and domain transformation in one type.
package quotes

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
)

const defaultBaseURL = "https://api.marketdata.app/v1"

// Client is the wire-level MarketData.app client.
type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	log     zerolog.Logger
}

func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		log:     log.With().Str("client", "marketdata").Logger(),
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) *domain.ProviderError {
	if c.apiKey == "" {
		return &domain.ProviderError{Kind: domain.ErrConfiguration, Provider: "marketdata", Op: path, Message: "MARKETDATA_API_TOKEN is not configured"}
	}
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil && len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &domain.ProviderError{Kind: domain.ErrTransient, Provider: "marketdata", Op: path, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.ProviderError{Kind: domain.ErrTransient, Provider: "marketdata", Op: path, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ProviderError{Kind: domain.ErrTransient, Provider: "marketdata", Op: path, Message: "failed to read response body", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.ProviderError{Kind: domain.ErrAuthentication, Provider: "marketdata", Op: path, Message: "upstream rejected API token"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.ProviderError{Kind: domain.ErrRateLimited, Provider: "marketdata", Op: path, Message: "rate limited"}
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode >= 500:
		return &domain.ProviderError{Kind: domain.ErrTransient, Provider: "marketdata", Op: path, Message: fmt.Sprintf("upstream returned %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &domain.ProviderError{Kind: domain.ErrParse, Provider: "marketdata", Op: path, Message: fmt.Sprintf("upstream returned %d", resp.StatusCode)}
	}

	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &domain.ProviderError{Kind: domain.ErrParse, Provider: "marketdata", Op: path, Message: "failed to decode response", Cause: err}
	}
	return nil
}

type quoteResponse struct {
	Symbol    []string  `json:"symbol"`
	Last      []float64 `json:"last"`
	Bid       []float64 `json:"bid"`
	Ask       []float64 `json:"ask"`
	Volume    []int64   `json:"volume"`
	Change    []float64 `json:"change"`
	ChangePct []float64 `json:"changepct"`
	Updated   []int64   `json:"updated"`
}

func (c *Client) fetchQuotes(ctx context.Context, symbols []string) ([]domain.StockQuote, *domain.ProviderError) {
	var out []domain.StockQuote
	for _, sym := range symbols {
		var raw quoteResponse
		if err := c.get(ctx, "/stocks/quotes/"+sym+"/", nil, &raw); err != nil {
			return nil, err
		}
		if len(raw.Symbol) == 0 {
			continue
		}
		q := domain.StockQuote{
			Symbol:        raw.Symbol[0],
			Last:          raw.Last[0],
			Timestamp:     time.Unix(raw.Updated[0], 0),
		}
		if len(raw.Bid) > 0 {
			q.Bid = raw.Bid[0]
		}
		if len(raw.Ask) > 0 {
			q.Ask = raw.Ask[0]
		}
		if len(raw.Volume) > 0 {
			q.Volume = raw.Volume[0]
		}
		if len(raw.Change) > 0 {
			q.Change = raw.Change[0]
		}
		if len(raw.ChangePct) > 0 {
			q.ChangePercent = raw.ChangePct[0]
		}
		out = append(out, q)
	}
	return out, nil
}

type optionsChainResponse struct {
	OptionSymbol []string  `json:"optionSymbol"`
	Underlying   []string  `json:"underlying"`
	Strike       []float64 `json:"strike"`
	Expiration   []int64   `json:"expiration"`
	Side         []string  `json:"side"`
	Bid          []float64 `json:"bid"`
	Ask          []float64 `json:"ask"`
	Mid          []float64 `json:"mid"`
	Last         []float64 `json:"last"`
	Volume       []int64   `json:"volume"`
	OpenInterest []int64   `json:"openInterest"`
	Delta        []float64 `json:"delta"`
	Gamma        []float64 `json:"gamma"`
	Theta        []float64 `json:"theta"`
	Vega         []float64 `json:"vega"`
	IV           []float64 `json:"iv"`
	DTE          []int     `json:"dte"`
	Underlying_Price []float64 `json:"underlyingPrice"`
	Updated      []int64   `json:"updated"`
}

func (c *Client) fetchOptionsChain(ctx context.Context, underlying string, from, to *time.Time) (*domain.OptionChain, *domain.ProviderError) {
	q := url.Values{}
	if from != nil {
		q.Set("from", from.Format("2006-01-02"))
	}
	if to != nil {
		q.Set("to", to.Format("2006-01-02"))
	}

	var raw optionsChainResponse
	if err := c.get(ctx, "/options/chain/"+underlying+"/", q, &raw); err != nil {
		return nil, err
	}
	if len(raw.OptionSymbol) == 0 {
		return &domain.OptionChain{Underlying: underlying}, nil
	}

	chain := &domain.OptionChain{Underlying: underlying}
	if len(raw.Underlying_Price) > 0 {
		chain.UnderlyingPrice = raw.Underlying_Price[0]
	}
	if len(raw.Updated) > 0 {
		chain.Updated = time.Unix(raw.Updated[0], 0)
	}

	chain.Contracts = make([]domain.OptionContract, 0, len(raw.OptionSymbol))
	for i := range raw.OptionSymbol {
		side := domain.Call
		if i < len(raw.Side) && raw.Side[i] == "put" {
			side = domain.Put
		}
		c := domain.NewOptionContract(domain.OptionContract{
			OptionSymbol:    raw.OptionSymbol[i],
			Underlying:      underlying,
			Strike:          at(raw.Strike, i),
			Expiration:      time.Unix(at64(raw.Expiration, i), 0),
			Side:            side,
			Bid:             at(raw.Bid, i),
			Ask:             at(raw.Ask, i),
			Last:            at(raw.Last, i),
			Volume:          atInt(raw.Volume, i),
			OpenInterest:    atInt(raw.OpenInterest, i),
			Delta:           ptrAt(raw.Delta, i),
			Gamma:           ptrAt(raw.Gamma, i),
			Theta:           ptrAt(raw.Theta, i),
			Vega:            ptrAt(raw.Vega, i),
			IV:              ptrAt(raw.IV, i),
			DTE:             atIntSlice(raw.DTE, i),
			UnderlyingPrice: chain.UnderlyingPrice,
		})
		chain.Contracts = append(chain.Contracts, c)
	}
	return chain, nil
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func at64(s []int64, i int) int64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func atInt(s []int64, i int) int64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func atIntSlice(s []int, i int) int {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func ptrAt(s []float64, i int) *float64 {
	if i < len(s) {
		v := s[i]
		return &v
	}
	return nil
}
