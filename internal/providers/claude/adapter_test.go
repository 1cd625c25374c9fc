package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
)

func writeMessageResponse(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	resp := messageResponse{
		Content: []struct {
			Text string `json:"text"`
		}{{Text: text}},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestAnalyzePMCCOpportunitySucceedsWithoutRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessageResponse(t, w, `{"pmcc_score":80,"recommendation":"buy","confidence_level":75}`)
	}))
	defer srv.Close()

	a := New("test-key", "", zerolog.Nop())
	a.baseURL = srv.URL

	env := a.AnalyzePMCCOpportunity(context.Background(), providers.AnalyzeOpportunityArgs{})
	require.Equal(t, domain.StatusOK, env.Status)
	assert.Equal(t, 80.0, env.Data.PMCCScore)
	assert.Empty(t, env.ProviderMeta["parse_retried"], "no retry should mean no retry marker")
}

func TestAnalyzePMCCOpportunityRetriesOnParseFailureThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeMessageResponse(t, w, "sure, here is my analysis: not valid json")
			return
		}
		writeMessageResponse(t, w, `{"pmcc_score":65,"recommendation":"hold","confidence_level":50}`)
	}))
	defer srv.Close()

	a := New("test-key", "", zerolog.Nop())
	a.baseURL = srv.URL

	env := a.AnalyzePMCCOpportunity(context.Background(), providers.AnalyzeOpportunityArgs{})
	require.Equal(t, domain.StatusOK, env.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "should have retried exactly once")
	assert.Equal(t, 65.0, env.Data.PMCCScore)
	assert.Equal(t, "true", env.ProviderMeta["parse_retried"], "successful retry must be signaled for the augmentor's warning")
}

func TestAnalyzePMCCOpportunityFailsAfterOneFailedRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessageResponse(t, w, "still not json")
	}))
	defer srv.Close()

	a := New("test-key", "", zerolog.Nop())
	a.baseURL = srv.URL

	env := a.AnalyzePMCCOpportunity(context.Background(), providers.AnalyzeOpportunityArgs{})
	require.Equal(t, domain.StatusError, env.Status)
	assert.Equal(t, domain.ErrParse, env.Err.Kind)
}

func TestAnalyzePMCCOpportunityRequiresAPIKey(t *testing.T) {
	a := New("", "", zerolog.Nop())
	env := a.AnalyzePMCCOpportunity(context.Background(), providers.AnalyzeOpportunityArgs{})
	require.Equal(t, domain.StatusError, env.Status)
	assert.Equal(t, domain.ErrConfiguration, env.Err.Kind)
}
