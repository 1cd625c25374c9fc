package fundamentals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmccscan/pmccscan/internal/domain"
)

func TestGetEnhancedStockDataPopulatesAnalystRatings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/fundamentals/AAPL":
			w.Write([]byte(`{
				"Highlights": {"PERatio": 28.5},
				"Valuation": {"ForwardPE": 25.1},
				"AnalystRatings": {"Rating": 2.1, "TargetPrice": 210.50}
			}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	a := New("test-key", zerolog.Nop())
	a.baseURL = srv.URL

	env := a.GetEnhancedStockData(context.Background(), "AAPL")
	require.Equal(t, domain.StatusOK, env.Status)
	require.NotNil(t, env.Data.Analyst)
	assert.Equal(t, "buy", env.Data.Analyst.Recommendation)
	require.NotNil(t, env.Data.Analyst.TargetPrice)
	assert.Equal(t, 210.50, *env.Data.Analyst.TargetPrice)
}

func TestGetEnhancedStockDataLeavesAnalystNilWhenBlockMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Highlights": {"PERatio": 28.5}}`))
	}))
	defer srv.Close()

	a := New("test-key", zerolog.Nop())
	a.baseURL = srv.URL

	env := a.GetEnhancedStockData(context.Background(), "AAPL")
	require.Equal(t, domain.StatusOK, env.Status)
	assert.Nil(t, env.Data.Analyst)
}

func TestRecommendationFromRatingMapsFullRange(t *testing.T) {
	cases := []struct {
		rating float64
		want   string
	}{
		{1.0, "strong_buy"},
		{2.0, "buy"},
		{3.0, "hold"},
		{4.0, "sell"},
		{5.0, "strong_sell"},
	}
	for _, c := range cases {
		r := c.rating
		assert.Equal(t, c.want, recommendationFromRating(&r))
	}
	assert.Equal(t, "", recommendationFromRating(nil))
}
