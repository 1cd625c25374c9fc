package screener

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmccscan/pmccscan/internal/domain"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	dir, err := os.MkdirTemp("", "screen_cache_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	c, err := OpenCache(dir)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheStoreThenGetWithinTTL(t *testing.T) {
	c := openTestCache(t)
	key := HashCriteria(domain.ScreeningCriteria{MinPrice: 10})
	results := []domain.ScreenerResult{{Symbol: "AAPL", MarketCap: 3e12}}

	require.NoError(t, c.Store(key, results, time.Hour))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, results, got)
}

func TestCacheMissAfterExpiry(t *testing.T) {
	c := openTestCache(t)
	key := HashCriteria(domain.ScreeningCriteria{MinPrice: 10})
	require.NoError(t, c.Store(key, []domain.ScreenerResult{{Symbol: "AAPL"}}, -time.Second))

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestHashCriteriaIsStableForEquivalentCriteria(t *testing.T) {
	a := domain.ScreeningCriteria{MinPrice: 10, MaxPrice: 100, Exchanges: []string{"NASDAQ"}}
	b := domain.ScreeningCriteria{MinPrice: 10, MaxPrice: 100, Exchanges: []string{"NASDAQ"}}
	assert.Equal(t, HashCriteria(a), HashCriteria(b))
}

func TestHashCriteriaDiffersForDifferentCriteria(t *testing.T) {
	a := domain.ScreeningCriteria{MinPrice: 10}
	b := domain.ScreeningCriteria{MinPrice: 20}
	assert.NotEqual(t, HashCriteria(a), HashCriteria(b))
}

func TestApplyLocalFiltersExcludesPennyStocks(t *testing.T) {
	results := []domain.ScreenerResult{
		{Symbol: "PENNY", Price: 1.5},
		{Symbol: "REAL", Price: 50},
	}
	filtered := applyLocalFilters(results, domain.ScreeningCriteria{ExcludePenny: true})
	require.Len(t, filtered, 1)
	assert.Equal(t, "REAL", filtered[0].Symbol)
}
