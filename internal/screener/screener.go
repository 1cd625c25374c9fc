package screener

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
	"github.com/pmccscan/pmccscan/internal/router"
)

// Screener runs screen_stocks through the router, post-filters and sorts
// the combined result, and caches it by criteria hash for TTL (spec.md
// §4.3). A singleflight.Group collapses concurrent callers asking for the
// same criteria into one upstream call, the way
// golang.org/x/sync/singleflight is built for — the teacher's module graph
// already carries it as an indirect dependency (via aws-sdk-go-v2's own use
// of x/sync) and this promotes it to a directly exercised one, rather than
// hand-rolling the same thundering-herd guard with a mutex-guarded map.
type Screener struct {
	router *router.Router
	cache  *Cache
	sf     singleflight.Group
	ttl    time.Duration
	log    zerolog.Logger
}

func New(r *router.Router, cache *Cache, ttl time.Duration, log zerolog.Logger) *Screener {
	return &Screener{router: r, cache: cache, ttl: ttl, log: log.With().Str("component", "screener").Logger()}
}

// Run executes (or serves from cache) a screen for the given criteria.
func (s *Screener) Run(ctx context.Context, criteria domain.ScreeningCriteria) ([]domain.ScreenerResult, error) {
	key := HashCriteria(criteria)

	if cached, ok := s.cache.Get(key); ok {
		s.log.Debug().Str("criteria_hash", key).Int("count", len(cached)).Msg("screening cache hit")
		return cached, nil
	}

	v, err, shared := s.sf.Do(key, func() (any, error) {
		return s.runUncached(ctx, criteria)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug().Str("criteria_hash", key).Msg("screening request deduplicated by singleflight")
	}
	return v.([]domain.ScreenerResult), nil
}

func (s *Screener) runUncached(ctx context.Context, criteria domain.ScreeningCriteria) ([]domain.ScreenerResult, error) {
	env := router.Invoke(ctx, s.router, providers.OpScreenStocks, "", func(ctx context.Context, p providers.Provider) domain.Envelope[[]domain.ScreenerResult] {
		return p.ScreenStocks(ctx, criteria)
	})
	if env.Status == domain.StatusError {
		return nil, env.Err
	}

	results := env.Data
	results = applyLocalFilters(results, criteria)
	sort.Slice(results, func(i, j int) bool { return results[i].MarketCap > results[j].MarketCap })
	if criteria.Limit > 0 && len(results) > criteria.Limit {
		results = results[:criteria.Limit]
	}

	key := HashCriteria(criteria)
	if err := s.cache.Store(key, results, s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("failed to store screening results in cache")
	}
	return results, nil
}

// applyLocalFilters re-applies criteria the adapter may not fully support
// (e.g. a penny-stock floor, which has no natural EODHD screener filter
// field), so the contract holds regardless of adapter capability.
func applyLocalFilters(results []domain.ScreenerResult, c domain.ScreeningCriteria) []domain.ScreenerResult {
	const pennyStockFloor = 5.0

	out := make([]domain.ScreenerResult, 0, len(results))
	for _, r := range results {
		if c.ExcludePenny && r.Price < pennyStockFloor {
			continue
		}
		if c.ExcludeETFs && r.IsETF {
			continue
		}
		if c.MinVolume > 0 && r.Volume < c.MinVolume {
			continue
		}
		if len(c.Exchanges) > 0 && !contains(c.Exchanges, r.Exchange) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
