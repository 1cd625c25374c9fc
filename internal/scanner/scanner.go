// Package scanner implements the scan orchestrator (C6): screen for
// candidate symbols, fan out per-symbol chain+quote fetches across a
// bounded worker pool, run each through the options analyzer, aggregate and
// rank, hand the top slice to the AI augmentor, and produce a ScanResult
// ready for export (spec.md §4.6).
package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/options"
	"github.com/pmccscan/pmccscan/internal/providers"
	"github.com/pmccscan/pmccscan/internal/router"
)

// Augmentor is the AI-augmentation stage (C7), kept as a narrow interface so
// the scanner can be tested without a real AI adapter. internal/ai's
// Augmentor implements this.
type Augmentor interface {
	Augment(ctx context.Context, candidates []*domain.PMCCCandidate) []string // returns warnings
}

// Screener is the subset of internal/screener.Screener the orchestrator needs.
type Screener interface {
	Run(ctx context.Context, criteria domain.ScreeningCriteria) ([]domain.ScreenerResult, error)
}

// Config holds the scan-level tunables the orchestrator reads from
// internal/config.Config at construction time.
type Config struct {
	MaxStocksToScreen int
	MaxOpportunities  int
	MinTotalScore     float64
	WorkerPoolSize    int
}

// Scanner ties the screener, router, options analyzer and (optional) AI
// augmentor together into one runnable pipeline.
type Scanner struct {
	router    *router.Router
	screener  Screener
	augmentor Augmentor
	criteria  options.Criteria
	cfg       Config
	log       zerolog.Logger
}

func New(r *router.Router, screener Screener, augmentor Augmentor, criteria options.Criteria, cfg Config, log zerolog.Logger) *Scanner {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 10
	}
	return &Scanner{
		router:    r,
		screener:  screener,
		augmentor: augmentor,
		criteria:  criteria.WithDefaults(),
		cfg:       cfg,
		log:       log.With().Str("component", "scanner").Logger(),
	}
}

// Run executes one complete scan: screen, analyze, rank, augment, and
// return a ScanResult. It never returns an error for per-symbol failures —
// those are recorded in ScanResult.Errors — only for a screening failure
// that leaves the run with no universe to analyze at all.
func (s *Scanner) Run(ctx context.Context, criteria domain.ScreeningCriteria) (*ScanResult, error) {
	started := time.Now().UTC()
	scanID := NewScanID(started)
	collector := &errorCollector{}

	criteria.Limit = s.cfg.MaxStocksToScreen
	screened, err := s.screener.Run(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("screening failed: %w", err)
	}

	symbols := make([]string, len(screened))
	for i, r := range screened {
		symbols[i] = r.Symbol
	}

	results := runWorkerPool(ctx, symbols, s.cfg.WorkerPoolSize, func(ctx context.Context, symbol string) ([]*domain.PMCCCandidate, error) {
		return s.analyzeSymbol(ctx, symbol)
	})

	var all []*domain.PMCCCandidate
	analyzed := 0
	for i, r := range results {
		if r.err != nil {
			collector.addError(fmt.Sprintf("%s: %v", symbols[i], r.err))
			continue
		}
		analyzed++
		all = append(all, r.candidates...)
	}

	found := len(all)
	filtered := filterByMinScore(all, s.cfg.MinTotalScore)
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].TotalScore > filtered[j].TotalScore })

	maxOpportunities := s.cfg.MaxOpportunities
	if maxOpportunities >= 0 && len(filtered) > maxOpportunities {
		filtered = filtered[:maxOpportunities]
	}

	aiAnalyzed := 0
	if s.augmentor != nil && len(filtered) > 0 {
		warnings := s.augmentor.Augment(ctx, filtered)
		for _, w := range warnings {
			collector.addWarning(w)
		}
		for _, c := range filtered {
			if c.CombinedScore != nil {
				aiAnalyzed++
			}
		}
	}

	rankCandidates(filtered)

	completed := time.Now().UTC()
	return &ScanResult{
		ScanID:           scanID,
		StartedAt:        started,
		CompletedAt:      completed,
		TopOpportunities: filtered,
		Errors:           collector.errors,
		Warnings:         collector.warnings,
		Stats: ScanStats{
			UniverseSize:       len(symbols),
			ScreenedCount:      len(screened),
			SymbolsAnalyzed:    analyzed,
			CandidatesFound:    found,
			CandidatesFiltered: len(filtered),
			AIAnalyzedCount:    aiAnalyzed,
		},
	}, nil
}

// analyzeSymbol fetches the options chain and current quote concurrently
// (spec.md §4.6 step 2), then runs the options analyzer and attaches a risk
// block (already computed by options.Analyze via internal/risk).
func (s *Scanner) analyzeSymbol(ctx context.Context, symbol string) ([]*domain.PMCCCandidate, error) {
	type chainResult struct {
		chain domain.OptionChain
		err   error
	}
	type quoteResult struct {
		quote domain.StockQuote
		err   error
	}

	chainCh := make(chan chainResult, 1)
	quoteCh := make(chan quoteResult, 1)

	go func() {
		env := router.Invoke(ctx, s.router, providers.OpGetOptionsChain, "", func(ctx context.Context, p providers.Provider) domain.Envelope[domain.OptionChain] {
			return p.GetOptionsChain(ctx, providers.OptionsChainArgs{Symbol: symbol})
		})
		chainCh <- chainResult{chain: env.Data, err: envelopeErr(env.Status, env.Err)}
	}()
	go func() {
		env := router.Invoke(ctx, s.router, providers.OpGetStockQuote, "", func(ctx context.Context, p providers.Provider) domain.Envelope[domain.StockQuote] {
			return p.GetStockQuote(ctx, symbol)
		})
		quoteCh <- quoteResult{quote: env.Data, err: envelopeErr(env.Status, env.Err)}
	}()

	cr := <-chainCh
	qr := <-quoteCh

	if cr.err != nil {
		return nil, fmt.Errorf("options chain: %w", cr.err)
	}
	if qr.err != nil {
		return nil, fmt.Errorf("quote: %w", qr.err)
	}
	if len(cr.chain.Contracts) == 0 {
		return nil, nil
	}

	chain := cr.chain
	if qr.quote.Last > 0 {
		chain.UnderlyingPrice = qr.quote.Last
	}

	candidates := options.Analyze(chain, s.criteria)
	return candidates, nil
}

func envelopeErr(status domain.EnvelopeStatus, err *domain.ProviderError) error {
	if status == domain.StatusError {
		return err
	}
	return nil
}

func filterByMinScore(candidates []*domain.PMCCCandidate, minScore float64) []*domain.PMCCCandidate {
	out := make([]*domain.PMCCCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.TotalScore >= minScore {
			out = append(out, c)
		}
	}
	return out
}

// rankCandidates assigns final rank using combined_score when the AI stage
// ran, else total_score (spec.md §4.6 step 6).
func rankCandidates(candidates []*domain.PMCCCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return rankScore(candidates[i]) > rankScore(candidates[j])
	})
	for i, c := range candidates {
		c.Rank = i + 1
	}
}

func rankScore(c *domain.PMCCCandidate) float64 {
	if c.CombinedScore != nil {
		return *c.CombinedScore
	}
	return c.TotalScore
}
