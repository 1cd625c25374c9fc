// Package ai implements the AI augmentor (C7): for each of the top-ranked
// PMCC candidates, assemble an analysis context, enforce a daily cost
// budget and a minimum-completeness gate, submit one request through the
// router, and merge the result's pmcc_score into the candidate's
// combined_score (spec.md §4.7).
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
	"github.com/pmccscan/pmccscan/internal/router"
)

const (
	defaultPoolSize       = 5
	totalScoreWeight      = 0.6
	pmccScoreWeight       = 0.4
)

// Config holds the AI-stage tunables sourced from internal/config.Config.
type Config struct {
	Enabled         bool
	DailyCostLimitUSD float64
	MinCompleteness float64
	PoolSize        int
}

// Augmentor runs the AI augmentation stage. Grounded on
// internal/services/opportunity_context_builder.go's shape — one
// dependency (here, the router) driving a Build step per item, with each
// optional section fetched defensively — adapted so "repository" calls
// become router.Invoke calls against whichever provider supports
// get_enhanced_stock_data and analyze_pmcc_opportunity.
type Augmentor struct {
	router  *router.Router
	cfg     Config
	budget  *budgetTracker
	log     zerolog.Logger
}

func New(r *router.Router, cfg Config, log zerolog.Logger) *Augmentor {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.MinCompleteness == 0 {
		cfg.MinCompleteness = 60
	}
	if cfg.DailyCostLimitUSD == 0 {
		cfg.DailyCostLimitUSD = 10
	}
	return &Augmentor{
		router: r,
		cfg:    cfg,
		budget: newBudgetTracker(cfg.DailyCostLimitUSD),
		log:    log.With().Str("component", "ai_augmentor").Logger(),
	}
}

// Augment runs AI analysis for every candidate, mutating each one in place
// with its AI fields, and returns the warnings accumulated along the way
// (budget exhaustion, low completeness, parse failures) rather than
// failing the whole stage.
func (a *Augmentor) Augment(ctx context.Context, candidates []*domain.PMCCCandidate) []string {
	if !a.cfg.Enabled || len(candidates) == 0 {
		return nil
	}

	var mu sync.Mutex
	var warnings []string
	warn := func(msg string) {
		mu.Lock()
		warnings = append(warnings, msg)
		mu.Unlock()
	}

	numWorkers := a.cfg.PoolSize
	if len(candidates) < numWorkers {
		numWorkers = len(candidates)
	}

	jobs := make(chan *domain.PMCCCandidate, len(candidates))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				a.augmentOne(ctx, c, warn)
			}
		}()
	}
	for _, c := range candidates {
		jobs <- c
	}
	close(jobs)
	wg.Wait()

	return warnings
}

func (a *Augmentor) augmentOne(ctx context.Context, candidate *domain.PMCCCandidate, warn func(string)) {
	enhancedEnv := router.Invoke(ctx, a.router, providers.OpGetEnhancedStockData, "", func(ctx context.Context, p providers.Provider) domain.Envelope[domain.EnhancedStockData] {
		return p.GetEnhancedStockData(ctx, candidate.Symbol)
	})
	if enhancedEnv.Status == domain.StatusError {
		warn(fmt.Sprintf("%s: skipped AI analysis: could not fetch enhanced data: %v", candidate.Symbol, enhancedEnv.Err))
		return
	}
	enhanced := enhancedEnv.Data

	if enhanced.CompletenessScore < a.cfg.MinCompleteness {
		warn(fmt.Sprintf("%s: skipped AI analysis: completeness %.0f below minimum %.0f", candidate.Symbol, enhanced.CompletenessScore, a.cfg.MinCompleteness))
		return
	}

	if !a.budget.tryReserve(time.Now()) {
		warn(fmt.Sprintf("%s: skipped AI analysis: daily cost budget exhausted (spent $%.2f of $%.2f)", candidate.Symbol, a.budget.spent(), a.cfg.DailyCostLimitUSD))
		return
	}

	args := providers.AnalyzeOpportunityArgs{
		Candidate: candidate,
		Enhanced:  &enhanced,
		MarketCtx: buildMarketContext(enhanced),
	}

	analysisEnv := router.Invoke(ctx, a.router, providers.OpAnalyzePMCCOpportunity, "", func(ctx context.Context, p providers.Provider) domain.Envelope[domain.AIAnalysis] {
		return p.AnalyzePMCCOpportunity(ctx, args)
	})
	if analysisEnv.Status == domain.StatusError {
		warn(fmt.Sprintf("%s: AI analysis failed: %v", candidate.Symbol, analysisEnv.Err))
		return
	}
	if analysisEnv.ProviderMeta["parse_retried"] == "true" {
		warn(fmt.Sprintf("%s: AI analysis succeeded after one JSON parse retry", candidate.Symbol))
	}

	mergeAnalysis(candidate, analysisEnv.Data)
}

// mergeAnalysis attaches the parsed AIAnalysis to the candidate and computes
// combined_score = 0.6*total_score + 0.4*pmcc_score, entirely in float64
// (spec.md §4.7 step 5; resolves the Decimal/float mixing note in spec.md
// §9 — scores are never promoted to Decimal, only money is).
func mergeAnalysis(candidate *domain.PMCCCandidate, analysis domain.AIAnalysis) {
	combined := totalScoreWeight*candidate.TotalScore + pmccScoreWeight*analysis.PMCCScore
	recommendation := string(analysis.Recommendation)
	now := time.Now().UTC()

	candidate.AIInsights = &analysis
	candidate.ClaudeScore = floatPtr(analysis.PMCCScore)
	candidate.CombinedScore = floatPtr(combined)
	candidate.ClaudeReasoning = stringPtr(analysis.ManagementStrategy)
	candidate.AIRecommendation = &recommendation
	candidate.ClaudeConfidence = floatPtr(analysis.ConfidenceLevel)
	candidate.AIAnalysisTimestamp = &now
}

// buildMarketContext carries a small set of named market-context facts
// derived from the enhanced data; spec.md §4.7 step 2 says omit zero/null
// fields rather than render "N/A", so only populated sections contribute a
// key.
func buildMarketContext(enhanced domain.EnhancedStockData) map[string]string {
	ctx := make(map[string]string)
	if enhanced.Analyst != nil && enhanced.Analyst.Recommendation != "" {
		ctx["analyst_recommendation"] = enhanced.Analyst.Recommendation
	}
	if len(enhanced.CalendarEvents) > 0 {
		ctx["upcoming_events"] = fmt.Sprintf("%d", len(enhanced.CalendarEvents))
	}
	return ctx
}

func floatPtr(f float64) *float64 { return &f }
func stringPtr(s string) *string  { return &s }
