package claude

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/providers"
)

// BuildPrompt assembles the context package into a prompt. Fields that are
// nil or zero-length are omitted entirely rather than rendered as "null" or
// "N/A" (spec.md §4.7 step 2), matching the
// opportunity_context_builder.go's populate-and-skip-if-absent pattern.
func BuildPrompt(args providers.AnalyzeOpportunityArgs) string {
	var b strings.Builder
	b.WriteString("You are an options trading analyst evaluating a Poor Man's Covered Call (PMCC) opportunity.\n\n")

	if c := args.Candidate; c != nil {
		fmt.Fprintf(&b, "Symbol: %s\n", c.Symbol)
		fmt.Fprintf(&b, "Underlying price: %.2f\n", c.UnderlyingPrice)
		fmt.Fprintf(&b, "LEAPS long call: strike %.2f, expires in %d days%s\n",
			c.LongCall.Strike, c.LongCall.DTE, fmtDelta(c.LongCall.Delta))
		fmt.Fprintf(&b, "Short call: strike %.2f, expires in %d days%s\n",
			c.ShortCall.Strike, c.ShortCall.DTE, fmtDelta(c.ShortCall.Delta))
		fmt.Fprintf(&b, "Net debit: %s\n", c.NetDebit.StringFixed(2))
		fmt.Fprintf(&b, "Max profit: %s, max loss: %s, risk/reward: %.3f\n",
			c.Risk.MaxProfit.StringFixed(2), c.Risk.MaxLoss.StringFixed(2), c.Risk.RiskReward)
		fmt.Fprintf(&b, "Total score: %.1f\n", c.TotalScore)
	}

	if e := args.Enhanced; e != nil {
		if e.Fundamentals != nil {
			b.WriteString("\nFundamentals:\n")
			appendIfSet(&b, "P/E ratio", e.Fundamentals.PERatio)
			appendIfSet(&b, "Revenue growth", e.Fundamentals.RevenueGrowth)
			appendIfSet(&b, "Profit margin", e.Fundamentals.ProfitMargin)
			appendIfSet(&b, "Debt/Equity", e.Fundamentals.DebtToEquity)
		}
		if e.Analyst != nil {
			fmt.Fprintf(&b, "\nAnalyst recommendation: %s\n", e.Analyst.Recommendation)
		}
		if e.Technicals != nil {
			b.WriteString("\nTechnicals:\n")
			appendIfSet(&b, "RSI(14)", e.Technicals.RSI14)
			appendIfSet(&b, "MACD histogram", e.Technicals.MACDHistogram)
			appendIfSet(&b, "Bollinger position", e.Technicals.BollingerPosition)
		}
		if len(e.CalendarEvents) > 0 {
			b.WriteString("\nUpcoming calendar events:\n")
			for _, ev := range e.CalendarEvents {
				fmt.Fprintf(&b, "- %s: %s (%s)\n", ev.Date.Format("2006-01-02"), ev.Label, ev.Type)
			}
		}
	}

	for k, v := range args.MarketCtx {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}

	b.WriteString("\nRespond with ONLY a JSON object with these exact keys: ")
	b.WriteString(`pmcc_score, execution_risk_score, financial_stability_score, calendar_event_score, ` +
		`technical_setup_score (all 0-100 numbers), recommendation ("buy"|"hold"|"avoid"), ` +
		`confidence_level (0-100), key_risks (array of strings), key_opportunities (array of strings), ` +
		`management_strategy, entry_timing, exit_conditions (array of strings), position_sizing.`)
	return b.String()
}

func fmtDelta(d *float64) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf(", delta %.3f", *d)
}

func appendIfSet(b *strings.Builder, label string, v *float64) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "- %s: %.3f\n", label, *v)
}

type analysisPayload struct {
	PMCCScore               float64  `json:"pmcc_score"`
	ExecutionRiskScore      float64  `json:"execution_risk_score"`
	FinancialStabilityScore float64  `json:"financial_stability_score"`
	CalendarEventScore      float64  `json:"calendar_event_score"`
	TechnicalSetupScore     float64  `json:"technical_setup_score"`
	Recommendation          string   `json:"recommendation"`
	ConfidenceLevel         float64  `json:"confidence_level"`
	KeyRisks                []string `json:"key_risks"`
	KeyOpportunities        []string `json:"key_opportunities"`
	ManagementStrategy      string   `json:"management_strategy"`
	EntryTiming             string   `json:"entry_timing"`
	ExitConditions          []string `json:"exit_conditions"`
	PositionSizing          string   `json:"position_sizing"`
}

// ParseAnalysis decodes the model's strict JSON contract. It tolerates a
// response wrapped in a markdown code fence, which Claude sometimes emits
// despite being asked not to, but does not otherwise attempt to salvage
// malformed JSON — the caller is responsible for the one-retry policy.
func ParseAnalysis(text string) (*domain.AIAnalysis, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var p analysisPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, err
	}

	rec := domain.RecommendHold
	switch strings.ToLower(p.Recommendation) {
	case "buy":
		rec = domain.RecommendBuy
	case "avoid":
		rec = domain.RecommendAvoid
	}

	return &domain.AIAnalysis{
		PMCCScore:               p.PMCCScore,
		ExecutionRiskScore:      p.ExecutionRiskScore,
		FinancialStabilityScore: p.FinancialStabilityScore,
		CalendarEventScore:      p.CalendarEventScore,
		TechnicalSetupScore:     p.TechnicalSetupScore,
		Recommendation:          rec,
		ConfidenceLevel:         p.ConfidenceLevel,
		KeyRisks:                p.KeyRisks,
		KeyOpportunities:        p.KeyOpportunities,
		ManagementStrategy:      p.ManagementStrategy,
		EntryTiming:             p.EntryTiming,
		ExitConditions:          p.ExitConditions,
		PositionSizing:          p.PositionSizing,
	}, nil
}
