package ai

import (
	"sync"
	"time"
)

// costPerAnalysis is a fixed per-call cost estimate used to enforce the
// daily monetary budget without depending on the upstream's own usage
// accounting (the Messages API reports token counts, not dollars, and
// converting those to a price would tie this package to one model's
// pricing table). Conservative estimate for a ~1500-max-token completion
// against a mid-tier Claude model.
const costPerAnalysis = 0.05

// budgetTracker enforces a daily monetary cap on AI requests (spec.md §4.7
// step 3: "once exhausted, subsequent requests skip with a recorded
// reason"). It resets at UTC midnight rather than a rolling 24h window, so
// the budget lines up with "per day" the way an operator reading the
// exported scan_id timestamp would expect.
type budgetTracker struct {
	mu        sync.Mutex
	limitUSD  float64
	day       string
	spentUSD  float64
}

func newBudgetTracker(limitUSD float64) *budgetTracker {
	return &budgetTracker{limitUSD: limitUSD}
}

// tryReserve charges one analysis's estimated cost against today's budget
// and reports whether it fit. Resets the counter when the UTC day rolls
// over.
func (b *budgetTracker) tryReserve(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	day := now.UTC().Format("2006-01-02")
	if day != b.day {
		b.day = day
		b.spentUSD = 0
	}

	if b.spentUSD+costPerAnalysis > b.limitUSD {
		return false
	}
	b.spentUSD += costPerAnalysis
	return true
}

func (b *budgetTracker) spent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spentUSD
}
