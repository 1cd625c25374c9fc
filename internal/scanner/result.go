package scanner

import (
	"sync"
	"time"

	"github.com/pmccscan/pmccscan/internal/domain"
)

// ScanStats is the pass-count summary attached to every run's export
// (spec.md §4.6 step 7 / §4.8).
type ScanStats struct {
	UniverseSize       int
	ScreenedCount      int
	SymbolsAnalyzed    int
	CandidatesFound    int
	CandidatesFiltered int // survived min_total_score
	AIAnalyzedCount    int
}

// ScanResult is the complete output of one orchestrator run: identified by
// ScanID, carrying the ranked top opportunities plus every error/warning
// accumulated along the way rather than aborting on the first one (spec.md
// §4.6: "the orchestrator never aborts on per-symbol errors").
type ScanResult struct {
	ScanID           string
	StartedAt        time.Time
	CompletedAt      time.Time
	Stats            ScanStats
	TopOpportunities []*domain.PMCCCandidate
	Errors           []string
	Warnings         []string
}

// Duration is CompletedAt - StartedAt, zero until the run completes.
func (r ScanResult) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// NewScanID builds the run id format spec.md §4.6 names:
// pmcc_scan_<UTC timestamp>.
func NewScanID(at time.Time) string {
	return "pmcc_scan_" + at.UTC().Format("20060102_150405")
}

// errorCollector is an append-only, mutex-guarded error/warning list fed by
// concurrent per-symbol workers (spec.md §5: "append-only mutex-guarded
// error/warning lists").
type errorCollector struct {
	mu       sync.Mutex
	errors   []string
	warnings []string
}

func (c *errorCollector) addError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

func (c *errorCollector) addWarning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, msg)
}
