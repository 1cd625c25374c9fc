// Package export writes a completed scan run to disk as JSON and CSV
// (spec.md §4.8). JSON uses encoding/json for a full, round-trip-safe
// candidate serialization; CSV uses encoding/csv. Neither library has a
// third-party alternative anywhere in the example pack — no JSON library
// beyond the standard one appears in any example repo's go.mod, and no CSV
// writer appears at all — so both are the stdlib-by-necessity exception
// recorded in DESIGN.md.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pmccscan/pmccscan/internal/domain"
	"github.com/pmccscan/pmccscan/internal/scanner"
)

// Filenames builds the pair of export filenames for a run, timestamped so
// earlier runs are never overwritten (spec.md §4.8: "history is preserved
// by the timestamp in the filename").
func Filenames(dataDir string, at time.Time) (jsonPath, csvPath string) {
	stamp := at.UTC().Format("20060102_150405")
	base := filepath.Join(dataDir, fmt.Sprintf("pmcc_scan_%s", stamp))
	return base + ".json", base + ".csv"
}

// WriteRun serializes a ScanResult to both formats under dataDir, refusing
// to overwrite an existing file of either name.
func WriteRun(dataDir string, result *scanner.ScanResult) (jsonPath, csvPath string, err error) {
	jsonPath, csvPath = Filenames(dataDir, result.StartedAt)

	if err := writeJSON(jsonPath, result); err != nil {
		return "", "", fmt.Errorf("writing JSON export: %w", err)
	}
	if err := writeCSV(csvPath, result); err != nil {
		return "", "", fmt.Errorf("writing CSV export: %w", err)
	}
	return jsonPath, csvPath, nil
}

// runDocument is the JSON export's top-level shape (spec.md §4.8). Each
// candidate is serialized via its own domain.PMCCCandidate fields directly
// (both legs, every Greek, the risk block, and every AI field, null if
// absent) — recursive and complete by construction, and round-trips back
// into the same struct since nothing here is hand-flattened.
type runDocument struct {
	ScanID           string                  `json:"scan_id"`
	StartedAt        time.Time               `json:"started_at"`
	CompletedAt      time.Time               `json:"completed_at"`
	DurationSeconds  float64                 `json:"duration_seconds"`
	Stats            scanner.ScanStats       `json:"stats"`
	TopOpportunities []*domain.PMCCCandidate `json:"top_opportunities"`
	Errors           []string                `json:"errors"`
	Warnings         []string                `json:"warnings"`
}

func writeJSON(path string, result *scanner.ScanResult) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing export file %s", path)
	}

	opportunities := result.TopOpportunities
	if opportunities == nil {
		opportunities = []*domain.PMCCCandidate{}
	}

	doc := runDocument{
		ScanID:           result.ScanID,
		StartedAt:        result.StartedAt,
		CompletedAt:      result.CompletedAt,
		DurationSeconds:  result.Duration().Seconds(),
		Stats:            result.Stats,
		TopOpportunities: opportunities,
		Errors:           nonNilStrings(result.Errors),
		Warnings:         nonNilStrings(result.Warnings),
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
