package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/pmccscan/pmccscan/internal/scanner"
)

var csvHeader = []string{
	"scan_id", "started_at", "duration_seconds", "universe_size", "screened_count",
	"symbol", "underlying_price",
	"long_strike", "long_expiration", "long_delta", "long_dte",
	"short_strike", "short_expiration", "short_delta", "short_dte",
	"net_debit", "max_profit", "max_loss", "breakeven", "risk_reward",
	"total_score", "combined_score", "rank",
}

// writeCSV writes one row per opportunity, repeating scan-level metadata on
// every row (spec.md §4.8), or a single metadata-only row when the run
// produced no opportunities.
func writeCSV(path string, result *scanner.ScanResult) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing export file %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	meta := []string{
		result.ScanID,
		result.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
		strconv.FormatFloat(result.Duration().Seconds(), 'f', 2, 64),
		strconv.Itoa(result.Stats.UniverseSize),
		strconv.Itoa(result.Stats.ScreenedCount),
	}

	if len(result.TopOpportunities) == 0 {
		row := append(append([]string{}, meta...), make([]string, len(csvHeader)-len(meta))...)
		return w.Write(row)
	}

	for _, c := range result.TopOpportunities {
		row := append([]string{}, meta...)
		row = append(row,
			c.Symbol,
			formatFloat(c.UnderlyingPrice),
			formatFloat(c.LongCall.Strike),
			c.LongCall.Expiration.UTC().Format("2006-01-02"),
			formatOptionalFloat(c.LongCall.Delta),
			strconv.Itoa(c.LongCall.DTE),
			formatFloat(c.ShortCall.Strike),
			c.ShortCall.Expiration.UTC().Format("2006-01-02"),
			formatOptionalFloat(c.ShortCall.Delta),
			strconv.Itoa(c.ShortCall.DTE),
			c.NetDebit.StringFixed(2),
			c.Risk.MaxProfit.StringFixed(2),
			c.Risk.MaxLoss.StringFixed(2),
			c.Risk.Breakeven.StringFixed(2),
			formatFloat(c.Risk.RiskReward),
			formatFloat(c.TotalScore),
			formatOptionalFloat(c.CombinedScore),
			strconv.Itoa(c.Rank),
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
