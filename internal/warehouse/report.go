package warehouse

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/techco-etl/internal/model"
)

const reportTopCategories = 5

// WriteReport renders a plain-text load report. audit may be nil when the
// run has no recorded entry.
func WriteReport(w io.Writer, runID, target string, audit *model.AuditEntry, stats *Stats) error {
	var b strings.Builder
	rule := strings.Repeat("-", 53)

	b.WriteString("DATA LOAD REPORT\n")
	b.WriteString(strings.Repeat("=", 53) + "\n\n")

	b.WriteString("Run\n" + rule + "\n")
	fmt.Fprintf(&b, "  Run ID:    %s\n", runID)
	if audit != nil {
		fmt.Fprintf(&b, "  Status:    %s\n", audit.Status)
		fmt.Fprintf(&b, "  Duration:  %.2f seconds\n", audit.DurationSeconds())
		if audit.ErrorMessage != "" {
			fmt.Fprintf(&b, "  Error:     %s\n", audit.ErrorMessage)
		}
		b.WriteString("\nLoad\n" + rule + "\n")
		fmt.Fprintf(&b, "  Records read:      %d\n", audit.RecordsRead)
		fmt.Fprintf(&b, "  Records inserted:  %d\n", audit.RecordsInserted)
		fmt.Fprintf(&b, "  Records updated:   %d\n", audit.RecordsUpdated)
		fmt.Fprintf(&b, "  Records unchanged: %d\n", audit.RecordsUnchanged)
		fmt.Fprintf(&b, "  Records failed:    %d\n", audit.RecordsFailed)
	} else {
		b.WriteString("  Status:    N/A\n")
	}

	if stats != nil {
		b.WriteString("\nWarehouse\n" + rule + "\n")
		fmt.Fprintf(&b, "  Target:            %s\n", target)
		fmt.Fprintf(&b, "  Total companies:   %d\n", stats.TotalRows)
		fmt.Fprintf(&b, "  Countries:         %d\n", stats.Countries)
		fmt.Fprintf(&b, "  Tech categories:   %d\n", stats.Categories)
		fmt.Fprintf(&b, "  Avg data quality:  %.2f/1.0 (%.1f%%)\n", stats.AvgQuality, stats.AvgQuality*100)
		fmt.Fprintf(&b, "  Complete records:  %.1f%%\n", stats.CompletePct)

		b.WriteString("\nTop tech categories\n" + rule + "\n")
		for i, c := range stats.TopCategories {
			if i == reportTopCategories {
				break
			}
			fmt.Fprintf(&b, "  %s: %d companies\n", c.Name, c.Count)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "warehouse: write report")
	}
	return nil
}
