package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/techco-etl/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent load audits",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validate(cfg, "report"); err != nil {
			return err
		}
		ctx := cmd.Context()

		wh, err := openWarehouse(ctx, cfg.Warehouse)
		if err != nil {
			return err
		}
		defer wh.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		audits, err := wh.ListAudits(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if len(audits) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(audits)
		}
		formatAudits(os.Stdout, audits)
		return nil
	},
}

// formatAudits writes a tabular list of audit entries to out.
func formatAudits(out io.Writer, audits []model.AuditEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN_ID\tSTATUS\tREAD\tINSERTED\tUPDATED\tUNCHANGED\tFAILED\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "------\t------\t----\t--------\t-------\t---------\t------\t-------\t--------")

	for _, a := range audits {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%.2fs\n",
			a.RunID,
			a.Status,
			a.RecordsRead,
			a.RecordsInserted,
			a.RecordsUpdated,
			a.RecordsUnchanged,
			a.RecordsFailed,
			a.StartTime.Format("2006-01-02 15:04:05"),
			a.DurationSeconds(),
		)
		if a.ErrorMessage != "" {
			_, _ = fmt.Fprintf(w, "  error:\t%s\n", truncate(a.ErrorMessage, 100))
		}
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	runsCmd.Flags().Int("limit", 20, "max number of runs to display")
	runsCmd.Flags().Bool("json", false, "print the audit entries as JSON")
	rootCmd.AddCommand(runsCmd)
}
