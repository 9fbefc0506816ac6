package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/techco-etl/internal/warehouse"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Print the load report for a run",
	Long:  "Prints the audit outcome of a run together with current warehouse statistics. Without a run id the most recent run is reported.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validate(cfg, "report"); err != nil {
			return err
		}
		ctx := cmd.Context()

		wh, err := openWarehouse(ctx, cfg.Warehouse)
		if err != nil {
			return err
		}
		defer wh.Close() //nolint:errcheck

		runID := ""
		if len(args) == 1 {
			runID = args[0]
		}
		return writeRunReport(ctx, wh, runID, warehouseTarget(cfg.Warehouse), os.Stdout)
	},
}

// writeRunReport renders the report for runID, or for the latest run when
// runID is empty.
func writeRunReport(ctx context.Context, wh warehouse.Warehouse, runID, target string, out io.Writer) error {
	if runID == "" {
		latest, err := wh.ListAudits(ctx, 1)
		if err != nil {
			return eris.Wrap(err, "report: latest run")
		}
		if len(latest) == 0 {
			return eris.New("report: no runs recorded")
		}
		runID = latest[0].RunID
	}

	audit, err := wh.GetAudit(ctx, runID)
	if err != nil {
		return eris.Wrapf(err, "report: audit %s", runID)
	}
	if audit == nil {
		return eris.Errorf("report: run %s not found", runID)
	}

	stats, err := wh.Stats(ctx)
	if err != nil {
		return eris.Wrap(err, "report: stats")
	}
	return warehouse.WriteReport(out, runID, target, audit, stats)
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
