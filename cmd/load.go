package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/config"
	"github.com/sells-group/techco-etl/internal/dataset"
	"github.com/sells-group/techco-etl/internal/merge"
	"github.com/sells-group/techco-etl/internal/model"
	"github.com/sells-group/techco-etl/internal/warehouse"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Merge a cleaned dataset into the warehouse",
	Long:  "Reads the cleaned CSV and upserts it into the company table keyed by symbol. Rows whose content hash is unchanged are skipped. Every attempt is audited.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validate(cfg, "load"); err != nil {
			return err
		}
		ctx := cmd.Context()

		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			input = cfg.Cleaning.Output
		}
		records, err := dataset.ReadCleanedCSVFile(input)
		if err != nil {
			return err
		}
		zap.L().Info("loaded cleaned records", zap.String("path", input), zap.Int("records", len(records)))

		runID, _ := cmd.Flags().GetString("run-id")
		if runID == "" {
			runID = batchRunID(records, time.Now())
		}

		wh, err := openWarehouse(ctx, cfg.Warehouse)
		if err != nil {
			return err
		}
		defer wh.Close() //nolint:errcheck

		_, err = runLoad(ctx, wh, records, runID, warehouseTarget(cfg.Warehouse), os.Stdout)
		alertAfterLoad(ctx, wh, cfg.Monitoring)
		return err
	},
}

// batchRunID reuses the run id stamped by the clean stage, or makes a new one.
func batchRunID(records []model.CleanedRecord, now time.Time) string {
	if len(records) > 0 && records[0].ETLRunID != "" {
		return records[0].ETLRunID
	}
	return newRunID(now)
}

// runLoad merges records, stores quality metrics and writes the load report
// to out. A *merge.LoadFailure is returned unchanged.
func runLoad(ctx context.Context, wh warehouse.Warehouse, records []model.CleanedRecord, runID, target string, out io.Writer) (*merge.Result, error) {
	log := zap.L().With(zap.String("run_id", runID))

	res, err := merge.NewEngine(wh, wh, zap.L()).Merge(ctx, runID, records)
	if err != nil {
		return nil, err
	}

	metrics := warehouse.BuildMetrics(runID, records, time.Now())
	if err := wh.RecordMetrics(ctx, metrics); err != nil {
		log.Warn("failed to record quality metrics", zap.Error(err))
	} else {
		log.Info("quality metrics recorded", zap.Int("metrics", len(metrics)))
	}

	stats, err := wh.Stats(ctx)
	if err != nil {
		log.Warn("failed to verify load", zap.Error(err))
		stats = nil
	}
	audit, err := wh.GetAudit(ctx, runID)
	if err != nil {
		log.Warn("failed to read audit entry", zap.Error(err))
		audit = nil
	}

	if err := warehouse.WriteReport(out, runID, target, audit, stats); err != nil {
		return res, err
	}
	return res, nil
}

// warehouseTarget describes the configured company table for reports.
func warehouseTarget(c config.WarehouseConfig) string {
	table := c.Table
	if table == "" {
		table = warehouse.DefaultTable
	}
	return fmt.Sprintf("%s %s", c.Driver, table)
}

func init() {
	loadCmd.Flags().String("input", "", "cleaned CSV to load (default cleaning.output)")
	loadCmd.Flags().String("run-id", "", "run identifier (default from the cleaned data)")
	rootCmd.AddCommand(loadCmd)
}
