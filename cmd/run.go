package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/cleaning"
	"github.com/sells-group/techco-etl/internal/merge"
	"github.com/sells-group/techco-etl/pkg/marketaux"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run clean and load end to end",
	Long:  "Cleans the raw company list and merges it into the warehouse under a single run id. With --extract the list is fetched from MarketAux first. With --dry-run the merge runs against an in-memory table and nothing is written to the warehouse.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyCleanFlags(cmd)
		withExtract, _ := cmd.Flags().GetBool("extract")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		mode := "run"
		if dryRun {
			mode = "clean"
		}
		if err := validate(cfg, mode); err != nil {
			return err
		}
		if withExtract {
			if err := validate(cfg, "extract"); err != nil {
				return err
			}
		}

		_, err := runPipeline(cmd.Context(), pipelineOptions{
			Extract: withExtract,
			DryRun:  dryRun,
		}, nil, os.Stdout)
		return err
	},
}

type pipelineOptions struct {
	Extract bool
	DryRun  bool
	Now     func() time.Time
}

// runPipeline chains extract (optional), clean and load. A nil client is
// built from the config when extraction is requested.
func runPipeline(ctx context.Context, opts pipelineOptions, client marketaux.Client, out io.Writer) (*merge.Result, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	runID := newRunID(opts.Now())
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("starting ETL run", zap.Bool("extract", opts.Extract), zap.Bool("dry_run", opts.DryRun))

	cleanCfg := cfg.Cleaning
	if opts.Extract {
		res, err := runExtract(ctx, cfg.MarketAux, client)
		if err != nil {
			return nil, err
		}
		cleanCfg.Input = res.Files.List
	}

	cleaned, err := runClean(ctx, cleanCfg, runID)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		res, err := merge.NewEngine(merge.NewMemoryTable(), nil, zap.L()).Merge(ctx, runID, cleaned.Records)
		if err != nil {
			return nil, err
		}
		formatSummary(out, cleaning.Summarize(cleaned.Records))
		log.Info("dry run complete", zap.Int("would_insert", res.Inserted))
		return res, nil
	}

	wh, err := openWarehouse(ctx, cfg.Warehouse)
	if err != nil {
		return nil, err
	}
	defer wh.Close() //nolint:errcheck

	res, err := runLoad(ctx, wh, cleaned.Records, runID, warehouseTarget(cfg.Warehouse), out)
	alertAfterLoad(ctx, wh, cfg.Monitoring)
	return res, err
}

func init() {
	addCleanFlags(runCmd)
	runCmd.Flags().Bool("extract", false, "fetch the raw list from MarketAux before cleaning")
	runCmd.Flags().Bool("dry-run", false, "clean and plan the merge without writing to the warehouse")
	rootCmd.AddCommand(runCmd)
}
