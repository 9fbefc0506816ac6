package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/cleaning"
	"github.com/sells-group/techco-etl/internal/config"
	"github.com/sells-group/techco-etl/internal/dataset"
	"github.com/sells-group/techco-etl/internal/fetcher"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean and score a raw company list",
	Long:  "Reads the raw company list (CSV or XLSX, local path or http/ftp URL), normalizes and scores every row, drops duplicate symbols and writes the cleaned CSV.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyCleanFlags(cmd)
		if err := validate(cfg, "clean"); err != nil {
			return err
		}

		runID := newRunID(time.Now())
		res, err := runClean(cmd.Context(), cfg.Cleaning, runID)
		if err != nil {
			return err
		}
		formatSummary(os.Stdout, cleaning.Summarize(res.Records))
		return nil
	},
}

// applyCleanFlags copies explicitly set flags over the config.
func applyCleanFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("input") {
		cfg.Cleaning.Input, _ = cmd.Flags().GetString("input")
	}
	if cmd.Flags().Changed("output") {
		cfg.Cleaning.Output, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("xlsx") {
		cfg.Cleaning.XLSXOutput, _ = cmd.Flags().GetString("xlsx")
	}
}

// runClean loads the raw list, cleans it and writes the configured outputs.
func runClean(ctx context.Context, c config.CleaningConfig, runID string) (*cleaning.Result, error) {
	norm, err := newNormalizer(c)
	if err != nil {
		return nil, err
	}

	raws, err := dataset.LoadRaw(ctx, fetcher.NewOpener(), c.Input)
	if err != nil {
		return nil, err
	}

	cleaner := cleaning.NewCleaner(norm, cleaning.CleanerOptions{
		RunID:      runID,
		SourceFile: fetcher.BaseName(c.Input),
	}, zap.L())
	res := cleaner.Clean(raws)

	for _, is := range res.Issues {
		zap.L().Debug("input issue",
			zap.Int("row", is.Row),
			zap.String("symbol", is.Symbol),
			zap.String("field", is.Field),
			zap.String("reason", is.Reason),
			zap.String("default", is.Default),
		)
	}

	if c.Output != "" {
		if err := dataset.WriteCleanedCSVFile(c.Output, res.Records); err != nil {
			return nil, err
		}
		zap.L().Info("cleaned data saved", zap.String("path", c.Output), zap.Int("records", len(res.Records)))
	}
	if c.XLSXOutput != "" {
		if err := dataset.WriteCleanedXLSX(c.XLSXOutput, res.Records); err != nil {
			return nil, eris.Wrap(err, "export xlsx")
		}
		zap.L().Info("cleaned workbook saved", zap.String("path", c.XLSXOutput))
	}
	return res, nil
}

// formatSummary writes the cleaning summary to w.
func formatSummary(out io.Writer, s cleaning.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total records:\t%d\n", s.TotalRecords)
	_, _ = fmt.Fprintf(w, "Unique companies:\t%d\n", s.UniqueCompanies)
	_, _ = fmt.Fprintf(w, "Countries:\t%d\n", s.Countries)
	_, _ = fmt.Fprintf(w, "Exchanges:\t%d\n", s.Exchanges)
	_, _ = fmt.Fprintf(w, "Tech categories:\t%d\n", s.TechCategories)
	_, _ = fmt.Fprintf(w, "Avg data quality:\t%.2f\n", s.AvgQuality)
	_, _ = fmt.Fprintf(w, "Complete records:\t%d\n", s.CompleteRecords)
	if len(s.TopCategories) > 0 {
		_, _ = fmt.Fprintln(w, "Top categories:")
		for _, c := range s.TopCategories {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", c.Category, c.Count)
		}
	}
	_ = w.Flush()
}

func addCleanFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "raw company list: path, http(s):// or ftp:// URL (default from config)")
	cmd.Flags().String("output", "", "cleaned CSV path (default from config)")
	cmd.Flags().String("xlsx", "", "also export the cleaned data to this XLSX path")
}

func init() {
	addCleanFlags(cleanCmd)
	rootCmd.AddCommand(cleanCmd)
}
