package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/config"
	"github.com/sells-group/techco-etl/internal/extract"
	"github.com/sells-group/techco-etl/pkg/marketaux"
)

var extractOutputDir string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch technology companies from MarketAux",
	Long:  "Searches MarketAux for technology entities, samples recent news sentiment and trending aggregations, and writes the list, master and trending CSV files.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if extractOutputDir != "" {
			cfg.MarketAux.OutputDir = extractOutputDir
		}
		if err := validate(cfg, "extract"); err != nil {
			return err
		}

		_, err := runExtract(cmd.Context(), cfg.MarketAux, nil)
		return err
	},
}

// runExtract runs the extract stage. A nil client is built from c.
func runExtract(ctx context.Context, c config.MarketAuxConfig, client marketaux.Client) (*extract.Result, error) {
	if client == nil {
		client = newMarketAuxClient(c)
	}

	ex := extract.New(client, extract.Options{
		PageSize:   c.PageSize,
		NewsSample: c.NewsSample,
		NewsBatch:  c.NewsBatch,
		NewsDays:   c.NewsDays,
		OutputDir:  c.OutputDir,
	}, zap.L())

	res, err := ex.Run(ctx)
	if err != nil {
		return nil, err
	}

	zap.L().Info("extraction complete",
		zap.Int("companies", len(res.Entities)),
		zap.Int("with_news", len(res.News)),
		zap.Int("trending", len(res.Trending)),
		zap.String("list", res.Files.List),
		zap.String("master", res.Files.Master),
		zap.String("trending_file", res.Files.Trending),
	)
	return res, nil
}

func newMarketAuxClient(c config.MarketAuxConfig) marketaux.Client {
	timeout := time.Duration(c.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return marketaux.NewClient(c.APIKey,
		marketaux.WithBaseURL(c.BaseURL),
		marketaux.WithRateLimit(c.RequestsPerSecond),
		marketaux.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}

func init() {
	extractCmd.Flags().StringVar(&extractOutputDir, "output-dir", "", "directory for the CSV files (default from config)")
	rootCmd.AddCommand(extractCmd)
}
