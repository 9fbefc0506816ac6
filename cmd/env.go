package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/cleaning"
	"github.com/sells-group/techco-etl/internal/config"
	"github.com/sells-group/techco-etl/internal/monitoring"
	"github.com/sells-group/techco-etl/internal/warehouse"
)

// runIDLayout formats run identifiers as ETL_YYYYMMDD_HHMMSS.
const runIDLayout = "20060102_150405"

func newRunID(now time.Time) string {
	return "ETL_" + now.Format(runIDLayout)
}

// validate checks cfg for the given command mode.
func validate(c *config.Config, mode string) error {
	if c == nil {
		return eris.New("config not loaded")
	}
	return c.Validate(mode)
}

// openWarehouse connects to the configured warehouse and ensures its schema.
func openWarehouse(ctx context.Context, c config.WarehouseConfig) (warehouse.Warehouse, error) {
	wh, err := warehouse.Open(ctx, warehouse.Options{
		Driver:       c.Driver,
		DatabaseURL:  c.DatabaseURL,
		SQLitePath:   c.SQLitePath,
		Table:        c.Table,
		AuditTable:   c.AuditTable,
		MetricsTable: c.MetricsTable,
		MaxConns:     c.MaxConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open warehouse")
	}
	if err := wh.EnsureSchema(ctx); err != nil {
		wh.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "ensure warehouse schema")
	}
	return wh, nil
}

// newNormalizer builds a Normalizer from the cleaning settings.
func newNormalizer(c config.CleaningConfig) (*cleaning.Normalizer, error) {
	ref, err := cleaning.LoadReference(c.ReferenceFile)
	if err != nil {
		return nil, err
	}
	return cleaning.NewNormalizer(ref,
		cleaning.WithLegacyCZRemap(c.LegacyCZRemap),
		cleaning.WithLogger(zap.L()),
	), nil
}

// newChecker returns an alert checker over wh, or nil when no webhook is set.
func newChecker(wh monitoring.Source, c config.MonitoringConfig) *monitoring.Checker {
	if c.WebhookURL == "" {
		return nil
	}
	return monitoring.NewChecker(monitoring.NewCollector(wh), monitoring.NewAlerter(c), c)
}

// alertAfterLoad runs one alert check after a load attempt.
func alertAfterLoad(ctx context.Context, wh monitoring.Source, c config.MonitoringConfig) {
	if checker := newChecker(wh, c); checker != nil {
		checker.Check(context.WithoutCancel(ctx))
	}
}
