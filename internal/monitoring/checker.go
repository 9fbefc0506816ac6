package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/config"
)

const defaultCheckInterval = 5 * time.Minute

// Checker collects a snapshot and delivers alerts, either once after a load
// or repeatedly while the status server runs. A failed run is reported once;
// later checks that still see the same run as latest stay quiet about it.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
	log       *zap.Logger

	reportedFailure string
}

// NewChecker wires a collector and alerter together.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
		log:       zap.L().With(zap.String("component", "monitoring.checker")),
	}
}

// Run checks every CheckIntervalSecs until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	every := defaultCheckInterval
	if c.cfg.CheckIntervalSecs > 0 {
		every = time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	}
	c.log.Info("alert checker started", zap.Duration("interval", every), zap.Int("lookback_runs", c.cfg.LookbackRuns))

	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("alert checker stopped")
			return
		case <-tick.C:
			c.Check(ctx)
		}
	}
}

// Check evaluates one snapshot and returns the number of alerts delivered.
func (c *Checker) Check(ctx context.Context) int {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackRuns)
	if err != nil {
		c.log.Error("snapshot collection failed", zap.Error(err))
		return 0
	}

	alerts := c.alerter.Evaluate(snap)
	pending := alerts[:0]
	for _, a := range alerts {
		if a.Type == AlertLoadFailed && snap.LatestRunID == c.reportedFailure {
			continue
		}
		pending = append(pending, a)
	}
	if len(pending) == 0 {
		return 0
	}

	sent := c.alerter.SendAlerts(ctx, pending)
	for _, a := range pending {
		if a.Type == AlertLoadFailed && sent > 0 {
			c.reportedFailure = snap.LatestRunID
		}
	}
	c.log.Info("alert check complete", zap.Int("triggered", len(pending)), zap.Int("sent", sent))
	return sent
}
