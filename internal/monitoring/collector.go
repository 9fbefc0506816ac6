// Package monitoring watches recent load runs and warehouse quality and
// posts alerts to a webhook when thresholds are breached.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/techco-etl/internal/model"
	"github.com/sells-group/techco-etl/internal/warehouse"
)

// Snapshot is a point-in-time view of load health.
type Snapshot struct {
	Runs      int     `json:"runs"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	FailRate  float64 `json:"fail_rate"`

	LatestRunID  string            `json:"latest_run_id,omitempty"`
	LatestStatus model.AuditStatus `json:"latest_status,omitempty"`
	LatestError  string            `json:"latest_error,omitempty"`

	TotalRows   int     `json:"total_rows"`
	AvgQuality  float64 `json:"avg_data_quality"`
	CompletePct float64 `json:"complete_records_pct"`

	CollectedAt time.Time `json:"collected_at"`
}

// Source is the read side of the warehouse used by the collector.
type Source interface {
	ListAudits(ctx context.Context, limit int) ([]model.AuditEntry, error)
	Stats(ctx context.Context) (*warehouse.Stats, error)
}

// Collector gathers snapshots from a Source.
type Collector struct {
	src Source
}

// NewCollector creates a collector over src.
func NewCollector(src Source) *Collector {
	return &Collector{src: src}
}

// Collect summarizes the last lookbackRuns audit entries and the current
// table statistics.
func (c *Collector) Collect(ctx context.Context, lookbackRuns int) (*Snapshot, error) {
	if lookbackRuns <= 0 {
		lookbackRuns = 20
	}
	snap := &Snapshot{CollectedAt: time.Now().UTC()}

	audits, err := c.src.ListAudits(ctx, lookbackRuns)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list audits")
	}
	snap.Runs = len(audits)
	for _, a := range audits {
		switch a.Status {
		case model.AuditStatusSuccess:
			snap.Succeeded++
		case model.AuditStatusFailed:
			snap.Failed++
		}
	}
	if snap.Runs > 0 {
		snap.FailRate = float64(snap.Failed) / float64(snap.Runs)
		latest := audits[0]
		snap.LatestRunID = latest.RunID
		snap.LatestStatus = latest.Status
		snap.LatestError = latest.ErrorMessage
	}

	stats, err := c.src.Stats(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: warehouse stats")
	}
	snap.TotalRows = stats.TotalRows
	snap.AvgQuality = stats.AvgQuality
	snap.CompletePct = stats.CompletePct

	return snap, nil
}
