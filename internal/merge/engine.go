// Package merge reconciles a cleaned batch against the persisted company table.
package merge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/model"
)

// Applied is the row-count feedback from a table write.
type Applied struct {
	Inserted int
	Updated  int
}

// Table is the merge target keyed by symbol.
type Table interface {
	// HashIndex returns symbol -> content_hash for every stored row.
	HashIndex(ctx context.Context) (map[string]string, error)

	// Apply writes the plan atomically. now stamps created_at/updated_at.
	Apply(ctx context.Context, plan *Plan, now time.Time) (Applied, error)
}

// AuditSink receives one entry per merge attempt.
type AuditSink interface {
	RecordAudit(ctx context.Context, entry model.AuditEntry) error
}

// Result summarizes a successful merge.
type Result struct {
	RunID     string        `json:"run_id"`
	Read      int           `json:"records_read"`
	Inserted  int           `json:"records_inserted"`
	Updated   int           `json:"records_updated"`
	Unchanged int           `json:"records_unchanged"`
	Duplicate int           `json:"records_duplicate"`
	Failed    int           `json:"records_failed"`
	Duration  time.Duration `json:"duration"`
}

// Engine runs the two-pass merge: diff against the hash index, then apply.
type Engine struct {
	table Table
	audit AuditSink
	log   *zap.Logger
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a merge engine. audit may be nil.
func NewEngine(table Table, audit AuditSink, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		table: table,
		audit: audit,
		log:   log.With(zap.String("component", "merge")),
		now:   time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Merge upserts batch into the table and records an audit entry. Any error
// aborts the whole batch and is returned as a *LoadFailure.
func (e *Engine) Merge(ctx context.Context, runID string, batch []model.CleanedRecord) (*Result, error) {
	start := e.now()
	log := e.log.With(zap.String("run_id", runID))
	log.Info("starting merge", zap.Int("records", len(batch)))

	entry := model.AuditEntry{
		ID:          uuid.New().String(),
		RunID:       runID,
		ProcessName: model.ProcessName,
		ProcessType: model.ProcessType,
		RecordsRead: len(batch),
		StartTime:   start,
	}

	fail := func(op string, err error) (*Result, error) {
		end := e.now()
		lf := &LoadFailure{RunID: runID, Op: op, Elapsed: end.Sub(start), Err: err}
		log.Error("merge failed",
			zap.String("op", op),
			zap.Error(err),
			zap.Duration("elapsed", lf.Elapsed),
		)
		entry.Status = model.AuditStatusFailed
		entry.ErrorMessage = err.Error()
		entry.EndTime = end
		entry.Duration = lf.Elapsed
		e.recordAudit(ctx, log, entry)
		return nil, lf
	}

	index, err := e.table.HashIndex(ctx)
	if err != nil {
		return fail("read hash index", err)
	}

	plan := BuildPlan(index, batch)
	log.Info("merge plan",
		zap.Int("inserts", len(plan.Inserts)),
		zap.Int("updates", len(plan.Updates)),
		zap.Int("unchanged", plan.Unchanged),
		zap.Int("duplicates", plan.Duplicates),
		zap.Int("rejected", plan.Rejected),
	)
	if plan.Rejected > 0 {
		log.Warn("rejected rows without symbol", zap.Int("rejected", plan.Rejected))
	}

	if err := ctx.Err(); err != nil {
		return fail("apply", err)
	}

	var applied Applied
	if !plan.Empty() {
		applied, err = e.table.Apply(ctx, plan, start)
		if err != nil {
			return fail("apply", err)
		}
	}
	if applied.Inserted != len(plan.Inserts) || applied.Updated != len(plan.Updates) {
		log.Warn("row counts differ from plan",
			zap.Int("planned_inserts", len(plan.Inserts)),
			zap.Int("inserted", applied.Inserted),
			zap.Int("planned_updates", len(plan.Updates)),
			zap.Int("updated", applied.Updated),
		)
	}

	end := e.now()
	res := &Result{
		RunID:     runID,
		Read:      len(batch),
		Inserted:  applied.Inserted,
		Updated:   applied.Updated,
		Unchanged: plan.Unchanged,
		Duplicate: plan.Duplicates,
		Failed:    plan.Rejected,
		Duration:  end.Sub(start),
	}

	entry.Status = model.AuditStatusSuccess
	entry.RecordsInserted = res.Inserted
	entry.RecordsUpdated = res.Updated
	// The audit row has no duplicate column; in-batch repeats wrote nothing
	// and are counted as unchanged so read = inserted+updated+unchanged+failed.
	entry.RecordsUnchanged = res.Unchanged + res.Duplicate
	entry.RecordsFailed = res.Failed
	entry.EndTime = end
	entry.Duration = res.Duration
	e.recordAudit(ctx, log, entry)

	log.Info("merge complete",
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}

// recordAudit writes the entry; a failed audit write is logged, not returned.
func (e *Engine) recordAudit(ctx context.Context, log *zap.Logger, entry model.AuditEntry) {
	if e.audit == nil {
		return
	}
	if err := e.audit.RecordAudit(context.WithoutCancel(ctx), entry); err != nil {
		log.Error("failed to record audit entry", zap.Error(err))
		return
	}
	log.Info("audit logged", zap.String("status", string(entry.Status)))
}
