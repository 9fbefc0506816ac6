package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/techco-etl/internal/db"
	"github.com/sells-group/techco-etl/internal/merge"
	"github.com/sells-group/techco-etl/internal/model"
)

// Postgres implements Warehouse using pgxpool.
type Postgres struct {
	pool    db.Pool
	closeFn func()
	opts    Options
}

// NewPostgres opens a pool against opts.DatabaseURL and verifies it.
func NewPostgres(ctx context.Context, opts Options) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	if opts.MaxConns > 0 {
		pgxCfg.MaxConns = opts.MaxConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return newPostgres(pool, pool.Close, opts), nil
}

func newPostgres(pool db.Pool, closeFn func(), opts Options) *Postgres {
	return &Postgres{pool: pool, closeFn: closeFn, opts: opts.withDefaults()}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	symbol             TEXT PRIMARY KEY,
	ticker             TEXT NOT NULL,
	exchange_code      TEXT NOT NULL,
	exchange_name      TEXT NOT NULL,
	company_name       TEXT NOT NULL,
	company_name_clean TEXT NOT NULL,
	industry           TEXT NOT NULL,
	country            TEXT NOT NULL,
	country_code       TEXT NOT NULL,
	country_name       TEXT NOT NULL,
	region             TEXT NOT NULL,
	tech_category      TEXT NOT NULL,
	has_valid_symbol   BOOLEAN NOT NULL,
	has_valid_name     BOOLEAN NOT NULL,
	has_valid_country  BOOLEAN NOT NULL,
	has_valid_industry BOOLEAN NOT NULL,
	quality_score      DOUBLE PRECISION NOT NULL,
	is_complete        BOOLEAN NOT NULL,
	source_hash        TEXT NOT NULL,
	content_hash       TEXT NOT NULL,
	etl_run_id         TEXT NOT NULL,
	etl_timestamp      TIMESTAMPTZ NOT NULL,
	etl_date           TEXT NOT NULL,
	source_system      TEXT NOT NULL,
	source_file        TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[2]s (
	id                TEXT PRIMARY KEY,
	run_id            TEXT NOT NULL,
	process_name      TEXT NOT NULL,
	process_type      TEXT NOT NULL,
	status            TEXT NOT NULL,
	records_read      INTEGER NOT NULL,
	records_inserted  INTEGER NOT NULL,
	records_updated   INTEGER NOT NULL,
	records_unchanged INTEGER NOT NULL,
	records_failed    INTEGER NOT NULL,
	error_message     TEXT,
	start_time        TIMESTAMPTZ NOT NULL,
	end_time          TIMESTAMPTZ NOT NULL,
	duration_seconds  DOUBLE PRECISION NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[3]s (
	id             BIGSERIAL PRIMARY KEY,
	run_id         TEXT NOT NULL,
	metric_name    TEXT NOT NULL,
	metric_value   DOUBLE PRECISION NOT NULL,
	metric_details JSONB,
	recorded_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_%[4]s_run_id ON %[2]s (run_id);
CREATE INDEX IF NOT EXISTS idx_%[5]s_run_id ON %[3]s (run_id);
`

// EnsureSchema implements Warehouse.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	schemas := map[string]bool{}
	for _, t := range []string{p.opts.Table, p.opts.AuditTable, p.opts.MetricsTable} {
		if s := schemaName(t); s != "" && !schemas[s] {
			schemas[s] = true
			if _, err := p.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{s}.Sanitize()); err != nil {
				return eris.Wrapf(err, "postgres: create schema %s", s)
			}
		}
	}

	ddl := fmt.Sprintf(postgresSchema,
		db.Identifier(p.opts.Table).Sanitize(),
		db.Identifier(p.opts.AuditTable).Sanitize(),
		db.Identifier(p.opts.MetricsTable).Sanitize(),
		bareName(p.opts.AuditTable),
		bareName(p.opts.MetricsTable),
	)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return eris.Wrap(err, "postgres: ensure schema")
	}
	return nil
}

// HashIndex implements merge.Table.
func (p *Postgres) HashIndex(ctx context.Context) (map[string]string, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		"SELECT symbol, content_hash FROM %s", db.Identifier(p.opts.Table).Sanitize(),
	))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: hash index")
	}
	defer rows.Close()

	idx := make(map[string]string)
	for rows.Next() {
		var symbol, hash string
		if err := rows.Scan(&symbol, &hash); err != nil {
			return nil, eris.Wrap(err, "postgres: scan hash index")
		}
		idx[symbol] = hash
	}
	return idx, eris.Wrap(rows.Err(), "postgres: hash index")
}

// Apply implements merge.Table. Inserts and updates go through one
// staging-table upsert so the batch commits or rolls back as a whole.
func (p *Postgres) Apply(ctx context.Context, plan *merge.Plan, now time.Time) (merge.Applied, error) {
	rows := make([][]any, 0, len(plan.Inserts)+len(plan.Updates))
	for _, r := range plan.Inserts {
		rows = append(rows, companyValues(r, now, now))
	}
	for _, r := range plan.Updates {
		rows = append(rows, companyValues(r, now, now))
	}

	res, err := db.BulkUpsert(ctx, p.pool, db.UpsertConfig{
		Table:        p.opts.Table,
		Columns:      companyColumns,
		ConflictKeys: []string{"symbol"},
		UpdateCols:   updateColumns(),
		ChangeCol:    "content_hash",
	}, rows)
	if err != nil {
		return merge.Applied{}, eris.Wrap(err, "postgres: apply")
	}
	return merge.Applied{Inserted: int(res.Inserted), Updated: int(res.Updated)}, nil
}

// RecordAudit implements merge.AuditSink.
func (p *Postgres) RecordAudit(ctx context.Context, entry model.AuditEntry) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		db.Identifier(p.opts.AuditTable).Sanitize(), joinColumns(auditColumns),
	), auditValues(entry)...)
	if err != nil {
		return eris.Wrapf(err, "postgres: record audit for %s", entry.RunID)
	}
	return nil
}

// RecordMetrics implements Warehouse.
func (p *Postgres) RecordMetrics(ctx context.Context, metrics []model.QualityMetric) error {
	rows := make([][]any, 0, len(metrics))
	for _, m := range metrics {
		details, err := json.Marshal(m.Details)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal details for %s", m.Name)
		}
		rows = append(rows, []any{m.RunID, m.Name, m.Value, details})
	}
	_, err := db.CopyFrom(ctx, p.pool, p.opts.MetricsTable,
		[]string{"run_id", "metric_name", "metric_value", "metric_details"}, rows)
	return err
}

// ListAudits implements Warehouse.
func (p *Postgres) ListAudits(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY start_time DESC, id LIMIT $1`,
		joinColumns(auditColumns), db.Identifier(p.opts.AuditTable).Sanitize(),
	), limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list audits")
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit")
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list audits")
}

// GetAudit implements Warehouse.
func (p *Postgres) GetAudit(ctx context.Context, runID string) (*model.AuditEntry, error) {
	row := p.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE run_id = $1 ORDER BY end_time DESC LIMIT 1`,
		joinColumns(auditColumns), db.Identifier(p.opts.AuditTable).Sanitize(),
	), runID)
	e, err := scanAudit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get audit %s", runID)
	}
	return e, nil
}

// Stats implements Warehouse.
func (p *Postgres) Stats(ctx context.Context) (*Stats, error) {
	one := func(ctx context.Context, sql string, dest ...any) error {
		return p.pool.QueryRow(ctx, sql).Scan(dest...)
	}
	groups := func(ctx context.Context, sql string) ([]NamedCount, error) {
		rows, err := p.pool.Query(ctx, sql)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []NamedCount
		for rows.Next() {
			var c NamedCount
			if err := rows.Scan(&c.Name, &c.Count); err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, rows.Err()
	}
	return collectStats(ctx, db.Identifier(p.opts.Table).Sanitize(), one, groups)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}
