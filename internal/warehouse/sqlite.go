package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/techco-etl/internal/merge"
	"github.com/sells-group/techco-etl/internal/model"
)

// SQLite implements Warehouse using modernc.org/sqlite. Schema qualifiers in
// table names are dropped.
type SQLite struct {
	db      *sql.DB
	table   string
	audit   string
	metrics string
}

// NewSQLite opens the database at opts.SQLitePath and configures WAL mode.
func NewSQLite(opts Options) (*SQLite, error) {
	if opts.SQLitePath == "" {
		return nil, eris.New("sqlite: no database path")
	}
	db, err := sql.Open("sqlite", opts.SQLitePath)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	opts = opts.withDefaults()
	return &SQLite{
		db:      db,
		table:   bareName(opts.Table),
		audit:   bareName(opts.AuditTable),
		metrics: bareName(opts.MetricsTable),
	}, nil
}

const sqliteSchema = `
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
	quality_score      REAL NOT NULL,
	is_complete        BOOLEAN NOT NULL,
	source_hash        TEXT NOT NULL,
	content_hash       TEXT NOT NULL,
	etl_run_id         TEXT NOT NULL,
	etl_timestamp      DATETIME NOT NULL,
	etl_date           TEXT NOT NULL,
	source_system      TEXT NOT NULL,
	source_file        TEXT NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
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
	start_time        DATETIME NOT NULL,
	end_time          DATETIME NOT NULL,
	duration_seconds  REAL NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS %[3]s (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	metric_name    TEXT NOT NULL,
	metric_value   REAL NOT NULL,
	metric_details TEXT,
	recorded_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_%[2]s_run_id ON %[2]s(run_id);
CREATE INDEX IF NOT EXISTS idx_%[3]s_run_id ON %[3]s(run_id);
`

// EnsureSchema implements Warehouse.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(sqliteSchema, s.table, s.audit, s.metrics))
	return eris.Wrap(err, "sqlite: ensure schema")
}

// HashIndex implements merge.Table.
func (s *SQLite) HashIndex(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT symbol, content_hash FROM %s", s.table))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: hash index")
	}
	defer rows.Close() //nolint:errcheck

	idx := make(map[string]string)
	for rows.Next() {
		var symbol, hash string
		if err := rows.Scan(&symbol, &hash); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan hash index")
		}
		idx[symbol] = hash
	}
	return idx, eris.Wrap(rows.Err(), "sqlite: hash index")
}

// Apply implements merge.Table. All writes share one transaction.
func (s *SQLite) Apply(ctx context.Context, plan *merge.Plan, now time.Time) (merge.Applied, error) {
	now = now.UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return merge.Applied{}, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var out merge.Applied

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, joinColumns(companyColumns), placeholders(len(companyColumns)))
	for _, r := range plan.Inserts {
		if _, err := tx.ExecContext(ctx, insertSQL, companyValues(r, now, now)...); err != nil {
			return merge.Applied{}, eris.Wrapf(err, "sqlite: insert %s", r.Symbol)
		}
		out.Inserted++
	}

	cols := updateColumns()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	updateSQL := fmt.Sprintf("UPDATE %s SET %s WHERE symbol = ? AND content_hash <> ?",
		s.table, strings.Join(sets, ", "))
	for _, r := range plan.Updates {
		args := updateValues(r, now)
		args = append(args, r.Symbol, r.ContentHash)
		res, err := tx.ExecContext(ctx, updateSQL, args...)
		if err != nil {
			return merge.Applied{}, eris.Wrapf(err, "sqlite: update %s", r.Symbol)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return merge.Applied{}, eris.Wrap(err, "sqlite: rows affected")
		}
		out.Updated += int(n)
	}

	if err := tx.Commit(); err != nil {
		return merge.Applied{}, eris.Wrap(err, "sqlite: commit")
	}
	return out, nil
}

// updateValues returns companyValues minus symbol and created_at, matching
// updateColumns.
func updateValues(r model.CleanedRecord, now time.Time) []any {
	all := companyValues(r, now, now)
	out := make([]any, 0, len(all)-2)
	for i, c := range companyColumns {
		if c == "symbol" || c == "created_at" {
			continue
		}
		out = append(out, all[i])
	}
	return out
}

// Get returns the stored row for symbol, or nil if absent.
func (s *SQLite) Get(ctx context.Context, symbol string) (*model.PersistedRow, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE symbol = ?", joinColumns(companyColumns), s.table,
	), symbol)

	var r model.PersistedRow
	err := row.Scan(
		&r.Symbol, &r.Ticker, &r.ExchangeCode, &r.ExchangeName,
		&r.CompanyName, &r.CompanyNameClean, &r.Industry,
		&r.Country, &r.CountryCode, &r.CountryName, &r.Region, &r.TechCategory,
		&r.HasValidSymbol, &r.HasValidName, &r.HasValidCountry, &r.HasValidIndustry,
		&r.QualityScore, &r.IsComplete,
		&r.SourceHash, &r.ContentHash,
		&r.ETLRunID, &r.ETLTimestamp, &r.ETLDate, &r.SourceSystem, &r.SourceFile,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s", symbol)
	}
	return &r, nil
}

// RecordAudit implements merge.AuditSink.
func (s *SQLite) RecordAudit(ctx context.Context, entry model.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.audit, joinColumns(auditColumns), placeholders(len(auditColumns)),
	), auditValues(entry)...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record audit for %s", entry.RunID)
	}
	return nil
}

// RecordMetrics implements Warehouse.
func (s *SQLite) RecordMetrics(ctx context.Context, metrics []model.QualityMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	q := fmt.Sprintf("INSERT INTO %s (run_id, metric_name, metric_value, metric_details) VALUES (?, ?, ?, ?)", s.metrics)
	for _, m := range metrics {
		details, err := json.Marshal(m.Details)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal details for %s", m.Name)
		}
		if _, err := tx.ExecContext(ctx, q, m.RunID, m.Name, m.Value, string(details)); err != nil {
			return eris.Wrapf(err, "sqlite: insert metric %s", m.Name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit metrics")
}

// Metrics returns the metrics recorded for runID in insertion order.
func (s *SQLite) Metrics(ctx context.Context, runID string) ([]model.QualityMetric, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT run_id, metric_name, metric_value, metric_details FROM %s WHERE run_id = ? ORDER BY id", s.metrics,
	), runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: metrics")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.QualityMetric
	for rows.Next() {
		var (
			m       model.QualityMetric
			details sql.NullString
		)
		if err := rows.Scan(&m.RunID, &m.Name, &m.Value, &details); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric")
		}
		if details.Valid {
			_ = json.Unmarshal([]byte(details.String), &m.Details)
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: metrics")
}

// ListAudits implements Warehouse.
func (s *SQLite) ListAudits(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY start_time DESC, id LIMIT ?", joinColumns(auditColumns), s.audit,
	), limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audits")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit")
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list audits")
}

// GetAudit implements Warehouse.
func (s *SQLite) GetAudit(ctx context.Context, runID string) (*model.AuditEntry, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE run_id = ? ORDER BY end_time DESC LIMIT 1", joinColumns(auditColumns), s.audit,
	), runID)
	e, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get audit %s", runID)
	}
	return e, nil
}

// Stats implements Warehouse.
func (s *SQLite) Stats(ctx context.Context) (*Stats, error) {
	one := func(ctx context.Context, q string, dest ...any) error {
		return s.db.QueryRowContext(ctx, q).Scan(dest...)
	}
	groups := func(ctx context.Context, q string) ([]NamedCount, error) {
		rows, err := s.db.QueryContext(ctx, q)
		if err != nil {
			return nil, err
		}
		defer rows.Close() //nolint:errcheck
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
	return collectStats(ctx, s.table, one, groups)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
