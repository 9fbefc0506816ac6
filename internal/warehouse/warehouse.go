// Package warehouse persists cleaned company records, load audits and
// data-quality metrics in Postgres or SQLite.
package warehouse

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/techco-etl/internal/merge"
	"github.com/sells-group/techco-etl/internal/model"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Default table names. SQLite drops the schema qualifier.
const (
	DefaultTable        = "etl.tech_companies"
	DefaultAuditTable   = "etl.etl_audit"
	DefaultMetricsTable = "etl.data_quality_metrics"
)

// Warehouse is a merge target that also stores audits and metrics.
type Warehouse interface {
	merge.Table
	merge.AuditSink

	// EnsureSchema creates the tables if they do not exist.
	EnsureSchema(ctx context.Context) error
	RecordMetrics(ctx context.Context, metrics []model.QualityMetric) error
	// ListAudits returns the most recent audit entries first.
	ListAudits(ctx context.Context, limit int) ([]model.AuditEntry, error)
	// GetAudit returns the latest entry for runID, or nil if there is none.
	GetAudit(ctx context.Context, runID string) (*model.AuditEntry, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver       string
	DatabaseURL  string
	SQLitePath   string
	Table        string
	AuditTable   string
	MetricsTable string
	MaxConns     int32
}

func (o Options) withDefaults() Options {
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.AuditTable == "" {
		o.AuditTable = DefaultAuditTable
	}
	if o.MetricsTable == "" {
		o.MetricsTable = DefaultMetricsTable
	}
	return o
}

// Open connects to the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Warehouse, error) {
	switch opts.Driver {
	case DriverPostgres:
		return NewPostgres(ctx, opts)
	case DriverSQLite:
		return NewSQLite(opts)
	default:
		return nil, eris.Errorf("warehouse: unknown driver %q", opts.Driver)
	}
}

// companyColumns is the column order used for every write.
var companyColumns = []string{
	"symbol", "ticker", "exchange_code", "exchange_name",
	"company_name", "company_name_clean", "industry",
	"country", "country_code", "country_name", "region", "tech_category",
	"has_valid_symbol", "has_valid_name", "has_valid_country", "has_valid_industry",
	"quality_score", "is_complete",
	"source_hash", "content_hash",
	"etl_run_id", "etl_timestamp", "etl_date", "source_system", "source_file",
	"created_at", "updated_at",
}

// updateColumns excludes the key and created_at.
func updateColumns() []string {
	var cols []string
	for _, c := range companyColumns {
		if c != "symbol" && c != "created_at" {
			cols = append(cols, c)
		}
	}
	return cols
}

func companyValues(r model.CleanedRecord, createdAt, updatedAt time.Time) []any {
	return []any{
		r.Symbol, r.Ticker, r.ExchangeCode, r.ExchangeName,
		r.CompanyName, r.CompanyNameClean, r.Industry,
		r.Country, r.CountryCode, r.CountryName, r.Region, r.TechCategory,
		r.HasValidSymbol, r.HasValidName, r.HasValidCountry, r.HasValidIndustry,
		r.QualityScore, r.IsComplete,
		r.SourceHash, r.ContentHash,
		r.ETLRunID, r.ETLTimestamp, r.ETLDate, r.SourceSystem, r.SourceFile,
		createdAt, updatedAt,
	}
}

var auditColumns = []string{
	"id", "run_id", "process_name", "process_type", "status",
	"records_read", "records_inserted", "records_updated", "records_unchanged", "records_failed",
	"error_message", "start_time", "end_time", "duration_seconds",
}

func auditValues(e model.AuditEntry) []any {
	return []any{
		e.ID, e.RunID, e.ProcessName, e.ProcessType, string(e.Status),
		e.RecordsRead, e.RecordsInserted, e.RecordsUpdated, e.RecordsUnchanged, e.RecordsFailed,
		nullString(e.ErrorMessage), e.StartTime.UTC(), e.EndTime.UTC(), e.DurationSeconds(),
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAudit(row scannable) (*model.AuditEntry, error) {
	var (
		e       model.AuditEntry
		status  string
		errMsg  *string
		seconds float64
	)
	if err := row.Scan(
		&e.ID, &e.RunID, &e.ProcessName, &e.ProcessType, &status,
		&e.RecordsRead, &e.RecordsInserted, &e.RecordsUpdated, &e.RecordsUnchanged, &e.RecordsFailed,
		&errMsg, &e.StartTime, &e.EndTime, &seconds,
	); err != nil {
		return nil, err
	}
	e.Status = model.AuditStatus(status)
	if errMsg != nil {
		e.ErrorMessage = *errMsg
	}
	e.Duration = time.Duration(seconds * float64(time.Second))
	return &e, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// bareName strips a schema qualifier ("etl.tech_companies" -> "tech_companies").
func bareName(table string) string {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[i+1:]
	}
	return table
}

func schemaName(table string) string {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return table[:i]
	}
	return ""
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
