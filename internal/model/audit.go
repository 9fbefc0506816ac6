package model

import "time"

// AuditStatus is the outcome recorded for a load attempt.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusFailed  AuditStatus = "FAILED"
)

// Process identifiers written to every audit entry.
const (
	ProcessName = "TECH_COMPANIES_LOAD"
	ProcessType = "LOAD"
)

// AuditEntry records one load attempt. It is written once at the end of a run
// and never modified.
type AuditEntry struct {
	ID               string        `json:"id"`
	RunID            string        `json:"run_id"`
	ProcessName      string        `json:"process_name"`
	ProcessType      string        `json:"process_type"`
	Status           AuditStatus   `json:"status"`
	RecordsRead      int           `json:"records_read"`
	RecordsInserted  int           `json:"records_inserted"`
	RecordsUpdated   int           `json:"records_updated"`
	RecordsUnchanged int           `json:"records_unchanged"`
	RecordsFailed    int           `json:"records_failed"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
}

// DurationSeconds returns the run duration rounded to hundredths of a second.
func (e AuditEntry) DurationSeconds() float64 {
	return float64(e.Duration.Milliseconds()/10) / 100
}

// QualityMetric is one named data-quality measurement for a run.
type QualityMetric struct {
	RunID   string         `json:"run_id"`
	Name    string         `json:"name"`
	Value   float64        `json:"value"`
	Details map[string]any `json:"details,omitempty"`
}
