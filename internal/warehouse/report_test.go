package warehouse

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techco-etl/internal/model"
)

func TestWriteReport_WithAudit(t *testing.T) {
	audit := &model.AuditEntry{
		RunID:           "ETL_20260301_120000",
		Status:          model.AuditStatusSuccess,
		RecordsRead:     10,
		RecordsInserted: 7,
		RecordsUpdated:  2,
		Duration:        2340 * time.Millisecond,
	}
	stats := &Stats{
		TotalRows:  9,
		AvgQuality: 0.9,
		TopCategories: []NamedCount{
			{"Software", 5}, {"Hardware", 2}, {"Fintech", 1}, {"AI & Data", 1}, {"Gaming & Entertainment", 1}, {"CleanTech", 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, audit.RunID, "postgres etl.tech_companies", audit, stats))
	out := buf.String()

	assert.Contains(t, out, "Run ID:    ETL_20260301_120000")
	assert.Contains(t, out, "Status:    SUCCESS")
	assert.Contains(t, out, "Duration:  2.34 seconds")
	assert.Contains(t, out, "Records inserted:  7")
	assert.Contains(t, out, "Avg data quality:  0.90/1.0 (90.0%)")
	assert.Contains(t, out, "Gaming & Entertainment: 1 companies")
	assert.NotContains(t, out, "CleanTech", "only the top five categories are listed")
}

func TestWriteReport_NoAudit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, "ETL_x", "sqlite", nil, nil))
	assert.Contains(t, buf.String(), "Status:    N/A")
	assert.NotContains(t, buf.String(), "Warehouse")
}
