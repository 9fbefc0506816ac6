package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techco-etl/internal/model"
	"github.com/sells-group/techco-etl/internal/warehouse"
)

type mockSource struct {
	audits   []model.AuditEntry
	stats    *warehouse.Stats
	auditErr error
	statsErr error
	limit    int
}

func (m *mockSource) ListAudits(_ context.Context, limit int) ([]model.AuditEntry, error) {
	m.limit = limit
	if m.auditErr != nil {
		return nil, m.auditErr
	}
	if len(m.audits) > limit {
		return m.audits[:limit], nil
	}
	return m.audits, nil
}

func (m *mockSource) Stats(_ context.Context) (*warehouse.Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	if m.stats == nil {
		return &warehouse.Stats{}, nil
	}
	return m.stats, nil
}

func TestCollector_Collect(t *testing.T) {
	src := &mockSource{
		audits: []model.AuditEntry{
			{RunID: "ETL_3", Status: model.AuditStatusFailed, ErrorMessage: "connection refused"},
			{RunID: "ETL_2", Status: model.AuditStatusSuccess},
			{RunID: "ETL_1", Status: model.AuditStatusSuccess},
			{RunID: "ETL_0", Status: model.AuditStatusSuccess},
		},
		stats: &warehouse.Stats{TotalRows: 120, AvgQuality: 0.85, CompletePct: 70},
	}

	snap, err := NewCollector(src).Collect(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, src.limit)
	assert.Equal(t, 4, snap.Runs)
	assert.Equal(t, 3, snap.Succeeded)
	assert.Equal(t, 1, snap.Failed)
	assert.InDelta(t, 0.25, snap.FailRate, 1e-9)
	assert.Equal(t, "ETL_3", snap.LatestRunID)
	assert.Equal(t, model.AuditStatusFailed, snap.LatestStatus)
	assert.Equal(t, "connection refused", snap.LatestError)
	assert.Equal(t, 120, snap.TotalRows)
	assert.InDelta(t, 0.85, snap.AvgQuality, 1e-9)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_DefaultLookback(t *testing.T) {
	src := &mockSource{}
	snap, err := NewCollector(src).Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 20, src.limit)
	assert.Zero(t, snap.Runs)
	assert.Zero(t, snap.FailRate)
	assert.Empty(t, snap.LatestRunID)
}

func TestCollector_Errors(t *testing.T) {
	_, err := NewCollector(&mockSource{auditErr: errors.New("db down")}).Collect(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list audits")

	_, err = NewCollector(&mockSource{statsErr: errors.New("db down")}).Collect(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse stats")
}
