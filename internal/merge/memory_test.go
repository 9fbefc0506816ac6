package merge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techco-etl/internal/model"
)

func TestMemoryTable_ApplyIsAllOrNothing(t *testing.T) {
	m := NewMemoryTable()
	now := time.Now()
	_, err := m.Apply(context.Background(), &Plan{Inserts: []model.CleanedRecord{rec("A.US", "Alpha")}}, now)
	require.NoError(t, err)

	_, err = m.Apply(context.Background(), &Plan{
		Inserts: []model.CleanedRecord{rec("B.US", "Beta"), rec("A.US", "Alpha")},
	}, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
	assert.Len(t, m.Rows(), 1)
}

func TestMemoryTable_RepeatedInsertInPlan(t *testing.T) {
	m := NewMemoryTable()
	_, err := m.Apply(context.Background(), &Plan{
		Inserts: []model.CleanedRecord{rec("A.US", "Alpha"), rec("B.US", "Beta"), rec("A.US", "Alpha Two")},
	}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert A.US: duplicate key")
	assert.Empty(t, m.Rows())
}

func TestMemoryTable_UpdateMissingRow(t *testing.T) {
	m := NewMemoryTable()
	_, err := m.Apply(context.Background(), &Plan{Updates: []model.CleanedRecord{rec("Z.US", "Zed")}}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such row")
}

func TestLoadFailure_Error(t *testing.T) {
	lf := &LoadFailure{RunID: "r1", Op: "apply", Elapsed: 1500 * time.Millisecond, Err: assert.AnError}
	assert.Equal(t, "merge: run r1: apply failed after 1.5s: "+assert.AnError.Error(), lf.Error())
	assert.ErrorIs(t, lf, assert.AnError)
}
