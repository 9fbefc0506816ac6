package merge

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/techco-etl/internal/model"
)

// MemoryTable is an in-process Table. It backs dry runs and tests.
type MemoryTable struct {
	mu   sync.Mutex
	rows map[string]model.PersistedRow
}

// NewMemoryTable creates an empty MemoryTable.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{rows: make(map[string]model.PersistedRow)}
}

// HashIndex implements Table.
func (m *MemoryTable) HashIndex(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := make(map[string]string, len(m.rows))
	for k, r := range m.rows {
		idx[k] = r.ContentHash
	}
	return idx, nil
}

// Apply implements Table. The plan is validated in full before any row is
// written.
func (m *MemoryTable) Apply(_ context.Context, plan *Plan, now time.Time) (Applied, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	planned := make(map[string]struct{}, len(plan.Inserts))
	for _, r := range plan.Inserts {
		_, stored := m.rows[r.Symbol]
		_, repeated := planned[r.Symbol]
		if stored || repeated {
			return Applied{}, eris.Errorf("memory: insert %s: duplicate key", r.Symbol)
		}
		planned[r.Symbol] = struct{}{}
	}
	for _, r := range plan.Updates {
		if _, ok := m.rows[r.Symbol]; !ok {
			return Applied{}, eris.Errorf("memory: update %s: no such row", r.Symbol)
		}
	}

	var out Applied
	for _, r := range plan.Inserts {
		m.rows[r.Symbol] = model.PersistedRow{CleanedRecord: r, CreatedAt: now, UpdatedAt: now}
		out.Inserted++
	}
	for _, r := range plan.Updates {
		cur := m.rows[r.Symbol]
		if cur.ContentHash == r.ContentHash {
			continue
		}
		m.rows[r.Symbol] = model.PersistedRow{CleanedRecord: r, CreatedAt: cur.CreatedAt, UpdatedAt: now}
		out.Updated++
	}
	return out, nil
}

// Rows returns a snapshot of all rows ordered by symbol.
func (m *MemoryTable) Rows() []model.PersistedRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PersistedRow, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Get returns the stored row for symbol.
func (m *MemoryTable) Get(symbol string) (model.PersistedRow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[symbol]
	return r, ok
}

// MemoryAudit collects audit entries in memory.
type MemoryAudit struct {
	mu      sync.Mutex
	Entries []model.AuditEntry
}

// RecordAudit implements AuditSink.
func (a *MemoryAudit) RecordAudit(_ context.Context, entry model.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, entry)
	return nil
}
