package merge

import "github.com/sells-group/techco-etl/internal/model"

// Plan is the diff of an incoming batch against the table's hash index.
type Plan struct {
	Inserts []model.CleanedRecord
	Updates []model.CleanedRecord
	// Unchanged counts rows whose content hash matches the stored row.
	Unchanged int
	// Duplicates counts repeats of a symbol already seen in the batch.
	Duplicates int
	// Rejected counts rows that cannot be keyed (empty symbol).
	Rejected int
}

// Empty reports whether the plan writes nothing.
func (p *Plan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0
}

// BuildPlan classifies each incoming row as insert, update or unchanged.
// Repeated symbols inside the batch keep their first occurrence.
func BuildPlan(index map[string]string, batch []model.CleanedRecord) *Plan {
	p := &Plan{}
	seen := make(map[string]struct{}, len(batch))
	for _, r := range batch {
		if r.Symbol == "" {
			p.Rejected++
			continue
		}
		if _, dup := seen[r.Symbol]; dup {
			p.Duplicates++
			continue
		}
		seen[r.Symbol] = struct{}{}

		stored, exists := index[r.Symbol]
		switch {
		case !exists:
			p.Inserts = append(p.Inserts, r)
		case stored != r.ContentHash:
			p.Updates = append(p.Updates, r)
		default:
			p.Unchanged++
		}
	}
	return p
}
