package cleaning

import "github.com/sells-group/techco-etl/internal/model"

// Dedupe keeps the first record for each symbol, preserving input order.
// It returns the kept records and the number discarded.
func Dedupe(records []model.CleanedRecord) ([]model.CleanedRecord, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.CleanedRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.Symbol]; dup {
			continue
		}
		seen[r.Symbol] = struct{}{}
		out = append(out, r)
	}
	return out, len(records) - len(out)
}
