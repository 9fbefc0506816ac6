package warehouse

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// NamedCount is a group label with its row count.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats verifies a load by summarizing the company table.
type Stats struct {
	TotalRows     int          `json:"total_rows"`
	Countries     int          `json:"countries"`
	Categories    int          `json:"tech_categories"`
	AvgQuality    float64      `json:"avg_data_quality"`
	CompletePct   float64      `json:"complete_records_pct"`
	ByRegion      []NamedCount `json:"by_region"`
	TopCategories []NamedCount `json:"top_categories"`
	TopCountries  []NamedCount `json:"top_countries"`
}

const statsTopLimit = 10

// queryOne scans a single row; queryGroups runs a two-column GROUP BY query.
type (
	queryOneFunc    func(ctx context.Context, sql string, dest ...any) error
	queryGroupsFunc func(ctx context.Context, sql string) ([]NamedCount, error)
)

func collectStats(ctx context.Context, table string, one queryOneFunc, groups queryGroupsFunc) (*Stats, error) {
	var (
		s        Stats
		complete int
	)
	err := one(ctx, fmt.Sprintf(
		`SELECT COUNT(*), COUNT(DISTINCT country_name), COUNT(DISTINCT tech_category),
		        COALESCE(AVG(quality_score), 0),
		        COALESCE(SUM(CASE WHEN is_complete THEN 1 ELSE 0 END), 0)
		 FROM %s`, table),
		&s.TotalRows, &s.Countries, &s.Categories, &s.AvgQuality, &complete,
	)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: stats totals")
	}
	if s.TotalRows > 0 {
		s.CompletePct = float64(complete) / float64(s.TotalRows) * 100
	}

	if s.ByRegion, err = groups(ctx, groupQuery(table, "region", 0)); err != nil {
		return nil, eris.Wrap(err, "warehouse: stats by region")
	}
	if s.TopCategories, err = groups(ctx, groupQuery(table, "tech_category", statsTopLimit)); err != nil {
		return nil, eris.Wrap(err, "warehouse: stats by category")
	}
	if s.TopCountries, err = groups(ctx, groupQuery(table, "country_name", statsTopLimit)); err != nil {
		return nil, eris.Wrap(err, "warehouse: stats by country")
	}

	zap.L().Debug("warehouse stats collected",
		zap.Int("total_rows", s.TotalRows),
		zap.Float64("avg_data_quality", s.AvgQuality),
	)
	return &s, nil
}

func groupQuery(table, col string, limit int) string {
	q := fmt.Sprintf(
		`SELECT %[2]s, COUNT(*) AS cnt FROM %[1]s WHERE %[2]s IS NOT NULL GROUP BY %[2]s ORDER BY cnt DESC, %[2]s`,
		table, col,
	)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}
