package warehouse

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/techco-etl/internal/model"
)

// Metric names written per run, in order.
const (
	MetricTotalRecords         = "total_records"
	MetricUniqueSymbols        = "unique_symbols"
	MetricAvgQualityScore      = "avg_data_quality_score"
	MetricCompleteRecordsPct   = "complete_records_pct"
	MetricUniqueCountries      = "unique_countries"
	MetricUniqueTechCategories = "unique_tech_categories"
	MetricUniqueRegions        = "unique_regions"
	MetricUniqueExchanges      = "unique_exchanges"
)

var metricTitler = cases.Title(language.English)

// MetricDescription turns a metric name into its display title
// ("unique_symbols" -> "Unique Symbols").
func MetricDescription(name string) string {
	return metricTitler.String(strings.ReplaceAll(name, "_", " "))
}

// BuildMetrics computes the data-quality metrics of a loaded batch.
func BuildMetrics(runID string, records []model.CleanedRecord, now time.Time) []model.QualityMetric {
	var (
		symbols    = make(map[string]struct{})
		countries  = make(map[string]struct{})
		categories = make(map[string]struct{})
		regions    = make(map[string]struct{})
		exchanges  = make(map[string]struct{})
		quality    float64
		complete   int
	)
	for _, r := range records {
		symbols[r.Symbol] = struct{}{}
		countries[r.CountryName] = struct{}{}
		categories[r.TechCategory] = struct{}{}
		regions[r.Region] = struct{}{}
		exchanges[r.ExchangeCode] = struct{}{}
		quality += r.QualityScore
		if r.IsComplete {
			complete++
		}
	}

	var avg, completePct float64
	if n := len(records); n > 0 {
		avg = quality / float64(n)
		completePct = float64(complete) / float64(n) * 100
	}

	values := []struct {
		name  string
		value float64
	}{
		{MetricTotalRecords, float64(len(records))},
		{MetricUniqueSymbols, float64(len(symbols))},
		{MetricAvgQualityScore, avg},
		{MetricCompleteRecordsPct, completePct},
		{MetricUniqueCountries, float64(len(countries))},
		{MetricUniqueTechCategories, float64(len(categories))},
		{MetricUniqueRegions, float64(len(regions))},
		{MetricUniqueExchanges, float64(len(exchanges))},
	}

	ts := now.UTC().Format(time.RFC3339)
	out := make([]model.QualityMetric, 0, len(values))
	for _, v := range values {
		out = append(out, model.QualityMetric{
			RunID: runID,
			Name:  v.name,
			Value: v.value,
			Details: map[string]any{
				"description": MetricDescription(v.name),
				"timestamp":   ts,
			},
		})
	}
	return out
}
