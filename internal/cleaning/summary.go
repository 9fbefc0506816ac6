package cleaning

import (
	"sort"

	"github.com/sells-group/techco-etl/internal/model"
)

// CategoryCount is a tech category with its record count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary describes a cleaned dataset.
type Summary struct {
	TotalRecords    int             `json:"total_records"`
	UniqueCompanies int             `json:"unique_companies"`
	Countries       int             `json:"countries"`
	Exchanges       int             `json:"exchanges"`
	TechCategories  int             `json:"tech_categories"`
	AvgQuality      float64         `json:"avg_data_quality"`
	CompleteRecords int             `json:"complete_records"`
	ByRegion        map[string]int  `json:"records_by_region"`
	TopCategories   []CategoryCount `json:"records_by_category"`
}

const topCategoryLimit = 10

// Summarize computes dataset statistics over records.
func Summarize(records []model.CleanedRecord) Summary {
	s := Summary{
		TotalRecords: len(records),
		ByRegion:     make(map[string]int),
	}
	if len(records) == 0 {
		return s
	}

	symbols := make(map[string]struct{})
	countries := make(map[string]struct{})
	exchanges := make(map[string]struct{})
	categories := make(map[string]int)
	var total float64

	for _, r := range records {
		symbols[r.Symbol] = struct{}{}
		countries[r.CountryCode] = struct{}{}
		exchanges[r.ExchangeCode] = struct{}{}
		categories[r.TechCategory]++
		s.ByRegion[r.Region]++
		total += r.QualityScore
		if r.IsComplete {
			s.CompleteRecords++
		}
	}

	s.UniqueCompanies = len(symbols)
	s.Countries = len(countries)
	s.Exchanges = len(exchanges)
	s.TechCategories = len(categories)
	s.AvgQuality = total / float64(len(records))
	s.TopCategories = TopCounts(categories, topCategoryLimit)
	return s
}

// TopCounts orders counts descending (ties by name) and keeps at most limit.
func TopCounts(counts map[string]int, limit int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, CategoryCount{Category: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
