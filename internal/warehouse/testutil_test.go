package warehouse

import (
	"time"

	"github.com/sells-group/techco-etl/internal/model"
)

func testRecord(symbol, hash string) model.CleanedRecord {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.CleanedRecord{
		Symbol:           symbol,
		Ticker:           symbol,
		ExchangeCode:     "US",
		ExchangeName:     "US Exchanges",
		CompanyName:      "Acme Corp.",
		CompanyNameClean: "Acme Corporation",
		Industry:         "Technology",
		Country:          "us",
		CountryCode:      "US",
		CountryName:      "United States",
		Region:           "North America",
		TechCategory:     "Software",
		HasValidSymbol:   true,
		HasValidName:     true,
		HasValidCountry:  true,
		HasValidIndustry: true,
		QualityScore:     1,
		IsComplete:       true,
		SourceHash:       "src-" + hash,
		ContentHash:      hash,
		ETLRunID:         "ETL_20260301_120000",
		ETLTimestamp:     ts,
		ETLDate:          "2026-03-01",
		SourceSystem:     model.SourceSystem,
		SourceFile:       "companies.csv",
	}
}
