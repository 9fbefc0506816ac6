package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techco-etl/internal/model"
)

func TestMetricDescription(t *testing.T) {
	assert.Equal(t, "Unique Symbols", MetricDescription("unique_symbols"))
	assert.Equal(t, "Avg Data Quality Score", MetricDescription("avg_data_quality_score"))
}

func TestBuildMetrics(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	de := testRecord("SAP.DE", "h2")
	de.CountryName = "Germany"
	de.Region = "Europe"
	de.ExchangeCode = "DE"
	de.QualityScore = 0.5
	de.IsComplete = false

	metrics := BuildMetrics("ETL_1", []model.CleanedRecord{testRecord("AAPL.US", "h1"), de}, now)
	require.Len(t, metrics, 8)

	byName := make(map[string]model.QualityMetric)
	for _, m := range metrics {
		assert.Equal(t, "ETL_1", m.RunID)
		byName[m.Name] = m
	}
	assert.Equal(t, 2.0, byName[MetricTotalRecords].Value)
	assert.Equal(t, 2.0, byName[MetricUniqueSymbols].Value)
	assert.InDelta(t, 0.75, byName[MetricAvgQualityScore].Value, 1e-9)
	assert.InDelta(t, 50.0, byName[MetricCompleteRecordsPct].Value, 1e-9)
	assert.Equal(t, 2.0, byName[MetricUniqueCountries].Value)
	assert.Equal(t, 1.0, byName[MetricUniqueTechCategories].Value)
	assert.Equal(t, 2.0, byName[MetricUniqueRegions].Value)
	assert.Equal(t, 2.0, byName[MetricUniqueExchanges].Value)
	assert.Equal(t, "2026-03-01T12:00:00Z", byName[MetricTotalRecords].Details["timestamp"])
}

func TestBuildMetrics_Empty(t *testing.T) {
	metrics := BuildMetrics("ETL_1", nil, time.Now())
	require.Len(t, metrics, 8)
	for _, m := range metrics {
		assert.Zero(t, m.Value, m.Name)
	}
}
