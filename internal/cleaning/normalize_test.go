package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/techco-etl/internal/model"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"incorporated", "Apple Inc.", "Apple Incorporated"},
		{"double quoted with runs", `"Acme   Corp."`, "Acme Corporation"},
		{"single quoted ampersand", "'Foo & Bar Ltd.'", "Foo and Bar Limited"},
		{"company", "Big Co.", "Big Company"},
		{"plc", "Widget Plc", "Widget PLC"},
		{"tabs and newlines", "Alpha\t\nBeta", "Alpha Beta"},
		{"only quotes", `""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanName(tt.in, nameReplacements))
		})
	}
}

func TestCleanName_OrderMatters(t *testing.T) {
	forward := []Replacement{{"a", "b"}, {"b", "c"}}
	reverse := []Replacement{{"b", "c"}, {"a", "b"}}

	assert.Equal(t, "c", CleanName("a", forward))
	assert.Equal(t, "b", CleanName("a", reverse))
}

func TestExtractExchangeAndTicker(t *testing.T) {
	tests := []struct {
		symbol   string
		exchange string
		ticker   string
	}{
		{"AAPL.US", "US", "AAPL"},
		{"0700.HK", "HK", "0700"},
		{"BRK.A.US", "US", "BRK"},
		{"MSFT", UnknownExchange, "MSFT"},
		{"", UnknownExchange, ""},
		{"AAPL.", "", "AAPL"},
		{".L", "L", ""},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.exchange, ExtractExchange(tt.symbol))
			assert.Equal(t, tt.ticker, ExtractTicker(tt.symbol))
		})
	}
}

func TestNormalizeCountry(t *testing.T) {
	n := NewNormalizer(nil)
	tests := []struct {
		in   string
		want string
	}{
		{"uk", "GB"},
		{" usa ", "US"},
		{"us", "US"},
		{"", UnknownCountry},
		{"   ", UnknownCountry},
		{"Unknown", UnknownCountry},
		{"cz", "CZ"},
		{"zz", "ZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.NormalizeCountry(tt.in))
		})
	}
}

func TestNormalizeCountry_LegacyCZRemap(t *testing.T) {
	n := NewNormalizer(nil, WithLegacyCZRemap(true))
	assert.Equal(t, "CN", n.NormalizeCountry("cz"))
	assert.Equal(t, "GB", n.NormalizeCountry("UK"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Acme Cloud Software Incorporated", "Software"},
		{"Acme Corp", OtherTechnology},
		{"Acme Technology", GeneralTechnology},
		{"Samsung Electronics", "Hardware"},
		{"China Mobile", "Telecommunications"},
		{"Baidu", "AI & Data"},
		{"Nintendo Gaming", "Gaming & Entertainment"},
		{"Digital Media Corp", "Software"},
		{"Global Payment Holdings", "Fintech"},
		{"Sunrise Solar Power", "CleanTech"},
		{"", OtherTechnology},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name, techCategories, genericTechTokens))
		})
	}
}

func TestNormalize_UK(t *testing.T) {
	n := NewNormalizer(nil)
	got, _ := n.Normalize(model.RawRecord{Symbol: "ARM.L", Name: "Arm Holdings Plc", Country: "uk"})

	assert.Equal(t, "GB", got.CountryCode)
	assert.Equal(t, "United Kingdom", got.CountryName)
	assert.Equal(t, "Europe", got.Region)
	assert.Equal(t, "L", got.ExchangeCode)
	assert.Equal(t, "London Stock Exchange", got.ExchangeName)
	assert.Equal(t, "Arm Holdings PLC", got.CompanyNameClean)
}

func TestNormalize_Apple(t *testing.T) {
	n := NewNormalizer(nil)
	got, issues := n.Normalize(model.RawRecord{
		Symbol: "AAPL.US", Name: "Apple Inc.", Industry: "Technology", Country: "US",
	})

	assert.Empty(t, issues)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, "US", got.ExchangeCode)
	assert.Equal(t, OtherExchange, got.ExchangeName)
	assert.Equal(t, "Apple Incorporated", got.CompanyNameClean)
	assert.Equal(t, "United States", got.CountryName)
	assert.Equal(t, "North America", got.Region)
	assert.Equal(t, OtherTechnology, got.TechCategory)
}

func TestNormalize_MissingEverything(t *testing.T) {
	n := NewNormalizer(nil)
	got, issues := n.Normalize(model.RawRecord{})

	assert.Equal(t, "", got.Ticker)
	assert.Equal(t, UnknownExchange, got.ExchangeCode)
	assert.Equal(t, OtherExchange, got.ExchangeName)
	assert.Equal(t, "", got.CompanyNameClean)
	assert.Equal(t, UnknownCountry, got.CountryCode)
	assert.Equal(t, OtherCountry, got.CountryName)
	assert.Equal(t, OtherRegion, got.Region)
	assert.Equal(t, OtherTechnology, got.TechCategory)

	fields := make([]string, 0, len(issues))
	for _, is := range issues {
		fields = append(fields, is.Field)
	}
	assert.ElementsMatch(t, []string{"name", "symbol", "country"}, fields)
}

func TestNormalize_UnmappedCountry(t *testing.T) {
	n := NewNormalizer(nil)
	got, _ := n.Normalize(model.RawRecord{Symbol: "X.ZZ", Name: "X", Country: "zz"})
	assert.Equal(t, "ZZ", got.CountryCode)
	assert.Equal(t, OtherCountry, got.CountryName)
	assert.Equal(t, OtherRegion, got.Region)
}
