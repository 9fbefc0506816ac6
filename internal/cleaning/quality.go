package cleaning

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	weightSymbol   = decimal.RequireFromString("0.3")
	weightName     = decimal.RequireFromString("0.3")
	weightCountry  = decimal.RequireFromString("0.2")
	weightIndustry = decimal.RequireFromString("0.2")
)

// Quality holds the per-field validity flags and the weighted score.
type Quality struct {
	HasValidSymbol   bool
	HasValidName     bool
	HasValidCountry  bool
	HasValidIndustry bool
	Score            float64
	IsComplete       bool
}

// Assess scores a record from its raw field values and normalized country code.
// Raw values are checked as supplied, before any default is substituted.
func Assess(symbol, name, industry, countryCode string) Quality {
	q := Quality{
		HasValidSymbol:   strings.TrimSpace(symbol) != "",
		HasValidName:     strings.TrimSpace(name) != "",
		HasValidCountry:  countryCode != "" && countryCode != UnknownCountry,
		HasValidIndustry: strings.TrimSpace(industry) != "",
	}

	score := decimal.Zero
	if q.HasValidSymbol {
		score = score.Add(weightSymbol)
	}
	if q.HasValidName {
		score = score.Add(weightName)
	}
	if q.HasValidCountry {
		score = score.Add(weightCountry)
	}
	if q.HasValidIndustry {
		score = score.Add(weightIndustry)
	}

	q.Score = score.InexactFloat64()
	q.IsComplete = score.Equal(decimal.NewFromInt(1))
	return q
}
