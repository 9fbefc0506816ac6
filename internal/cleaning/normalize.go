// Package cleaning turns raw company entities into normalized, scored and
// fingerprinted records.
package cleaning

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/model"
)

// InputIssue describes a raw field that was missing or malformed and the
// default that replaced it. Issues are reported, never returned as errors.
type InputIssue struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Default string `json:"default,omitempty"`
}

// Normalized holds the fields derived from a single raw record.
type Normalized struct {
	Ticker           string
	ExchangeCode     string
	ExchangeName     string
	CompanyNameClean string
	CountryCode      string
	CountryName      string
	Region           string
	TechCategory     string
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithLegacyCZRemap enables the CZ -> CN country remap.
func WithLegacyCZRemap(enabled bool) NormalizerOption {
	return func(n *Normalizer) {
		n.legacyCZ = enabled
	}
}

// WithLogger sets the logger used to report remaps.
func WithLogger(log *zap.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if log != nil {
			n.log = log
		}
	}
}

// Normalizer derives display fields from raw records. It is total: every
// input produces a result.
type Normalizer struct {
	ref      *Reference
	legacyCZ bool
	log      *zap.Logger
}

// NewNormalizer creates a Normalizer over ref. A nil ref uses the built-in tables.
func NewNormalizer(ref *Reference, opts ...NormalizerOption) *Normalizer {
	if ref == nil {
		ref = DefaultReference()
	}
	n := &Normalizer{ref: ref, log: zap.NewNop()}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize derives the name, exchange, country and category fields of raw.
func (n *Normalizer) Normalize(raw model.RawRecord) (Normalized, []InputIssue) {
	var issues []InputIssue

	clean := CleanName(raw.Name, n.ref.NameReplacements)
	if clean == "" {
		issues = append(issues, InputIssue{Field: "name", Reason: "empty after cleaning"})
	}

	code := ExtractExchange(raw.Symbol)
	if code == UnknownExchange {
		issues = append(issues, InputIssue{Field: "symbol", Reason: "no exchange suffix", Default: UnknownExchange})
	}
	exchangeName, ok := n.ref.Exchanges[code]
	if !ok {
		exchangeName = OtherExchange
	}

	country := n.NormalizeCountry(raw.Country)
	if country == UnknownCountry {
		issues = append(issues, InputIssue{Field: "country", Reason: "missing or unknown", Default: UnknownCountry})
	}
	countryName, ok := n.ref.Countries[country]
	if !ok {
		countryName = OtherCountry
	}
	region, ok := n.ref.Regions[country]
	if !ok {
		region = OtherRegion
	}

	return Normalized{
		Ticker:           ExtractTicker(raw.Symbol),
		ExchangeCode:     code,
		ExchangeName:     exchangeName,
		CompanyNameClean: clean,
		CountryCode:      country,
		CountryName:      countryName,
		Region:           region,
		TechCategory:     Classify(clean, n.ref.Categories, n.ref.GenericTechTokens),
	}, issues
}

// NormalizeCountry upper-cases and trims a raw country code and applies the
// fix-up table. Missing input yields UNKNOWN.
func (n *Normalizer) NormalizeCountry(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return UnknownCountry
	}
	if fixed, ok := n.ref.CountryFixes[code]; ok {
		return fixed
	}
	if n.legacyCZ {
		if fixed, ok := n.ref.LegacyCountryFixes[code]; ok {
			n.log.Debug("applied legacy country remap",
				zap.String("from", code),
				zap.String("to", fixed),
			)
			return fixed
		}
	}
	return code
}

// CleanName strips surrounding quotes, collapses whitespace and applies the
// replacement table in order.
func CleanName(name string, replacements []Replacement) string {
	if name == "" {
		return ""
	}
	name = strings.Trim(name, `"`)
	name = strings.Trim(name, `'`)
	name = strings.Join(strings.Fields(name), " ")
	for _, r := range replacements {
		name = strings.ReplaceAll(name, r.From, r.To)
	}
	return strings.TrimSpace(name)
}

// ExtractExchange returns the segment after the last '.' of symbol, or
// UNKNOWN when symbol has no '.'.
func ExtractExchange(symbol string) string {
	i := strings.LastIndexByte(symbol, '.')
	if i < 0 {
		return UnknownExchange
	}
	return symbol[i+1:]
}

// ExtractTicker returns the text before the first '.' of symbol.
func ExtractTicker(symbol string) string {
	if i := strings.IndexByte(symbol, '.'); i >= 0 {
		return symbol[:i]
	}
	return symbol
}

// Classify assigns a tech category to a cleaned company name. Categories are
// tested in order and the first keyword hit wins.
func Classify(name string, categories []Category, generic []string) string {
	if name == "" {
		return OtherTechnology
	}
	lower := strings.ToLower(name)
	for _, c := range categories {
		if containsAny(lower, c.Keywords) {
			return c.Name
		}
	}
	if containsAny(lower, generic) {
		return GeneralTechnology
	}
	return OtherTechnology
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
