package cleaning

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/model"
)

// RecordIssue ties an InputIssue to the input row that produced it.
type RecordIssue struct {
	Row    int    `json:"row"`
	Symbol string `json:"symbol"`
	InputIssue
}

// Result is the outcome of cleaning a dataset.
type Result struct {
	Records    []model.CleanedRecord
	Issues     []RecordIssue
	Duplicates int
}

// CleanerOptions configures a Cleaner.
type CleanerOptions struct {
	RunID      string
	SourceFile string
	Now        func() time.Time
}

// Cleaner runs the full cleaning sequence over a dataset.
type Cleaner struct {
	norm *Normalizer
	opts CleanerOptions
	log  *zap.Logger
}

// NewCleaner creates a Cleaner. A nil logger discards output.
func NewCleaner(norm *Normalizer, opts CleanerOptions, log *zap.Logger) *Cleaner {
	if norm == nil {
		norm = NewNormalizer(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{norm: norm, opts: opts, log: log.With(zap.String("component", "cleaning"))}
}

// FillDefaults substitutes defaults for missing name, industry and country.
// Symbol is never defaulted.
func FillDefaults(raw model.RawRecord) (model.RawRecord, []InputIssue) {
	var issues []InputIssue
	if strings.TrimSpace(raw.Symbol) == "" {
		issues = append(issues, InputIssue{Field: "symbol", Reason: "missing"})
	}
	if raw.Name == "" {
		raw.Name = DefaultCompanyName
		issues = append(issues, InputIssue{Field: "name", Reason: "missing", Default: DefaultCompanyName})
	}
	if raw.Industry == "" {
		raw.Industry = DefaultIndustry
		issues = append(issues, InputIssue{Field: "industry", Reason: "missing", Default: DefaultIndustry})
	}
	if raw.Country == "" {
		raw.Country = DefaultCountryInput
		issues = append(issues, InputIssue{Field: "country", Reason: "missing", Default: DefaultCountryInput})
	}
	return raw, issues
}

// CleanRecord converts a single raw record. It never fails.
func (c *Cleaner) CleanRecord(raw model.RawRecord, now time.Time) (model.CleanedRecord, []InputIssue) {
	filled, issues := FillDefaults(raw)
	norm, normIssues := c.norm.Normalize(filled)
	issues = append(issues, normIssues...)

	q := Assess(raw.Symbol, raw.Name, raw.Industry, norm.CountryCode)

	return model.CleanedRecord{
		Symbol:           filled.Symbol,
		Ticker:           norm.Ticker,
		ExchangeCode:     norm.ExchangeCode,
		ExchangeName:     norm.ExchangeName,
		CompanyName:      filled.Name,
		CompanyNameClean: norm.CompanyNameClean,
		Industry:         filled.Industry,
		Country:          filled.Country,
		CountryCode:      norm.CountryCode,
		CountryName:      norm.CountryName,
		Region:           norm.Region,
		TechCategory:     norm.TechCategory,
		HasValidSymbol:   q.HasValidSymbol,
		HasValidName:     q.HasValidName,
		HasValidCountry:  q.HasValidCountry,
		HasValidIndustry: q.HasValidIndustry,
		QualityScore:     q.Score,
		IsComplete:       q.IsComplete,
		SourceHash:       SourceHash(filled.Symbol, filled.Name, filled.Country, filled.Industry),
		ContentHash:      ContentHash(filled.Symbol, filled.Name, filled.Country, filled.Industry),
		ETLRunID:         c.opts.RunID,
		ETLTimestamp:     now,
		ETLDate:          now.Format(time.DateOnly),
		SourceSystem:     model.SourceSystem,
		SourceFile:       c.opts.SourceFile,
	}, issues
}

// Clean converts every raw record, then drops duplicate symbols keeping the
// first occurrence.
func (c *Cleaner) Clean(raws []model.RawRecord) *Result {
	c.log.Info("starting data cleaning", zap.Int("records", len(raws)))
	now := c.opts.Now()

	res := &Result{Records: make([]model.CleanedRecord, 0, len(raws))}
	for i, raw := range raws {
		rec, issues := c.CleanRecord(raw, now)
		for _, is := range issues {
			res.Issues = append(res.Issues, RecordIssue{Row: i, Symbol: raw.Symbol, InputIssue: is})
		}
		res.Records = append(res.Records, rec)
	}

	res.Records, res.Duplicates = Dedupe(res.Records)
	if res.Duplicates > 0 {
		c.log.Warn("removed duplicate records", zap.Int("removed", res.Duplicates))
	}

	sum := Summarize(res.Records)
	c.log.Info("cleaning complete",
		zap.Int("records", len(res.Records)),
		zap.Int("issues", len(res.Issues)),
		zap.Float64("avg_quality", sum.AvgQuality),
	)
	return res
}
