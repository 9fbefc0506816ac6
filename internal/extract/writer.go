package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/techco-etl/internal/dataset"
	"github.com/sells-group/techco-etl/internal/model"
	"github.com/sells-group/techco-etl/pkg/marketaux"
)

// Output file names, written into the configured output directory.
const (
	ListFile     = "marketaux_tech_companies_list.csv"
	MasterFile   = "marketaux_tech_companies_master.csv"
	TrendingFile = "marketaux_trending_tech.csv"

	// TrendingTop caps the rows written to the trending file.
	TrendingTop = 50

	notAvailable    = "N/A"
	generatedLayout = "2006-01-02 15:04:05"
)

// Files holds the paths written by WriteAll.
type Files struct {
	List     string `json:"list"`
	Master   string `json:"master"`
	Trending string `json:"trending"`
}

type masterRow struct {
	Rank         int    `csv:"Rank"`
	Symbol       string `csv:"Symbol"`
	Name         string `csv:"Company Name"`
	Industry     string `csv:"Industry"`
	Exchange     string `csv:"Exchange"`
	Country      string `csv:"Exchange Country"`
	Type         string `csv:"Type"`
	Articles     int    `csv:"News Articles (7 days)"`
	AvgSentiment string `csv:"Avg Sentiment"`
	AvgMatch     string `csv:"Avg Match Score"`
	Headline     string `csv:"Recent Headline"`
}

type trendingRow struct {
	Rank         int    `csv:"Rank"`
	Symbol       string `csv:"Symbol"`
	Articles     int    `csv:"Total Articles"`
	AvgSentiment string `csv:"Average Sentiment"`
	Score        string `csv:"Trending Score"`
}

// WriteAll writes the list, master and trending files into dir.
func WriteAll(dir string, now time.Time, res *Result) (Files, error) {
	files := Files{
		List:     filepath.Join(dir, ListFile),
		Master:   filepath.Join(dir, MasterFile),
		Trending: filepath.Join(dir, TrendingFile),
	}
	sorted := SortBySymbol(res.Entities)

	if err := writeFile(files.List, func(w io.Writer) error {
		return WriteList(w, sorted)
	}); err != nil {
		return Files{}, err
	}
	if err := writeFile(files.Master, func(w io.Writer) error {
		return WriteMaster(w, now, sorted, res.News, len(res.Trending))
	}); err != nil {
		return Files{}, err
	}
	if err := writeFile(files.Trending, func(w io.Writer) error {
		return WriteTrending(w, now, res.Trending)
	}); err != nil {
		return Files{}, err
	}
	return files, nil
}

// SortBySymbol returns a copy of entities ordered by symbol.
func SortBySymbol(entities []marketaux.Entity) []marketaux.Entity {
	out := append([]marketaux.Entity(nil), entities...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// WriteList writes the raw company list consumed by the clean stage.
func WriteList(w io.Writer, entities []marketaux.Entity) error {
	raws := make([]model.RawRecord, len(entities))
	for i, ent := range entities {
		raws[i] = model.RawRecord{
			Symbol:   ent.Symbol,
			Name:     ent.Name,
			Industry: ent.Industry,
			Country:  ent.Country,
		}
	}
	return dataset.WriteRawCSV(w, raws)
}

// WriteMaster writes the extraction report: a title block, summary counts
// and one row per entity with its news aggregates.
func WriteMaster(w io.Writer, now time.Time, entities []marketaux.Entity, news map[string]NewsSummary, trending int) error {
	cw := csv.NewWriter(w)
	preamble := [][]string{
		{"MARKETAUX TECH COMPANIES EXTRACTION REPORT"},
		{"Generated on:", now.Format(generatedLayout)},
		{"Data Source:", "MarketAux Financial API"},
		{},
		{"SUMMARY"},
		{"Total Tech Companies Found:", strconv.Itoa(len(entities))},
		{"Companies with News Data:", strconv.Itoa(len(news))},
		{"Trending Companies:", strconv.Itoa(trending)},
		{},
		{"COMPANY DATA"},
	}
	if err := cw.WriteAll(preamble); err != nil {
		return eris.Wrap(err, "extract: write master preamble")
	}

	enc := csvutil.NewEncoder(cw)
	for i, ent := range entities {
		row := masterRow{
			Rank:         i + 1,
			Symbol:       ent.Symbol,
			Name:         ent.Name,
			Industry:     ent.Industry,
			Exchange:     orNA(ent.Exchange),
			Country:      ent.Country,
			Type:         ent.Type,
			AvgSentiment: notAvailable,
			AvgMatch:     notAvailable,
			Headline:     notAvailable,
		}
		if s, ok := news[ent.Symbol]; ok && s.ArticleCount > 0 {
			row.Articles = s.ArticleCount
			row.AvgSentiment = formatScore(s.AvgSentiment())
			row.AvgMatch = formatScore(s.AvgMatch())
			row.Headline = orNA(s.RecentHeadline)
		}
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "extract: encode master row %s", ent.Symbol)
		}
	}
	if len(entities) == 0 {
		if err := enc.EncodeHeader(masterRow{}); err != nil {
			return eris.Wrap(err, "extract: encode master header")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "extract: flush master")
}

// WriteTrending writes the top TrendingTop aggregations.
func WriteTrending(w io.Writer, now time.Time, trending []marketaux.TrendingEntity) error {
	cw := csv.NewWriter(w)
	preamble := [][]string{
		{"TRENDING TECH COMPANIES (LAST 7 DAYS)"},
		{"Generated on:", now.Format(generatedLayout)},
		{},
	}
	if err := cw.WriteAll(preamble); err != nil {
		return eris.Wrap(err, "extract: write trending preamble")
	}

	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(trendingRow{}); err != nil {
		return eris.Wrap(err, "extract: encode trending header")
	}
	for i, t := range trending[:min(len(trending), TrendingTop)] {
		row := trendingRow{
			Rank:         i + 1,
			Symbol:       t.Key,
			Articles:     t.TotalDocuments,
			AvgSentiment: formatScore(t.SentimentAvg),
			Score:        formatScore(t.Score),
		}
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "extract: encode trending row %s", t.Key)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "extract: flush trending")
}

// writeFile creates path and runs fn against a BOM-prefixed writer.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "extract: create %s", path)
	}
	bw := dataset.NewBOMWriter(f)
	if err := fn(bw); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := bw.Close(); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "extract: flush %s", path)
	}
	return eris.Wrapf(f.Close(), "extract: close %s", path)
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
