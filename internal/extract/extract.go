// Package extract pulls technology company entities, recent news sentiment and
// trending aggregations from MarketAux and writes them as CSV files.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/techco-etl/pkg/marketaux"
)

// PrimaryIndustry is searched without filtering.
const PrimaryIndustry = "Technology"

// FilteredIndustries are searched and kept only when IsTech matches the name.
var FilteredIndustries = []string{"Communication Services", "Consumer Cyclical"}

// techKeywords are matched as substrings of the lower-cased company name.
var techKeywords = []string{
	"tech", "software", "computer", "digital", "cloud", "cyber", "data",
	"internet", "online", "mobile", "app", "semiconductor", "chip",
	"electronic", "telecom", "communication", "network", "ai", "robotics",
	"automation", "platform", "saas", "fintech", "biotech", "gaming",
}

// Options configures an Extractor.
type Options struct {
	PageSize   int
	NewsSample int
	NewsBatch  int
	NewsDays   int
	OutputDir  string
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = marketaux.PageSize
	}
	if o.NewsSample <= 0 {
		o.NewsSample = 20
	}
	if o.NewsBatch <= 0 {
		o.NewsBatch = 5
	}
	if o.NewsDays <= 0 {
		o.NewsDays = 7
	}
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// NewsSummary aggregates the articles that mention one symbol.
type NewsSummary struct {
	ArticleCount   int
	SentimentSum   float64
	MatchSum       float64
	RecentHeadline string
}

// AvgSentiment returns the mean sentiment score.
func (n NewsSummary) AvgSentiment() float64 {
	if n.ArticleCount == 0 {
		return 0
	}
	return n.SentimentSum / float64(n.ArticleCount)
}

// AvgMatch returns the mean match score.
func (n NewsSummary) AvgMatch() float64 {
	if n.ArticleCount == 0 {
		return 0
	}
	return n.MatchSum / float64(n.ArticleCount)
}

// Result is everything gathered by one extraction.
type Result struct {
	Entities []marketaux.Entity
	News     map[string]NewsSummary
	Trending []marketaux.TrendingEntity
	Files    Files
}

// Extractor runs the extract stage against a MarketAux client.
type Extractor struct {
	client marketaux.Client
	opts   Options
	log    *zap.Logger
}

// New creates an Extractor. A nil logger discards output.
func New(client marketaux.Client, opts Options, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		client: client,
		opts:   opts.withDefaults(),
		log:    log.With(zap.String("component", "extract")),
	}
}

// Run fetches entities, news and trending data and writes the output files.
// API failures are logged and the run continues with what was fetched;
// only context cancellation and file errors are returned.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	entities, err := e.FetchEntities(ctx)
	if err != nil {
		return nil, err
	}
	fetched := len(entities)
	entities = Dedupe(entities)
	e.log.Info("unique tech companies",
		zap.Int("fetched", fetched),
		zap.Int("unique", len(entities)),
	)

	news := map[string]NewsSummary{}
	if len(entities) > 0 {
		news, err = e.FetchNews(ctx, entities)
		if err != nil {
			return nil, err
		}
	}

	trending, err := e.FetchTrending(ctx)
	if err != nil {
		return nil, err
	}
	e.log.Info("trending tech companies found", zap.Int("count", len(trending)))

	res := &Result{Entities: entities, News: news, Trending: trending}
	res.Files, err = WriteAll(e.opts.OutputDir, e.opts.Now(), res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// FetchEntities pages through the primary industry and the filtered
// industries. A failing page ends that industry's loop.
func (e *Extractor) FetchEntities(ctx context.Context) ([]marketaux.Entity, error) {
	all, err := e.searchIndustry(ctx, PrimaryIndustry, nil)
	if err != nil {
		return nil, err
	}
	for _, industry := range FilteredIndustries {
		found, err := e.searchIndustry(ctx, industry, IsTech)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}

func (e *Extractor) searchIndustry(ctx context.Context, industry string, keep func(string) bool) ([]marketaux.Entity, error) {
	log := e.log.With(zap.String("industry", industry))
	var out []marketaux.Entity
	for page := 1; ; page++ {
		resp, err := e.client.SearchEntities(ctx, marketaux.EntitySearchRequest{
			Industries: []string{industry},
			Types:      []string{"equity"},
			Page:       page,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, eris.Wrap(ctxErr, "extract: search entities")
			}
			log.Warn("entity search failed", zap.Int("page", page), zap.Error(err))
			return out, nil
		}
		if len(resp.Data) == 0 {
			return out, nil
		}

		kept := 0
		for _, ent := range resp.Data {
			if keep == nil || keep(ent.Name) {
				out = append(out, ent)
				kept++
			}
		}
		log.Debug("fetched entity page",
			zap.Int("page", page),
			zap.Int("returned", len(resp.Data)),
			zap.Int("kept", kept),
			zap.Int("total", len(out)),
		)

		if len(resp.Data) < e.opts.PageSize {
			return out, nil
		}
	}
}

// IsTech reports whether a company name contains a technology keyword.
func IsTech(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range techKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Dedupe drops entities with an empty symbol and keeps the first entity per
// symbol, preserving order.
func Dedupe(entities []marketaux.Entity) []marketaux.Entity {
	seen := make(map[string]struct{}, len(entities))
	out := make([]marketaux.Entity, 0, len(entities))
	for _, ent := range entities {
		if ent.Symbol == "" {
			continue
		}
		if _, dup := seen[ent.Symbol]; dup {
			continue
		}
		seen[ent.Symbol] = struct{}{}
		out = append(out, ent)
	}
	return out
}

// FetchNews samples the first NewsSample entities and aggregates the
// sentiment of recent articles per mentioned symbol. Batches are requested
// concurrently; a failing batch is logged and skipped.
func (e *Extractor) FetchNews(ctx context.Context, entities []marketaux.Entity) (map[string]NewsSummary, error) {
	sample := entities
	if len(sample) > e.opts.NewsSample {
		sample = sample[:e.opts.NewsSample]
	}
	symbols := make([]string, len(sample))
	for i, ent := range sample {
		symbols[i] = ent.Symbol
	}

	var batches [][]string
	for i := 0; i < len(symbols); i += e.opts.NewsBatch {
		batches = append(batches, symbols[i:min(i+e.opts.NewsBatch, len(symbols))])
	}

	after := e.opts.Now().AddDate(0, 0, -e.opts.NewsDays)
	responses := make([]*marketaux.NewsResponse, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, batch := range batches {
		g.Go(func() error {
			resp, err := e.client.News(gctx, marketaux.NewsRequest{
				Symbols:        batch,
				FilterEntities: true,
				Limit:          10,
				PublishedAfter: after,
			})
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.log.Warn("news fetch failed", zap.Strings("symbols", batch), zap.Error(err))
				return nil
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "extract: fetch news")
	}

	news := make(map[string]NewsSummary)
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		for _, article := range resp.Data {
			for _, ent := range article.Entities {
				s, ok := news[ent.Symbol]
				if !ok {
					s.RecentHeadline = article.Title
				}
				s.ArticleCount++
				s.SentimentSum += ent.SentimentScore
				s.MatchSum += ent.MatchScore
				news[ent.Symbol] = s
			}
		}
	}
	e.log.Info("news aggregated",
		zap.Int("batches", len(batches)),
		zap.Int("symbols_with_news", len(news)),
	)
	return news, nil
}

// FetchTrending returns the trending technology aggregation for the news
// window. A failed request yields an empty list.
func (e *Extractor) FetchTrending(ctx context.Context) ([]marketaux.TrendingEntity, error) {
	resp, err := e.client.Trending(ctx, marketaux.TrendingRequest{
		Industries:     []string{PrimaryIndustry},
		MinDocCount:    5,
		PublishedAfter: e.opts.Now().AddDate(0, 0, -e.opts.NewsDays),
		Sort:           "total_documents",
		Limit:          100,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, eris.Wrap(ctxErr, "extract: fetch trending")
		}
		e.log.Warn("trending fetch failed", zap.Error(err))
		return nil, nil
	}
	return resp.Data, nil
}
