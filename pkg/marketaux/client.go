// Package marketaux is a minimal client for the MarketAux financial data API.
package marketaux

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.marketaux.com/v1"

	// PageSize is the maximum number of entities returned per search page.
	PageSize = 50
)

// Client queries MarketAux entities, news and trending aggregations.
type Client interface {
	SearchEntities(ctx context.Context, req EntitySearchRequest) (*EntitySearchResponse, error)
	News(ctx context.Context, req NewsRequest) (*NewsResponse, error)
	Trending(ctx context.Context, req TrendingRequest) (*TrendingResponse, error)
}

// Entity is one company returned by /entity/search.
type Entity struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Industry string `json:"industry"`
	Exchange string `json:"exchange"`
	Country  string `json:"country"`
}

// Meta is the paging block returned alongside list results.
type Meta struct {
	Found    int `json:"found"`
	Returned int `json:"returned"`
	Limit    int `json:"limit"`
	Page     int `json:"page"`
}

// EntitySearchRequest selects one page of entity search results.
type EntitySearchRequest struct {
	Industries []string
	Types      []string
	Page       int
}

// EntitySearchResponse is the body of /entity/search.
type EntitySearchResponse struct {
	Meta Meta     `json:"meta"`
	Data []Entity `json:"data"`
}

// NewsRequest selects recent articles mentioning Symbols.
type NewsRequest struct {
	Symbols        []string
	FilterEntities bool
	Limit          int
	PublishedAfter time.Time
}

// NewsEntity is a company mentioned by an article, with its scores.
type NewsEntity struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	MatchScore     float64 `json:"match_score"`
	SentimentScore float64 `json:"sentiment_score"`
}

// Article is one news item.
type Article struct {
	UUID        string       `json:"uuid"`
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	PublishedAt string       `json:"published_at"`
	Entities    []NewsEntity `json:"entities"`
}

// NewsResponse is the body of /news/all.
type NewsResponse struct {
	Meta Meta      `json:"meta"`
	Data []Article `json:"data"`
}

// TrendingRequest selects trending entity aggregations.
type TrendingRequest struct {
	Industries     []string
	MinDocCount    int
	PublishedAfter time.Time
	Sort           string
	Limit          int
}

// TrendingEntity is one aggregation row of /entity/trending/aggregation.
type TrendingEntity struct {
	Key            string  `json:"key"`
	TotalDocuments int     `json:"total_documents"`
	SentimentAvg   float64 `json:"sentiment_avg"`
	Score          float64 `json:"score"`
}

// TrendingResponse is the body of /entity/trending/aggregation.
type TrendingResponse struct {
	Data []TrendingEntity `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default pacing of 2 req/s. Zero or less disables it.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiToken string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a MarketAux client authenticated with apiToken.
func NewClient(apiToken string, opts ...Option) Client {
	c := &httpClient{
		apiToken: apiToken,
		baseURL:  defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(2, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchEntities(ctx context.Context, req EntitySearchRequest) (*EntitySearchResponse, error) {
	q := url.Values{}
	setList(q, "industries", req.Industries)
	setList(q, "types", req.Types)
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}

	var out EntitySearchResponse
	if err := c.get(ctx, "/entity/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) News(ctx context.Context, req NewsRequest) (*NewsResponse, error) {
	if len(req.Symbols) == 0 {
		return nil, eris.New("marketaux: news requires at least one symbol")
	}
	q := url.Values{}
	setList(q, "symbols", req.Symbols)
	if req.FilterEntities {
		q.Set("filter_entities", "true")
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if !req.PublishedAfter.IsZero() {
		q.Set("published_after", req.PublishedAfter.Format(time.DateOnly))
	}

	var out NewsResponse
	if err := c.get(ctx, "/news/all", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Trending(ctx context.Context, req TrendingRequest) (*TrendingResponse, error) {
	q := url.Values{}
	setList(q, "industries", req.Industries)
	if req.MinDocCount > 0 {
		q.Set("min_doc_count", strconv.Itoa(req.MinDocCount))
	}
	if !req.PublishedAfter.IsZero() {
		q.Set("published_after", req.PublishedAfter.Format(time.DateOnly))
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}

	var out TrendingResponse
	if err := c.get(ctx, "/entity/trending/aggregation", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "marketaux: rate limit")
		}
	}

	q.Set("api_token", c.apiToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "marketaux: create request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrapf(err, "marketaux: GET %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "marketaux: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("marketaux: unexpected status %d from %s: %s", resp.StatusCode, path, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "marketaux: unmarshal %s", path)
	}
	return nil
}

func setList(q url.Values, key string, vals []string) {
	if len(vals) > 0 {
		q.Set(key, strings.Join(vals, ","))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
