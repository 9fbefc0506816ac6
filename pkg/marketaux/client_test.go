package marketaux

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-token", WithBaseURL(srv.URL+"/"), WithRateLimit(0))
}

func TestSearchEntities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/entity/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-token", q.Get("api_token"))
		assert.Equal(t, "Technology", q.Get("industries"))
		assert.Equal(t, "equity", q.Get("types"))
		assert.Equal(t, "2", q.Get("page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"meta": {"found": 51, "returned": 1, "limit": 50, "page": 2},
			"data": [{"symbol": "AAPL", "name": "Apple Inc.", "type": "equity",
			          "industry": "Technology", "exchange": "NASDAQ", "country": "us"}]
		}`))
	})

	resp, err := c.SearchEntities(context.Background(), EntitySearchRequest{
		Industries: []string{"Technology"},
		Types:      []string{"equity"},
		Page:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, 51, resp.Meta.Found)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, Entity{
		Symbol: "AAPL", Name: "Apple Inc.", Type: "equity",
		Industry: "Technology", Exchange: "NASDAQ", Country: "us",
	}, resp.Data[0])
}

func TestSearchEntities_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"code":"invalid_api_token"}}`, wantErr: "unexpected status 401"},
		{name: "rate_limit", status: http.StatusTooManyRequests, body: `{}`, wantErr: "unexpected status 429"},
		{name: "malformed", status: http.StatusOK, body: `{not json`, wantErr: "unmarshal /entity/search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			resp, err := c.SearchEntities(context.Background(), EntitySearchRequest{Page: 1})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, resp)
		})
	}
}

func TestNews(t *testing.T) {
	after := time.Date(2026, 10, 11, 15, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news/all", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "AAPL,MSFT", q.Get("symbols"))
		assert.Equal(t, "true", q.Get("filter_entities"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "2026-10-11", q.Get("published_after"))

		_, _ = w.Write([]byte(`{"data": [{"uuid": "a1", "title": "Apple ships",
			"entities": [{"symbol": "AAPL", "match_score": 42.5, "sentiment_score": 0.61}]}]}`))
	})

	resp, err := c.News(context.Background(), NewsRequest{
		Symbols:        []string{"AAPL", "MSFT"},
		FilterEntities: true,
		Limit:          10,
		PublishedAfter: after,
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Apple ships", resp.Data[0].Title)
	require.Len(t, resp.Data[0].Entities, 1)
	assert.InDelta(t, 0.61, resp.Data[0].Entities[0].SentimentScore, 1e-9)
	assert.InDelta(t, 42.5, resp.Data[0].Entities[0].MatchScore, 1e-9)
}

func TestNews_RequiresSymbols(t *testing.T) {
	c := NewClient("k")
	_, err := c.News(context.Background(), NewsRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one symbol")
}

func TestTrending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entity/trending/aggregation", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Technology", q.Get("industries"))
		assert.Equal(t, "5", q.Get("min_doc_count"))
		assert.Equal(t, "total_documents", q.Get("sort"))
		assert.Equal(t, "100", q.Get("limit"))

		_, _ = w.Write([]byte(`{"data": [{"key": "NVDA", "total_documents": 88, "sentiment_avg": 0.2, "score": 12.75}]}`))
	})

	resp, err := c.Trending(context.Background(), TrendingRequest{
		Industries:  []string{"Technology"},
		MinDocCount: 5,
		Sort:        "total_documents",
		Limit:       100,
	})
	require.NoError(t, err)
	assert.Equal(t, []TrendingEntity{{Key: "NVDA", TotalDocuments: 88, SentimentAvg: 0.2, Score: 12.75}}, resp.Data)
}

func TestRateLimitOption(t *testing.T) {
	c := NewClient("k", WithRateLimit(5)).(*httpClient)
	require.NotNil(t, c.limiter)
	assert.Equal(t, rate.Limit(5), c.limiter.Limit())

	c = NewClient("k", WithRateLimit(0)).(*httpClient)
	assert.Nil(t, c.limiter)

	c = NewClient("k").(*httpClient)
	assert.Equal(t, rate.Limit(2), c.limiter.Limit())
}

func TestRateLimit_ContextCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(0.001))
	_, err := c.SearchEntities(context.Background(), EntitySearchRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.SearchEntities(ctx, EntitySearchRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, int32(1), hits.Load())
}
