package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultUserAgent  = "techco-etl/1.0"
	defaultHTTPLimit  = 64 << 20
	acceptCompanyList = "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet;q=0.9, */*;q=0.1"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64 // body cap; reading past it fails
}

// HTTPFetcher downloads company lists over HTTP(S). Requests are made once.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPFetcher creates an HTTPFetcher, filling unset options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultHTTPLimit
	}
	return &HTTPFetcher{client: &http.Client{Timeout: opts.Timeout}, opts: opts}
}

// Download issues a GET for rawURL. Anything other than 200 is an error.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", acceptCompanyList)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck
		return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return &cappedBody{rc: resp.Body, left: f.opts.MaxBytes, src: rawURL}, nil
}

// cappedBody fails once more than left bytes have been read.
type cappedBody struct {
	rc   io.ReadCloser
	left int64
	src  string
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.left < 0 {
		return 0, eris.Errorf("fetcher: %s exceeds size limit", b.src)
	}
	if int64(len(p)) > b.left+1 {
		p = p[:b.left+1]
	}
	n, err := b.rc.Read(p)
	b.left -= int64(n)
	if b.left < 0 {
		return 0, eris.Errorf("fetcher: %s exceeds size limit", b.src)
	}
	return n, err
}

func (b *cappedBody) Close() error {
	return b.rc.Close()
}
