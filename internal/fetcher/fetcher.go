// Package fetcher opens raw input sources from local paths, HTTP(S) URLs and
// FTP URLs.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Opener resolves a source string to a reader. Anything that is not an
// http, https or ftp URL is treated as a local path.
type Opener struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewOpener creates an Opener with default HTTP and FTP fetchers.
func NewOpener() *Opener {
	return &Opener{
		HTTP: NewHTTPFetcher(HTTPOptions{}),
		FTP:  NewFTPFetcher(FTPOptions{}),
	}
}

// Open returns a reader for src. The caller must close it.
func (o *Opener) Open(ctx context.Context, src string) (io.ReadCloser, error) {
	switch Scheme(src) {
	case "http", "https":
		zap.L().Debug("fetcher: opening http source", zap.String("src", src))
		return o.HTTP.Download(ctx, src)
	case "ftp":
		zap.L().Debug("fetcher: opening ftp source", zap.String("src", src))
		return o.FTP.Download(ctx, src)
	default:
		f, err := os.Open(LocalPath(src))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", src)
		}
		return f, nil
	}
}

// ReadAll opens src and reads it fully.
func (o *Opener) ReadAll(ctx context.Context, src string) ([]byte, error) {
	rc, err := o.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", src)
	}
	return data, nil
}

// Scheme returns the lower-cased URL scheme of src, or "" for plain paths.
func Scheme(src string) string {
	i := strings.Index(src, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(src[:i])
}

// LocalPath strips a file:// prefix.
func LocalPath(src string) string {
	if Scheme(src) != "file" {
		return src
	}
	u, err := url.Parse(src)
	if err != nil {
		return strings.TrimPrefix(src, "file://")
	}
	return u.Path
}

// BaseName returns the final path element of src, ignoring any query string.
func BaseName(src string) string {
	if Scheme(src) != "" {
		if u, err := url.Parse(src); err == nil {
			src = u.Path
		}
	}
	src = strings.TrimRight(src, "/")
	if i := strings.LastIndexAny(src, `/\`); i >= 0 {
		return src[i+1:]
	}
	return src
}
