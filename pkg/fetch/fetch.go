// Package fetch retrieves remote benchmark files over HTTP or S3 and
// caches them on disk.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// Source is a remote file that can be opened for reading.
type Source interface {
	// Location returns the source URL.
	Location() string
	// Open returns the content reader and the content length, -1 when
	// unknown.
	Open(ctx context.Context) (io.ReadCloser, int64, error)
}

// Options configures source construction and downloads.
type Options struct {
	// Client overrides the HTTP client.
	Client *http.Client

	// Timeout for the whole transfer when no client is given.
	Timeout time.Duration

	// Region for S3 sources.
	Region string

	// Progress renders a progress bar on stderr while downloading.
	Progress bool
}

// NewSource builds a source for the given URL. Supported schemes are
// http, https, and s3.
func NewSource(rawURL string, opts Options) (Source, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, hferrors.Wrap(err, hferrors.CodeBadRequest, "invalid source URL")
	}
	switch parsed.Scheme {
	case "http", "https":
		return newHTTPSource(parsed, opts), nil
	case "s3":
		return newS3Source(parsed, opts)
	default:
		return nil, hferrors.Newf(hferrors.CodeBadRequest,
			"unsupported scheme %q", parsed.Scheme)
	}
}

// httpSource fetches a file from an HTTP/HTTPS URL.
type httpSource struct {
	url    *url.URL
	client *http.Client
}

func newHTTPSource(u *url.URL, opts Options) *httpSource {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 10 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}
	return &httpSource{url: u, client: client}
}

func (s *httpSource) Location() string {
	return s.url.String()
}

func (s *httpSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url.String(), nil)
	if err != nil {
		return nil, 0, hferrors.Wrap(err, hferrors.CodeDownloadFailed, "build request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, hferrors.Wrap(err, hferrors.CodeDownloadFailed, "request failed").
			WithContext("url", s.url.String())
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, hferrors.Newf(hferrors.CodeDownloadFailed,
			"HTTP %d fetching %s", resp.StatusCode, s.url.String())
	}
	return resp.Body, resp.ContentLength, nil
}

// DownloadIfMissing fetches url into path unless the file already exists.
// The existing-file check is the only filesystem state consulted; a present
// file means zero network traffic.
func DownloadIfMissing(ctx context.Context, rawURL, path string, opts Options) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	src, err := NewSource(rawURL, opts)
	if err != nil {
		return err
	}
	return download(ctx, src, path, opts)
}

func download(ctx context.Context, src Source, path string, opts Options) error {
	body, size, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return hferrors.Wrap(err, hferrors.CodeDownloadFailed, "create cache dir")
	}

	// Write to a temp file first so a torn download never looks like a
	// valid cache entry.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return hferrors.Wrap(err, hferrors.CodeDownloadFailed, "create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var w io.Writer = tmp
	if opts.Progress {
		bar := progressbar.DefaultBytes(size, fmt.Sprintf("downloading %s", filepath.Base(path)))
		w = io.MultiWriter(tmp, bar)
	}

	if _, err := io.Copy(w, body); err != nil {
		tmp.Close()
		return hferrors.Wrap(err, hferrors.CodeDownloadFailed, "transfer failed").
			WithContext("url", src.Location())
	}
	if err := tmp.Close(); err != nil {
		return hferrors.Wrap(err, hferrors.CodeDownloadFailed, "flush temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return hferrors.Wrap(err, hferrors.CodeDownloadFailed, "finalize download")
	}
	return nil
}
