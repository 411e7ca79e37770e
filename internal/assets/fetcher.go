// Package assets fetches the remote inputs of a render: the background
// image and the font files.
package assets

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"socialcard/internal/pkg/errors"
	"socialcard/internal/pkg/logger"
)

// DefaultTimeout bounds a single fetch when no client is supplied.
const DefaultTimeout = 20 * time.Second

// MaxBytes caps the size of a fetched asset.
const MaxBytes = 32 << 20

// Fetcher retrieves asset bytes over HTTP(S).
type Fetcher struct {
	client *http.Client
	log    *logger.Logger
}

// NewFetcher creates a fetcher. A nil client gets DefaultTimeout.
func NewFetcher(client *http.Client, log *logger.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Fetcher{client: client, log: log.WithComponent("assets")}
}

// Fetch returns the body of url. A non-2xx response or a transport
// failure is an asset fetch error carrying the url and status.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if !IsRemote(url) {
		return nil, errors.AssetFetch(url, 0, errUnsupportedScheme)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.AssetFetch(url, 0, err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, errors.AssetFetch(url, 0, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.AssetFetch(url, res.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxBytes+1))
	if err != nil {
		return nil, errors.AssetFetch(url, res.StatusCode, err)
	}
	if len(body) > MaxBytes {
		return nil, errors.AssetFetch(url, res.StatusCode, nil).WithField("reason", "asset too large")
	}

	f.log.FromContext(ctx).Debug("asset fetched",
		"url", url,
		"status", res.StatusCode,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}

// FetchAll fetches every url concurrently and returns the bodies in the
// same order. The first failure cancels the remaining fetches and is
// returned.
func (f *Fetcher) FetchAll(ctx context.Context, urls ...string) ([][]byte, error) {
	out := make([][]byte, len(urls))
	g, gctx := errgroup.WithContext(ctx)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			body, err := f.Fetch(gctx, u)
			if err != nil {
				return err
			}
			out[i] = body
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

var errUnsupportedScheme = stderrors.New("unsupported url scheme")

// IsRemote reports whether u has an http or https scheme.
func IsRemote(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ReadFile reads a bundled asset from disk. A "file://" prefix is
// accepted.
func ReadFile(path string) ([]byte, error) {
	p := strings.TrimPrefix(path, "file://")
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.AssetFetch(path, 0, err)
	}
	return data, nil
}
