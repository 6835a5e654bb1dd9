package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/scipunch/tvfeed/fetcher/types"
)

// Options configure the fetcher stack built by New.
type Options struct {
	// BaseURL resolves relative feed URLs, normally the master feed location.
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Retry     RetryConfig
}

// New builds the full stack: scheme routing, retries and metrics.
func New(opts Options) types.Fetcher {
	router := &Router{
		BaseURL: opts.BaseURL,
		HTTP:    NewHTTPFetcher(opts.Timeout, opts.UserAgent),
		File:    NewFileFetcher(),
	}
	return Instrument(WithRetry(router, opts.Retry))
}

// Router dispatches on URL scheme after resolving relative references
// against BaseURL.
type Router struct {
	BaseURL string
	HTTP    types.Fetcher
	File    types.Fetcher
}

func (r *Router) Fetch(ctx context.Context, req types.Request) ([]byte, error) {
	target, err := r.resolve(req.URL)
	if err != nil {
		return nil, &types.FetchError{URL: req.URL, Kind: types.FailureNetwork, Err: err}
	}
	req.URL = target

	u, err := url.Parse(target)
	if err != nil {
		return nil, &types.FetchError{URL: target, Kind: types.FailureNetwork, Err: err}
	}

	switch u.Scheme {
	case "http", "https":
		return r.HTTP.Fetch(ctx, req)
	case "file", "":
		return r.File.Fetch(ctx, req)
	default:
		return nil, &types.FetchError{
			URL:  target,
			Kind: types.FailureNetwork,
			Err:  fmt.Errorf("unsupported scheme %q", u.Scheme),
		}
	}
}

func (r *Router) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty feed URL")
	}
	if r.BaseURL == "" {
		return ref, nil
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid feed URL %q: %w", ref, err)
	}
	if refURL.IsAbs() {
		return ref, nil
	}

	base, err := url.Parse(r.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", r.BaseURL, err)
	}
	if base.Scheme == "http" || base.Scheme == "https" {
		return base.ResolveReference(refURL).String(), nil
	}

	// local base: relative paths sit next to the master feed file
	if strings.HasPrefix(ref, "/") {
		return ref, nil
	}
	dir := filepath.Dir(base.Path)
	if base.Scheme == "" {
		dir = filepath.Dir(r.BaseURL)
	}
	return filepath.Join(dir, ref), nil
}
