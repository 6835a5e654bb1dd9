package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scipunch/tvfeed/fetcher/types"
)

const (
	acceptJSON = "application/json"
	acceptFeed = "application/json, application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"

	defaultTimeout = 30 * time.Second
	maxBodySize    = 32 << 20
)

// HTTPFetcher performs single GET requests. Retries are layered on top with
// WithRetry.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves and validates the payload at req.URL
func (f *HTTPFetcher) Fetch(ctx context.Context, req types.Request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: req.URL, Kind: types.FailureNetwork, Err: err}
	}
	if req.ExpectJSON {
		httpReq.Header.Set("Accept", acceptJSON)
	} else {
		httpReq.Header.Set("Accept", acceptFeed)
	}
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, transportError(req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.FetchError{
			URL:        req.URL,
			Kind:       types.FailureStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server returned %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportError(req.URL, err)
	}

	if err := validate(req, data); err != nil {
		return nil, err
	}
	return data, nil
}
