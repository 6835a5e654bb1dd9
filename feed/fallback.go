package feed

import (
	"context"
	"log/slog"

	"github.com/scipunch/tvfeed/fetcher/types"
)

// Storage is the key/value port the client persists raw payloads through.
// cache.Store satisfies it.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// FetchWithFallback issues a JSON request for url. A successful response is
// written to the cache under cacheKey before it is returned. When the
// request fails, a non-empty cached payload for cacheKey is returned in its
// place and the failure is dropped. Without persistence or a key every
// failure is returned as is.
func (c *Client) FetchWithFallback(ctx context.Context, url, cacheKey string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := types.Request{URL: url, ExpectJSON: true}
	return fetchWithFallback(ctx, c, req, cacheKey, func(data []byte) ([]byte, error) {
		return data, nil
	})
}

// fetchWithFallback runs decode on the fresh payload before caching it, so a
// payload of the wrong shape is never persisted and counts as a parse
// failure. A cached payload must decode as well to be usable.
func fetchWithFallback[T any](ctx context.Context, c *Client, req types.Request, key string, decode func([]byte) (T, error)) (T, error) {
	data, err := c.fetcher.Fetch(ctx, req)
	if err == nil {
		v, derr := decode(data)
		if derr == nil {
			c.persist(key, data)
			return v, nil
		}
		err = &types.FetchError{URL: req.URL, Kind: types.FailureParse, Err: derr}
	}

	var zero T
	if !c.persistData || key == "" {
		return zero, err
	}

	cached, found, cerr := c.store.Get(key)
	if cerr != nil {
		slog.Warn("cache read error", "key", key, "error", cerr)
	}
	if !found || len(cached) == 0 {
		return zero, err
	}

	v, derr := decode(cached)
	if derr != nil {
		slog.Warn("cached payload unusable", "key", key, "error", derr)
		return zero, err
	}
	slog.Warn("fetch failed, serving cached payload", "url", req.URL, "key", key, "error", err)
	return v, nil
}

func (c *Client) persist(key string, data []byte) {
	if !c.persistData || key == "" {
		return
	}
	if err := c.store.Set(key, data); err != nil {
		slog.Warn("cache write error", "key", key, "error", err)
		return
	}
	slog.Debug("cached payload", "key", key, "bytes", len(data))
}
