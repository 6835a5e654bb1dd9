package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/scipunch/tvfeed/fetcher/types"
)

// FileFetcher reads feeds bundled on disk, addressed by path or file:// URL.
type FileFetcher struct{}

func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

func (f *FileFetcher) Fetch(ctx context.Context, req types.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError(req.URL, err)
	}

	path, err := filePath(req.URL)
	if err != nil {
		return nil, &types.FetchError{URL: req.URL, Kind: types.FailureNetwork, Err: err}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &types.FetchError{URL: req.URL, Kind: types.FailureStatus, StatusCode: http.StatusNotFound, Err: err}
	}
	if err != nil {
		return nil, &types.FetchError{URL: req.URL, Kind: types.FailureNetwork, Err: err}
	}

	if err := validate(req, data); err != nil {
		return nil, err
	}
	return data, nil
}

func filePath(raw string) (string, error) {
	if !strings.HasPrefix(raw, "file:") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid file URL %q: %w", raw, err)
	}
	if u.Path == "" {
		return u.Opaque, nil
	}
	return u.Path, nil
}
