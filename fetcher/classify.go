package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/scipunch/tvfeed/fetcher/types"
	"github.com/scipunch/tvfeed/parser"
)

// Classify returns the failure kind of any error a Fetcher produced,
// including bare context errors surfaced by the retry loop.
func Classify(err error) types.FailureKind {
	var fe *types.FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if isTimeout(err) {
		return types.FailureTimeout
	}
	return types.FailureNetwork
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var fe *types.FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// Retryable reports whether another attempt could succeed.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch Classify(err) {
	case types.FailureTimeout, types.FailureNetwork:
		return true
	case types.FailureStatus:
		code := StatusCode(err)
		return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func transportError(url string, err error) *types.FetchError {
	kind := types.FailureNetwork
	if isTimeout(err) {
		kind = types.FailureTimeout
	}
	return &types.FetchError{URL: url, Kind: kind, Err: err}
}

// validate rejects payloads the caller could not decode, so they never reach
// the cache.
func validate(req types.Request, data []byte) error {
	switch parser.Detect(data) {
	case parser.FormatJSON:
		return nil
	case parser.FormatSyndication:
		if !req.ExpectJSON {
			return nil
		}
		return &types.FetchError{URL: req.URL, Kind: types.FailureParse, Err: errors.New("expected JSON, got XML feed")}
	}
	return &types.FetchError{URL: req.URL, Kind: types.FailureParse, Err: parser.ErrUnknown}
}
