package types

import (
	"context"
	"fmt"
)

// FailureKind classifies why a fetch failed.
type FailureKind = string

var (
	FailureTimeout = FailureKind("timeout")
	FailureParse   = FailureKind("parsererror")
	FailureStatus  = FailureKind("status")  // the server answered with a non-2xx status
	FailureNetwork = FailureKind("network") // no status available: offline, DNS, refused
)

// Request describes a single GET.
type Request struct {
	URL string
	// ExpectJSON rejects anything but a JSON payload. When false, RSS and
	// Atom documents are accepted too.
	ExpectJSON bool
}

// FetchError is returned by every Fetcher for a failed request.
type FetchError struct {
	URL        string
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves a raw payload. Implementations return *FetchError on
// failure so callers can classify it.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}
