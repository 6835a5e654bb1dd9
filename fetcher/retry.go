package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/scipunch/tvfeed/fetcher/types"
)

// RetryConfig controls the exponential backoff around a fetch
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration // total budget across attempts, 0 = unbounded
}

// DefaultRetryConfig returns 3 retries starting at 500ms, capped at 5s
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Timeout:        time.Minute,
	}
}

type retryFetcher struct {
	next   types.Fetcher
	config RetryConfig
}

// WithRetry wraps a fetcher so transient failures (timeouts, network errors,
// 5xx and 429) are retried. Other failures return immediately.
func WithRetry(f types.Fetcher, config RetryConfig) types.Fetcher {
	return &retryFetcher{next: f, config: config}
}

func (r *retryFetcher) Fetch(ctx context.Context, req types.Request) ([]byte, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.config.InitialBackoff
	exp.MaxInterval = r.config.MaxBackoff
	exp.MaxElapsedTime = r.config.Timeout

	var policy backoff.BackOff = exp
	if r.config.MaxRetries >= 0 {
		policy = backoff.WithMaxRetries(policy, uint64(r.config.MaxRetries))
	}
	policy = backoff.WithContext(policy, ctx)

	var (
		data    []byte
		attempt int
	)
	op := func() error {
		attempt++
		var err error
		data, err = r.next.Fetch(ctx, req)
		if err != nil && !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		slog.Debug("fetch failed, retrying", "url", req.URL, "attempt", attempt, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return data, nil
}
