package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipunch/tvfeed/fetcher/types"
)

// fakeFetcher replays a fixed sequence of results, then succeeds.
type fakeFetcher struct {
	seq  []error
	urls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, req types.Request) ([]byte, error) {
	f.urls = append(f.urls, req.URL)
	n := len(f.urls) - 1
	if n < len(f.seq) && f.seq[n] != nil {
		return nil, f.seq[n]
	}
	return []byte(`{}`), nil
}

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Timeout:        5 * time.Second,
	}
}

func TestWithRetry_Success(t *testing.T) {
	fake := &fakeFetcher{}

	data, err := WithRetry(fake, fastRetry(3)).Fetch(context.Background(), types.Request{URL: "/a.json"})

	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.Len(t, fake.urls, 1)
}

func TestWithRetry_SuccessAfterRetries(t *testing.T) {
	fake := &fakeFetcher{seq: []error{
		&types.FetchError{Kind: types.FailureNetwork},
		&types.FetchError{Kind: types.FailureStatus, StatusCode: 502},
	}}

	_, err := WithRetry(fake, fastRetry(3)).Fetch(context.Background(), types.Request{URL: "/a.json"})

	require.NoError(t, err)
	assert.Len(t, fake.urls, 3)
}

func TestWithRetry_ExceedsMaxRetries(t *testing.T) {
	timeout := &types.FetchError{Kind: types.FailureTimeout}
	fake := &fakeFetcher{seq: []error{timeout, timeout, timeout, timeout, timeout}}

	_, err := WithRetry(fake, fastRetry(2)).Fetch(context.Background(), types.Request{URL: "/a.json"})

	require.Error(t, err)
	assert.Equal(t, types.FailureTimeout, Classify(err))
	assert.Len(t, fake.urls, 3, "one attempt plus two retries")
}

func TestWithRetry_PermanentFailures(t *testing.T) {
	tests := []struct {
		name string
		err  *types.FetchError
	}{
		{"not found", &types.FetchError{Kind: types.FailureStatus, StatusCode: 404}},
		{"parse error", &types.FetchError{Kind: types.FailureParse}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeFetcher{seq: []error{tt.err}}

			_, err := WithRetry(fake, fastRetry(3)).Fetch(context.Background(), types.Request{URL: "/a.json"})

			require.Error(t, err)
			assert.Equal(t, tt.err.Kind, Classify(err))
			assert.Len(t, fake.urls, 1)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeFetcher{seq: []error{&types.FetchError{Kind: types.FailureNetwork}}}

	_, err := WithRetry(fake, fastRetry(5)).Fetch(ctx, types.Request{URL: "/a.json"})

	assert.Error(t, err)
	assert.LessOrEqual(t, len(fake.urls), 1)
}
