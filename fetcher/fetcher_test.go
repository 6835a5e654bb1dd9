package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipunch/tvfeed/fetcher/types"
)

func TestHTTPFetcher_Success(t *testing.T) {
	var gotAccept, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"feeds":[]}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "tvfeed-test")
	data, err := f.Fetch(context.Background(), types.Request{URL: srv.URL, ExpectJSON: true})

	require.NoError(t, err)
	assert.JSONEq(t, `{"feeds":[]}`, string(data))
	assert.Equal(t, acceptJSON, gotAccept)
	assert.Equal(t, "tvfeed-test", gotUA)
}

func TestHTTPFetcher_Classification(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		expectJSON bool
		kind       types.FailureKind
		status     int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			kind:   types.FailureStatus,
			status: http.StatusInternalServerError,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			kind:   types.FailureStatus,
			status: http.StatusNotFound,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"media": [`))
			},
			kind: types.FailureParse,
		},
		{
			name: "xml where json is required",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<rss version="2.0"><channel></channel></rss>`))
			},
			expectJSON: true,
			kind:       types.FailureParse,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(500 * time.Millisecond):
				}
			},
			kind: types.FailureTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			f := NewHTTPFetcher(50*time.Millisecond, "")
			_, err := f.Fetch(context.Background(), types.Request{URL: srv.URL, ExpectJSON: tt.expectJSON})

			require.Error(t, err)
			assert.Equal(t, tt.kind, Classify(err))
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestHTTPFetcher_AcceptsXMLForContentFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss version="2.0"><channel><title>x</title></channel></rss>`))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), types.Request{URL: srv.URL})
	assert.NoError(t, err)
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), types.Request{URL: url})

	require.Error(t, err)
	assert.Equal(t, types.FailureNetwork, Classify(err))
	assert.Zero(t, StatusCode(err))
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed_master.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"feeds":[]}`), 0644))

	f := NewFileFetcher()

	data, err := f.Fetch(context.Background(), types.Request{URL: path, ExpectJSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"feeds":[]}`, string(data))

	data, err = f.Fetch(context.Background(), types.Request{URL: "file://" + path, ExpectJSON: true})
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = f.Fetch(context.Background(), types.Request{URL: filepath.Join(dir, "missing.json")})
	require.Error(t, err)
	assert.Equal(t, types.FailureStatus, Classify(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"timeout", &types.FetchError{Kind: types.FailureTimeout}, true},
		{"network", &types.FetchError{Kind: types.FailureNetwork}, true},
		{"5xx", &types.FetchError{Kind: types.FailureStatus, StatusCode: 503}, true},
		{"429", &types.FetchError{Kind: types.FailureStatus, StatusCode: 429}, true},
		{"4xx", &types.FetchError{Kind: types.FailureStatus, StatusCode: 404}, false},
		{"parse", &types.FetchError{Kind: types.FailureParse}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Retryable(tt.err))
		})
	}
}

func TestClassify_BareErrors(t *testing.T) {
	assert.Equal(t, types.FailureTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, types.FailureNetwork, Classify(errors.New("connection reset")))
}

func TestRouter_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		ref      string
		expected string
	}{
		{"no base", "", "/a.json", "/a.json"},
		{"absolute ref", "https://cdn.example.com/master.json", "https://other.example.com/a.json", "https://other.example.com/a.json"},
		{"http root relative", "https://cdn.example.com/feeds/master.json", "/a.json", "https://cdn.example.com/a.json"},
		{"http relative", "https://cdn.example.com/feeds/master.json", "a.json", "https://cdn.example.com/feeds/a.json"},
		{"file relative", "/srv/assets/feed_master.json", "a.json", "/srv/assets/a.json"},
		{"file url relative", "file:///srv/assets/feed_master.json", "a.json", "/srv/assets/a.json"},
		{"file absolute", "/srv/assets/feed_master.json", "/other/a.json", "/other/a.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Router{BaseURL: tt.base}
			got, err := r.resolve(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRouter_Dispatch(t *testing.T) {
	httpFake := &fakeFetcher{}
	fileFake := &fakeFetcher{}
	r := &Router{BaseURL: "https://cdn.example.com/master.json", HTTP: httpFake, File: fileFake}

	_, err := r.Fetch(context.Background(), types.Request{URL: "/a.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/a.json"}, httpFake.urls)

	r.BaseURL = ""
	_, err = r.Fetch(context.Background(), types.Request{URL: "./assets/feed_master.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"./assets/feed_master.json"}, fileFake.urls)

	_, err = r.Fetch(context.Background(), types.Request{URL: "ftp://example.com/a.json"})
	require.Error(t, err)
	assert.Equal(t, types.FailureNetwork, Classify(err))

	_, err = r.Fetch(context.Background(), types.Request{URL: ""})
	assert.Error(t, err)
}

func TestNew_BuildsWorkingStack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"media":[]}`))
	}))
	defer srv.Close()

	f := New(Options{BaseURL: srv.URL + "/master.json", Timeout: time.Second, Retry: fastRetry(1)})
	data, err := f.Fetch(context.Background(), types.Request{URL: "/a.json"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"media":[]}`, string(data))
}
