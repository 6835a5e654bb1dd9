package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipunch/tvfeed/cache"
	"github.com/scipunch/tvfeed/catalog"
	"github.com/scipunch/tvfeed/feed"
	"github.com/scipunch/tvfeed/fetcher/types"
	"github.com/scipunch/tvfeed/filter"
)

type staticFetcher map[string]string

func (f staticFetcher) Fetch(ctx context.Context, req types.Request) ([]byte, error) {
	data, ok := f[req.URL]
	if !ok {
		return nil, &types.FetchError{URL: req.URL, Kind: types.FailureNetwork, Err: errors.New("offline")}
	}
	return []byte(data), nil
}

const master = `{"feeds":[
  {"category":"News","categoryFeed":"/news.json"},
  {"category":"Shows","subcategory":[
    {"id":"s1","title":"Season 1","feedURL":"/s1.json"},
    {"id":"more","title":"More","subcategory":[{"id":"s2","title":"Season 2","feedURL":"/s2.json"}]}
  ]},
  {"category":"Broken","categoryFeed":"/broken.json"}
]}`

func setupEngine(t *testing.T) http.Handler {
	t.Helper()
	fetcher := staticFetcher{
		"/master.json": master,
		"/news.json":   `{"media":[{"title":"Headline","pubDate":"2020-01-01"},{"title":"Weather"}]}`,
		"/s2.json":     `{"media":[{"title":"Episode 1"}]}`,
	}
	store := cache.NewMemoryStore()
	client := feed.New(fetcher, store, feed.Options{
		MasterFeedURL: "/master.json",
		Persist:       true,
		Limits:        filter.DefaultLimits(),
	})
	require.NoError(t, client.LoadInitialData(context.Background()))

	return NewServer(NewHandler(client, store))
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestListCategories(t *testing.T) {
	h := setupEngine(t)

	var body struct {
		Categories []string `json:"categories"`
	}
	code := get(t, h, "/categories", &body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"News", "Shows", "Broken"}, body.Categories)
}

func TestGetCategory_Media(t *testing.T) {
	h := setupEngine(t)

	var contents feed.Contents
	code := get(t, h, "/categories/0", &contents)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, contents.Media, 2)
	assert.Equal(t, "Headline", contents.Media[0].Title)
	assert.Equal(t, "January 1, 2020", contents.Media[0].PubDate)
}

func TestGetCategory_Folder(t *testing.T) {
	h := setupEngine(t)

	var contents feed.Contents
	code := get(t, h, "/categories/1", &contents)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, contents.Subcategories, 2)
	assert.Equal(t, catalog.SubcategoryType, contents.Subcategories[1].Type)
}

func TestGetSubcategory(t *testing.T) {
	h := setupEngine(t)

	var contents feed.Contents
	code := get(t, h, "/categories/1/subcategories/1.0", &contents)

	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, contents.Folder)
	assert.Equal(t, "Season 2", contents.Folder.Title)
	require.Len(t, contents.Media, 1)
	assert.Equal(t, "Episode 1", contents.Media[0].Title)
}

func TestGetCategory_Errors(t *testing.T) {
	h := setupEngine(t)

	tests := []struct {
		path string
		code int
		kind string
	}{
		{"/categories/abc", http.StatusBadRequest, ""},
		{"/categories/9", http.StatusNotFound, ""},
		{"/categories/1/subcategories/x", http.StatusBadRequest, ""},
		{"/categories/1/subcategories/5", http.StatusNotFound, ""},
		{"/categories/2", http.StatusBadGateway, "CategoryNetworkError"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body struct {
				Error string `json:"error"`
				Kind  string `json:"kind"`
			}
			code := get(t, h, tt.path, &body)

			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.kind, body.Kind)
		})
	}
}

func TestGetItemAndMedia(t *testing.T) {
	h := setupEngine(t)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/items/0", nil))

	get(t, h, "/categories/0", nil)

	var item catalog.MediaItem
	assert.Equal(t, http.StatusOK, get(t, h, "/items/1", &item))
	assert.Equal(t, "Weather", item.Title)

	var body struct {
		Media []catalog.MediaItem `json:"media"`
	}
	assert.Equal(t, http.StatusOK, get(t, h, "/media", &body))
	assert.Len(t, body.Media, 2)
}

func TestHealthCheck(t *testing.T) {
	h := setupEngine(t)

	var body struct {
		Status     string `json:"status"`
		Categories int    `json:"categories"`
		Cache      struct {
			Backend string `json:"backend"`
			Entries int    `json:"entries"`
		} `json:"cache"`
	}
	code := get(t, h, "/health", &body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 3, body.Categories)
	assert.Equal(t, cache.BackendMemory, body.Cache.Backend)
	assert.Equal(t, 1, body.Cache.Entries)
}

func TestMetrics(t *testing.T) {
	h := setupEngine(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
