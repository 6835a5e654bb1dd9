// Package feed is the data-access layer behind the presentation adapters.
// It loads the master feed, walks the category and subcategory tree, and
// keeps the current selection. Raw payloads are written through to a cache
// and replayed from it when a later fetch of the same key fails.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/scipunch/tvfeed/catalog"
	"github.com/scipunch/tvfeed/fetcher/types"
	"github.com/scipunch/tvfeed/filter"
	"github.com/scipunch/tvfeed/parser"
)

// MasterFeedKey is the cache key of the master feed.
const MasterFeedKey = "masterFeed"

type Options struct {
	MasterFeedURL string
	// Persist enables the write-through cache and the read-on-failure
	// fallback. It has no effect without a store.
	Persist bool
	Limits  filter.Limits
}

// Contents is what a category or an opened subcategory holds: either a
// folder list or media items.
type Contents struct {
	Folder        *catalog.Subcategory  `json:"folder,omitempty"`
	Subcategories []catalog.Subcategory `json:"subcategories,omitempty"`
	Media         []catalog.MediaItem   `json:"media,omitempty"`
}

// IsFolder reports whether the contents are a subcategory list.
func (c Contents) IsFolder() bool {
	return c.Subcategories != nil
}

type Client struct {
	mu sync.Mutex

	fetcher     types.Fetcher
	store       Storage
	persistData bool
	masterURL   string
	limits      filter.Limits

	events observer

	master        catalog.MasterFeed
	categoryIndex int
	subcategory   *catalog.Subcategory
	parentTitle   string

	allMedia    []catalog.MediaItem
	currentData []catalog.MediaItem
	currentItem *catalog.MediaItem
}

// New creates a client. store may be nil, which disables persistence.
func New(f types.Fetcher, store Storage, opts Options) *Client {
	return &Client{
		fetcher:     f,
		store:       store,
		persistData: opts.Persist && store != nil,
		masterURL:   opts.MasterFeedURL,
		limits:      opts.Limits,
	}
}

// LoadInitialData fetches the master feed and replaces all state with it.
// The selected category resets to 0.
func (c *Client) LoadInitialData(ctx context.Context) error {
	c.mu.Lock()
	err := c.loadInitialData(ctx)
	c.mu.Unlock()
	return c.report(err)
}

func (c *Client) loadInitialData(ctx context.Context) error {
	req := types.Request{URL: c.masterURL, ExpectJSON: true}
	master, err := fetchWithFallback(ctx, c, req, MasterFeedKey, func(data []byte) (catalog.MasterFeed, error) {
		return parser.ParseMaster(data, c.limits)
	})
	if err != nil {
		return newError(pathInitial, c.masterURL, err)
	}

	c.master = master
	c.categoryIndex = 0
	c.subcategory = nil
	c.parentTitle = ""
	c.resetContent(nil)

	slog.Info("master feed loaded", "categories", len(master.Categories), "folders", len(master.Folders))
	return nil
}

// CategoryItems returns category names in feed order.
func (c *Client) CategoryItems() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.master.Names()
}

// Categories returns a copy of the loaded category list.
func (c *Client) Categories() []catalog.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Map(c.master.Categories, func(cat catalog.Category, _ int) catalog.Category {
		if cat.HasSubcategories() {
			cat.Subcategories = lo.Map(cat.Subcategories, func(s catalog.Subcategory, _ int) catalog.Subcategory {
				return s.Clone()
			})
		}
		return cat
	})
}

// SelectCategory sets the current category. Selecting a different category
// forgets the most recently expanded folder, and so does listing a
// category's top-level subcategories.
func (c *Client) SelectCategory(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index != c.categoryIndex {
		c.parentTitle = ""
	}
	c.categoryIndex = index
}

// CategoryContents returns the subcategory list of the selected category
// without I/O, or fetches its feed when it has none.
func (c *Client) CategoryContents(ctx context.Context) (Contents, error) {
	c.mu.Lock()
	contents, err := c.categoryContents(ctx)
	c.mu.Unlock()
	return contents, c.report(err)
}

func (c *Client) categoryContents(ctx context.Context) (Contents, error) {
	cat, err := c.category()
	if err != nil {
		return Contents{}, err
	}
	c.resetContent(nil)

	if cat.HasSubcategories() {
		// back at the top level, no folder is open
		c.parentTitle = ""
		return Contents{Subcategories: c.limits.Subcategories(cat.Subcategories)}, nil
	}

	media, err := c.fetchCategoryContent(ctx)
	if err != nil {
		return Contents{}, err
	}
	return Contents{Media: media}, nil
}

// FetchCategoryContent fetches the selected category's feed, cached under
// "category_<name>", and returns at most MaxMedia items.
func (c *Client) FetchCategoryContent(ctx context.Context) ([]catalog.MediaItem, error) {
	c.mu.Lock()
	media, err := c.fetchCategoryContent(ctx)
	c.mu.Unlock()
	return media, c.report(err)
}

func (c *Client) fetchCategoryContent(ctx context.Context) ([]catalog.MediaItem, error) {
	cat, err := c.category()
	if err != nil {
		return nil, err
	}
	if cat.FeedURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoFeedURL, cat.Name)
	}

	all, err := c.fetchMedia(ctx, cat.FeedURL, CategoryKey(cat.Name))
	if err != nil {
		return nil, newError(pathCategory, cat.FeedURL, err)
	}
	c.resetContent(all)
	return c.copyCurrent(), nil
}

// SelectSubcategory sets the subcategory SubcategoryContents opens.
func (c *Client) SelectSubcategory(sub catalog.Subcategory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clone := sub.Clone()
	c.subcategory = &clone
}

// SubcategoryContents opens the selected subcategory and returns a copy of
// it. A nested folder gets Children resolved through the folder index and
// becomes the parent for cache keys of the leaves below it. A leaf has its
// feed fetched into Items.
func (c *Client) SubcategoryContents(ctx context.Context) (*catalog.Subcategory, error) {
	c.mu.Lock()
	sub, err := c.subcategoryContents(ctx)
	c.mu.Unlock()
	return sub, c.report(err)
}

func (c *Client) subcategoryContents(ctx context.Context) (*catalog.Subcategory, error) {
	if c.subcategory == nil {
		return nil, ErrNoSubcategory
	}
	out := c.subcategory.Clone()

	if out.IsNested() {
		c.parentTitle = out.Title
		out.Children = c.folderContents(*c.subcategory)
		return &out, nil
	}
	if out.FeedURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoFeedURL, out.Title)
	}

	var category string
	if cat, err := c.category(); err == nil {
		category = cat.Name
	}
	all, err := c.fetchMedia(ctx, out.FeedURL, SubcategoryKey(category, c.parentTitle, out.Title))
	if err != nil {
		return nil, newError(pathSubcategory, out.FeedURL, err)
	}
	c.resetContent(all)
	out.Items = c.copyCurrent()
	return &out, nil
}

// folderContents resolves a nested folder's entries. Nested entries are
// looked up by id in the folder index and fall back to their inline
// definition. Leaves need a feed URL. Anything else is skipped.
func (c *Client) folderContents(folder catalog.Subcategory) []catalog.Subcategory {
	var entries []catalog.Subcategory
	for _, s := range folder.Subcategories {
		switch {
		case s.IsNested():
			if resolved, ok := c.master.Folders.Lookup(s.ID); ok {
				entries = append(entries, resolved)
			} else {
				entries = append(entries, s)
			}
		case s.FeedURL != "":
			entries = append(entries, s)
		default:
			slog.Debug("skipping subcategory without feed", "title", s.Title)
		}
	}
	return c.limits.Subcategories(entries)
}

// SelectItem sets the current item by index into the last fetched list.
// An out of range index clears it.
func (c *Client) SelectItem(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentItem = nil
	if index >= 0 && index < len(c.currentData) {
		item := c.currentData[index]
		c.currentItem = &item
	}
}

func (c *Client) CurrentItem() (catalog.MediaItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentItem == nil {
		return catalog.MediaItem{}, false
	}
	return *c.currentItem, true
}

// AllMedia returns every item of the last content fetch, before the cap.
func (c *Client) AllMedia() []catalog.MediaItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]catalog.MediaItem, len(c.allMedia))
	copy(out, c.allMedia)
	return out
}

// Navigate selects a category and opens subcategories along path, each
// element indexing into the previous level's folder list.
func (c *Client) Navigate(ctx context.Context, category int, path []int) (Contents, error) {
	c.SelectCategory(category)
	contents, err := c.CategoryContents(ctx)
	if err != nil {
		return Contents{}, err
	}

	for depth, i := range path {
		if i < 0 || i >= len(contents.Subcategories) {
			return Contents{}, fmt.Errorf("%w: index %d at depth %d", ErrNoSubcategory, i, depth)
		}
		c.SelectSubcategory(contents.Subcategories[i])
		sub, err := c.SubcategoryContents(ctx)
		if err != nil {
			return Contents{}, err
		}
		contents = Contents{Folder: sub, Subcategories: sub.Children, Media: sub.Items}
	}
	return contents, nil
}

func (c *Client) category() (catalog.Category, error) {
	if c.categoryIndex < 0 || c.categoryIndex >= len(c.master.Categories) {
		return catalog.Category{}, fmt.Errorf("%w: %d", ErrNoCategory, c.categoryIndex)
	}
	return c.master.Categories[c.categoryIndex], nil
}

func (c *Client) fetchMedia(ctx context.Context, url, key string) ([]catalog.MediaItem, error) {
	req := types.Request{URL: url}
	return fetchWithFallback(ctx, c, req, key, parser.ParseMedia)
}

func (c *Client) resetContent(all []catalog.MediaItem) {
	c.allMedia = all
	c.currentData = c.limits.Media(all)
	c.currentItem = nil
}

func (c *Client) copyCurrent() []catalog.MediaItem {
	out := make([]catalog.MediaItem, len(c.currentData))
	copy(out, c.currentData)
	return out
}

// ParsePath splits a dot separated subcategory path such as "1.0.2".
// An empty string is the category itself.
func ParsePath(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ".")
	path := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(p)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid subcategory path %q", s)
		}
		path = append(path, i)
	}
	return path, nil
}

// CategoryKey is the cache key of a category feed.
func CategoryKey(name string) string {
	return "category_" + name
}

// SubcategoryKey is the cache key of a subcategory feed. The parent segment
// is left out when no nested folder has been opened.
func SubcategoryKey(category, parent, title string) string {
	return strings.Join(lo.Compact([]string{category, parent, title}), "_")
}
