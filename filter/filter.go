package filter

import (
	"log/slog"

	"github.com/samber/lo"

	"github.com/scipunch/tvfeed/catalog"
)

// Limits caps how much of a feed is retained. Entries past a cap are
// dropped silently, in input order.
type Limits struct {
	MaxCategories    int
	MaxSubcategories int
	MaxMedia         int
}

// DefaultLimits returns the caps the presentation layer is designed around
func DefaultLimits() Limits {
	return Limits{
		MaxCategories:    catalog.MaxDefaultCategories,
		MaxSubcategories: catalog.MaxSubcategories,
		MaxMedia:         catalog.MaxResultsPerCategory,
	}
}

// Categories keeps the first MaxCategories raw entries and collapses
// duplicate names onto their first occurrence. Duplicates inside the window
// still consume a slot. Each category's subcategory list is capped and
// tagged as well.
func (l Limits) Categories(raw []catalog.Category) []catalog.Category {
	window := head(raw, l.MaxCategories)
	if dropped := len(raw) - len(window); dropped > 0 {
		slog.Debug("categories truncated", "kept", len(window), "dropped", dropped)
	}

	unique := lo.UniqBy(window, func(c catalog.Category) string {
		return c.Name
	})

	return lo.Map(unique, func(c catalog.Category, _ int) catalog.Category {
		if c.HasSubcategories() {
			c.Subcategories = l.Subcategories(c.Subcategories)
			c.FeedURL = ""
		}
		return c
	})
}

// Subcategories keeps the first MaxSubcategories entries and tags each as a
// subcategory. The result never aliases the input.
func (l Limits) Subcategories(raw []catalog.Subcategory) []catalog.Subcategory {
	kept := head(raw, l.MaxSubcategories)
	out := make([]catalog.Subcategory, 0, len(kept))
	for _, s := range kept {
		s = s.Clone()
		s.Type = catalog.SubcategoryType
		out = append(out, s)
	}
	return out
}

// Media keeps the first MaxMedia items.
func (l Limits) Media(items []catalog.MediaItem) []catalog.MediaItem {
	kept := head(items, l.MaxMedia)
	if dropped := len(items) - len(kept); dropped > 0 {
		slog.Debug("media truncated", "kept", len(kept), "dropped", dropped)
	}
	out := make([]catalog.MediaItem, len(kept))
	copy(out, kept)
	return out
}

// head returns at most n leading elements; n <= 0 means no limit.
func head[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
