package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/scipunch/tvfeed/catalog"
	"github.com/scipunch/tvfeed/filter"
)

type Format = string

var (
	FormatUnknown     = Format("unknown")
	FormatJSON        = Format("json")
	FormatSyndication = Format("syndication") // RSS or Atom
)

var (
	ErrMissingFeeds = errors.New("master feed has no feeds array")
	ErrMissingMedia = errors.New("content feed has no media array")
	ErrUnknown      = errors.New("payload is neither JSON nor a syndication feed")
)

// Detect reports how a payload should be decoded.
func Detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if json.Valid(trimmed) {
		return FormatJSON
	}
	switch gofeed.DetectFeedType(bytes.NewReader(trimmed)) {
	case gofeed.FeedTypeRSS, gofeed.FeedTypeAtom:
		return FormatSyndication
	}
	return FormatUnknown
}

type masterDoc struct {
	Feeds      *[]categoryDoc `json:"feeds"`
	LegacyFeed *[]categoryDoc `json:"Feeds"`
}

type categoryDoc struct {
	Category     string                `json:"category"`
	Subcategory  []catalog.Subcategory `json:"subcategory"`
	CategoryFeed string                `json:"categoryFeed"`
}

// ParseMaster decodes the master feed, applies the category limits and
// indexes the folder tree.
func ParseMaster(data []byte, limits filter.Limits) (catalog.MasterFeed, error) {
	var doc masterDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return catalog.MasterFeed{}, fmt.Errorf("failed to decode master feed: %w", err)
	}

	entries := doc.Feeds
	if entries == nil {
		entries = doc.LegacyFeed
	}
	if entries == nil {
		return catalog.MasterFeed{}, ErrMissingFeeds
	}

	raw := make([]catalog.Category, 0, len(*entries))
	for _, e := range *entries {
		raw = append(raw, catalog.Category{
			Name:          e.Category,
			FeedURL:       e.CategoryFeed,
			Subcategories: e.Subcategory,
		})
	}

	categories := limits.Categories(raw)
	return catalog.MasterFeed{
		Categories: categories,
		Folders:    catalog.IndexFolders(categories),
	}, nil
}

type contentDoc struct {
	Media   *[]catalog.MediaItem `json:"media"`
	Version string               `json:"version"`
}

// ParseMedia decodes a content feed into media items with formatted
// publication dates. No cap is applied here.
func ParseMedia(data []byte) ([]catalog.MediaItem, error) {
	switch Detect(data) {
	case FormatJSON:
		var doc contentDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode content feed: %w", err)
		}
		if doc.Media == nil {
			if isJSONFeed(doc.Version) {
				return parseSyndication(data)
			}
			return nil, ErrMissingMedia
		}
		items := make([]catalog.MediaItem, 0, len(*doc.Media))
		for _, m := range *doc.Media {
			m.PubDate = FormatDate(m.PubDate)
			items = append(items, m)
		}
		return items, nil
	case FormatSyndication:
		return parseSyndication(data)
	default:
		return nil, ErrUnknown
	}
}

func isJSONFeed(version string) bool {
	return strings.HasPrefix(version, "https://jsonfeed.org/version/")
}
