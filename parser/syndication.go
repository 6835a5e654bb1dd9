package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/scipunch/tvfeed/catalog"
)

// parseSyndication maps RSS, Atom and JSON Feed items onto media items.
// Video comes from enclosures or media:content, thumbnails from
// media:thumbnail.
func parseSyndication(data []byte) ([]catalog.MediaItem, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse syndication feed: %w", err)
	}

	items := make([]catalog.MediaItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		m := catalog.MediaItem{
			Title:       item.Title,
			Description: item.Description,
			VideoURL:    videoURL(item),
			ThumbURL:    mediaAttr(item.Extensions, "thumbnail", "url"),
		}

		switch {
		case item.PublishedParsed != nil:
			m.PubDate = item.PublishedParsed.Format(DateLayout)
		case item.UpdatedParsed != nil:
			m.PubDate = item.UpdatedParsed.Format(DateLayout)
		default:
			m.PubDate = FormatDate(item.Published)
		}

		if item.Image != nil {
			m.ImgURL = item.Image.URL
		}
		if m.ImgURL == "" {
			m.ImgURL = m.ThumbURL
		}
		if m.ThumbURL == "" {
			m.ThumbURL = m.ImgURL
		}

		items = append(items, m)
	}
	return items, nil
}

func videoURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "video/") {
			return enc.URL
		}
	}
	for _, c := range mediaExtensions(item.Extensions, "content") {
		if c.Attrs["medium"] == "video" || strings.HasPrefix(c.Attrs["type"], "video/") {
			return c.Attrs["url"]
		}
	}
	if len(item.Enclosures) > 0 {
		return item.Enclosures[0].URL
	}
	return ""
}

func mediaAttr(exts ext.Extensions, name, attr string) string {
	for _, e := range mediaExtensions(exts, name) {
		if v := e.Attrs[attr]; v != "" {
			return v
		}
	}
	return ""
}

// mediaExtensions returns media:<name> elements, whether they sit directly on
// the item or inside a media:group.
func mediaExtensions(exts ext.Extensions, name string) []ext.Extension {
	media, ok := exts["media"]
	if !ok {
		return nil
	}
	found := append([]ext.Extension{}, media[name]...)
	for _, group := range media["group"] {
		found = append(found, group.Children[name]...)
	}
	return found
}
