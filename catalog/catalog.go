// Package catalog holds the category tree and media items shared by the
// parser, the feed client and the presentation adapters.
package catalog

const (
	MaxDefaultCategories  = 20
	MaxSubcategories      = 20
	MaxResultsPerCategory = 50

	// SubcategoryType tags entries that the presentation layer renders as
	// folders rather than playable items.
	SubcategoryType = "subcategory"
)

// MasterFeed is the parsed top-level feed: the category list plus an index
// of every folder in the tree.
type MasterFeed struct {
	Categories []Category
	Folders    Folders
}

// Names returns category names in feed order.
func (m MasterFeed) Names() []string {
	names := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		names = append(names, c.Name)
	}
	return names
}

// Category is a top-level grouping. Exactly one of FeedURL and Subcategories
// is meaningful: a non-nil Subcategories slice wins.
type Category struct {
	Name          string        `json:"name"`
	FeedURL       string        `json:"feedURL,omitempty"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// HasSubcategories reports whether the category is a folder tree rather
// than a direct feed. An explicitly empty list still counts.
func (c Category) HasSubcategories() bool {
	return c.Subcategories != nil
}

// Subcategory is a nested grouping. It either points to a content feed or
// nests further subcategories.
type Subcategory struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type,omitempty"`
	Title       string `json:"title"`
	FeedURL     string `json:"feedURL,omitempty"`
	ImgURL      string `json:"imgURL,omitempty"`
	Description string `json:"description,omitempty"`

	// Subcategories is the raw nested tree as it appeared in the master feed.
	Subcategories []Subcategory `json:"subcategory,omitempty"`

	// Children and Items are filled in when the subcategory is opened.
	Children []Subcategory `json:"children,omitempty"`
	Items    []MediaItem   `json:"items,omitempty"`
}

func (s Subcategory) IsNested() bool {
	return s.Subcategories != nil
}

// Clone returns a deep copy. Nil and empty slices are preserved as-is so
// IsNested answers the same for the copy.
func (s Subcategory) Clone() Subcategory {
	out := s
	out.Subcategories = cloneSubcategories(s.Subcategories)
	out.Children = cloneSubcategories(s.Children)
	if s.Items != nil {
		out.Items = make([]MediaItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}

func cloneSubcategories(in []Subcategory) []Subcategory {
	if in == nil {
		return nil
	}
	out := make([]Subcategory, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// MediaItem is a single playable asset.
type MediaItem struct {
	Title       string `json:"title"`
	PubDate     string `json:"pubDate,omitempty"`
	ThumbURL    string `json:"thumbURL,omitempty"`
	ImgURL      string `json:"imgURL,omitempty"`
	VideoURL    string `json:"videoURL,omitempty"`
	Description string `json:"description,omitempty"`
}

// Folders maps subcategory IDs to their definitions.
type Folders map[string]Subcategory

// IndexFolders walks every category tree and records each subcategory that
// carries an ID. The first definition of an ID wins.
func IndexFolders(categories []Category) Folders {
	folders := make(Folders)
	var walk func([]Subcategory)
	walk = func(subs []Subcategory) {
		for _, s := range subs {
			if s.ID != "" {
				if _, seen := folders[s.ID]; !seen {
					folders[s.ID] = s
				}
			}
			walk(s.Subcategories)
		}
	}
	for _, c := range categories {
		walk(c.Subcategories)
	}
	return folders
}

// Lookup returns a copy of the folder with the given ID.
func (f Folders) Lookup(id string) (Subcategory, bool) {
	if id == "" {
		return Subcategory{}, false
	}
	s, ok := f[id]
	if !ok {
		return Subcategory{}, false
	}
	return s.Clone(), true
}
