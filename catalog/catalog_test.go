package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubcategoryClone_IsDeep(t *testing.T) {
	orig := Subcategory{
		Title: "Parent",
		Subcategories: []Subcategory{
			{ID: "a", Title: "Child"},
		},
		Items: []MediaItem{{Title: "X"}},
	}

	clone := orig.Clone()
	clone.Subcategories[0].Title = "changed"
	clone.Items[0].Title = "changed"

	assert.Equal(t, "Child", orig.Subcategories[0].Title)
	assert.Equal(t, "X", orig.Items[0].Title)
}

func TestSubcategoryClone_PreservesEmptyNested(t *testing.T) {
	orig := Subcategory{Title: "Empty folder", Subcategories: []Subcategory{}}

	clone := orig.Clone()

	assert.True(t, clone.IsNested())
	assert.False(t, Subcategory{Title: "Leaf"}.Clone().IsNested())
}

func TestIndexFolders(t *testing.T) {
	categories := []Category{
		{Name: "Direct", FeedURL: "/a.json"},
		{
			Name: "Tree",
			Subcategories: []Subcategory{
				{ID: "1", Title: "One", Subcategories: []Subcategory{
					{ID: "2", Title: "Two", FeedURL: "/two.json"},
				}},
				{Title: "No id", FeedURL: "/x.json"},
			},
		},
		{
			Name: "Other tree",
			Subcategories: []Subcategory{
				{ID: "2", Title: "Duplicate", FeedURL: "/dup.json"},
			},
		},
	}

	folders := IndexFolders(categories)

	require.Len(t, folders, 2)
	two, ok := folders.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, "Two", two.Title, "first definition wins")

	_, ok = folders.Lookup("")
	assert.False(t, ok)
	_, ok = folders.Lookup("missing")
	assert.False(t, ok)
}

func TestMasterFeedNames(t *testing.T) {
	m := MasterFeed{Categories: []Category{{Name: "A"}, {Name: "B"}}}
	assert.Equal(t, []string{"A", "B"}, m.Names())
	assert.Empty(t, MasterFeed{}.Names())
}
