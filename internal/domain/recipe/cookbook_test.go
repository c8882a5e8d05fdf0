package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCookbook() []SavedRecipe {
	return []SavedRecipe{
		{Recipe: Recipe{Name: "banana Bread", Ingredients: []string{"3 bananas"}}, ID: "banana-bread", Categories: []string{"Dessert"}, Tags: []string{"baking"}},
		{Recipe: Recipe{Name: "Apple Pie", Ingredients: []string{"6 apples"}}, ID: "apple-pie", Categories: []string{"Dessert"}, Tags: []string{"baking", "fall"}},
		{Recipe: Recipe{Name: "Chili", Ingredients: []string{"beans"}}, ID: "chili", Categories: []string{"Dinner", ""}, Notes: "freeze leftovers"},
	}
}

func TestFilter(t *testing.T) {
	book := sampleCookbook()

	t.Run("AllSortedByName", func(t *testing.T) {
		got := Filter(book, Query{Category: "All", Tag: "All"})
		require.Len(t, got, 3)
		assert.Equal(t, []string{"Apple Pie", "banana Bread", "Chili"}, names(got))
	})

	t.Run("CategoryAndTag", func(t *testing.T) {
		got := Filter(book, Query{Category: "Dessert", Tag: "fall"})
		assert.Equal(t, []string{"Apple Pie"}, names(got))
	})

	t.Run("SearchNotes", func(t *testing.T) {
		got := Filter(book, Query{Search: "LEFTOVER"})
		assert.Equal(t, []string{"Chili"}, names(got))
	})

	t.Run("NoMatch", func(t *testing.T) {
		assert.Empty(t, Filter(book, Query{Tag: "vegan"}))
	})
}

func TestCollectFacets(t *testing.T) {
	f := CollectFacets(sampleCookbook())
	assert.Equal(t, []string{"Dessert", "Dinner"}, f.Categories)
	assert.Equal(t, []string{"baking", "fall"}, f.Tags)
}

func TestFilterByDifficulty(t *testing.T) {
	recipes := []Recipe{{Name: "a", Difficulty: DifficultyEasy}, {Name: "b", Difficulty: DifficultyHard}}
	assert.Len(t, FilterByDifficulty(recipes, DifficultyAll), 2)
	assert.Len(t, FilterByDifficulty(recipes, ""), 2)
	assert.Equal(t, "b", FilterByDifficulty(recipes, DifficultyHard)[0].Name)
}

func TestSortForDisplay(t *testing.T) {
	newList := func() []Recipe {
		return []Recipe{
			{Name: "Slow Stew", CookTime: "2 hours"},
			{Name: "Quick Salad", CookTime: "10 minutes"},
			{Name: "Mystery", CookTime: "varies"},
			{Name: "Saved Soup", CookTime: "1 hour"},
		}
	}
	saved := map[string]bool{"saved-soup": true}

	list := newList()
	SortForDisplay(list, saved, SortNone)
	assert.Equal(t, []string{"Saved Soup", "Slow Stew", "Quick Salad", "Mystery"}, recipeNames(list))

	list = newList()
	SortForDisplay(list, saved, SortAsc)
	assert.Equal(t, []string{"Saved Soup", "Quick Salad", "Slow Stew", "Mystery"}, recipeNames(list))

	list = newList()
	SortForDisplay(list, saved, SortDesc)
	assert.Equal(t, []string{"Saved Soup", "Mystery", "Slow Stew", "Quick Salad"}, recipeNames(list))
}

func names(entries []SavedRecipe) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func recipeNames(list []Recipe) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Name
	}
	return out
}
