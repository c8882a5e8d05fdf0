package recipe

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Query filters a cookbook listing.
type Query struct {
	Search   string
	Category string
	Tag      string
}

// Facets lists the distinct values a cookbook can be filtered by.
type Facets struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

// Filter applies q to entries and returns the matches ordered by name.
func Filter(entries []SavedRecipe, q Query) []SavedRecipe {
	out := make([]SavedRecipe, 0, len(entries))
	for _, e := range entries {
		if e.Matches(q.Search) && e.HasCategory(q.Category) && e.HasTag(q.Tag) {
			out = append(out, e)
		}
	}
	SortByName(out)
	return out
}

// SortByName orders entries by recipe name using English collation, so
// "apple pie" and "Banana bread" sort the way a reader expects.
func SortByName(entries []SavedRecipe) {
	c := collate.New(language.English, collate.Loose)
	sort.SliceStable(entries, func(i, j int) bool {
		return c.CompareString(entries[i].Name, entries[j].Name) < 0
	})
}

// CollectFacets returns the sorted distinct non-empty categories and tags.
func CollectFacets(entries []SavedRecipe) Facets {
	cats := map[string]struct{}{}
	tags := map[string]struct{}{}
	for _, e := range entries {
		for _, c := range e.Categories {
			if c != "" {
				cats[c] = struct{}{}
			}
		}
		for _, t := range e.Tags {
			if t != "" {
				tags[t] = struct{}{}
			}
		}
	}
	return Facets{Categories: sortedKeys(cats), Tags: sortedKeys(tags)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SortOrder controls cook-time ordering of generated recipes.
type SortOrder string

const (
	SortNone SortOrder = "none"
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterByDifficulty keeps recipes with difficulty d. "All" and the empty
// value keep everything.
func FilterByDifficulty(recipes []Recipe, d Difficulty) []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if d == "" || d == DifficultyAll || r.Difficulty == d {
			out = append(out, r)
		}
	}
	return out
}

// SortForDisplay puts recipes already in the cookbook first, then orders by
// cook time when order is asc or desc. Ties keep their original position.
func SortForDisplay(recipes []Recipe, saved map[string]bool, order SortOrder) {
	sort.SliceStable(recipes, func(i, j int) bool {
		a, b := recipes[i], recipes[j]
		aSaved, bSaved := saved[a.ID()], saved[b.ID()]
		if aSaved != bSaved {
			return aSaved
		}
		if order != SortAsc && order != SortDesc {
			return false
		}
		ta, tb := ParseCookTime(a.CookTime), ParseCookTime(b.CookTime)
		if order == SortAsc {
			return ta < tb
		}
		return ta > tb
	})
}
