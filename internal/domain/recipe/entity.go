// Package recipe holds the recipe and cookbook domain model.
package recipe

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Difficulty is the label a provider assigns to a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
	// DifficultyAll disables difficulty filtering.
	DifficultyAll Difficulty = "All"
)

// Valid reports whether d is one of the filterable values.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyAll:
		return true
	}
	return false
}

// Text is a string that also accepts JSON numbers. Providers are asked for
// strings but sometimes answer "calories": 450.
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// Nutrition facts per serving.
type Nutrition struct {
	Calories Text `json:"calories" yaml:"calories"`
	Protein  Text `json:"protein" yaml:"protein"`
	Carbs    Text `json:"carbs" yaml:"carbs"`
	Fat      Text `json:"fat" yaml:"fat"`
}

// Recipe is a generated recipe. Field names follow the schema sent to the
// providers, so vendor output decodes directly into it.
type Recipe struct {
	Name         string     `json:"recipeName" yaml:"recipeName"`
	Description  string     `json:"description" yaml:"description"`
	Ingredients  []string   `json:"ingredients" yaml:"ingredients"`
	Instructions []string   `json:"instructions" yaml:"instructions"`
	CookTime     string     `json:"cookTime" yaml:"cookTime"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
	ServingSize  string     `json:"servingSize" yaml:"servingSize"`
	Nutrition    *Nutrition `json:"nutrition,omitempty" yaml:"nutrition,omitempty"`
}

// ID returns the slug that identifies the recipe in a cookbook.
func (r Recipe) ID() string {
	return Slug(r.Name)
}

// SavedRecipe is a cookbook entry.
type SavedRecipe struct {
	Recipe     `yaml:",inline"`
	ID         string   `json:"id" yaml:"id"`
	Notes      string   `json:"notes" yaml:"notes"`
	Categories []string `json:"categories" yaml:"categories"`
	Tags       []string `json:"tags" yaml:"tags"`
}

// NewSavedRecipe derives the id from the recipe name and normalises the
// annotation lists.
func NewSavedRecipe(r Recipe, notes string, categories, tags []string) (SavedRecipe, error) {
	if strings.TrimSpace(r.Name) == "" {
		return SavedRecipe{}, ErrNameRequired
	}
	return SavedRecipe{
		Recipe:     r,
		ID:         r.ID(),
		Notes:      notes,
		Categories: compact(categories),
		Tags:       compact(tags),
	}, nil
}

// HasCategory reports whether c is among the entry's categories. "All" and
// the empty string match everything.
func (s SavedRecipe) HasCategory(c string) bool {
	return matchesFacet(s.Categories, c)
}

// HasTag reports whether t is among the entry's tags. "All" and the empty
// string match everything.
func (s SavedRecipe) HasTag(t string) bool {
	return matchesFacet(s.Tags, t)
}

// Matches performs the cookbook search: a case-insensitive substring match
// over the name, every ingredient and the notes.
func (s SavedRecipe) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Name), term) {
		return true
	}
	for _, ing := range s.Ingredients {
		if strings.Contains(strings.ToLower(ing), term) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(s.Notes), term)
}

func matchesFacet(values []string, want string) bool {
	if want == "" || want == string(DifficultyAll) {
		return true
	}
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slug lower-cases name and replaces every whitespace run with "-".
func Slug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// NormalizeTags splits a comma separated list, trimming entries and
// dropping empty ones.
func NormalizeTags(csv string) []string {
	return compact(strings.Split(csv, ","))
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var (
	hourPattern   = regexp.MustCompile(`(?i)(\d+)\s*hour`)
	minutePattern = regexp.MustCompile(`(?i)(\d+)\s*minute`)
	numberPattern = regexp.MustCompile(`(\d+)`)
)

// UnknownCookTime is returned by ParseCookTime for durations it cannot read;
// it sorts after every real duration.
const UnknownCookTime = int(^uint(0) >> 1)

// maxCookTime caps parsed durations so known times sort before unknown ones.
const maxCookTime = UnknownCookTime - 1

// ParseCookTime converts a free-text duration such as "1 hour 15 minutes"
// to minutes. Without hour/minute units the first integer is used.
// Oversized values saturate at maxCookTime.
func ParseCookTime(s string) int {
	total := 0
	if m := hourPattern.FindStringSubmatch(s); m != nil {
		if h := atoi(m[1]); h > maxCookTime/60 {
			total = maxCookTime
		} else {
			total = h * 60
		}
	}
	if m := minutePattern.FindStringSubmatch(s); m != nil {
		if n := atoi(m[1]); n > maxCookTime-total {
			total = maxCookTime
		} else {
			total += n
		}
	}
	if total == 0 {
		if m := numberPattern.FindStringSubmatch(s); m != nil {
			total = atoi(m[1])
		}
	}
	if total <= 0 {
		return UnknownCookTime
	}
	return total
}

// atoi parses a run of digits, saturating at maxCookTime.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n > maxCookTime {
		return maxCookTime
	}
	return n
}
