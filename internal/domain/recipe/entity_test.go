package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RecipeTestSuite struct {
	suite.Suite
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}

func (s *RecipeTestSuite) TestSlug() {
	cases := map[string]string{
		"Spaghetti Carbonara":       "spaghetti-carbonara",
		"  Chicken   Tikka\tMasala": "-chicken-tikka-masala",
		"Pad Thai":                  "pad-thai",
		"ÉCLAIR au Chocolat":        "éclair-au-chocolat",
	}
	for in, want := range cases {
		s.Equal(want, Slug(in), in)
	}
}

func (s *RecipeTestSuite) TestParseCookTime() {
	s.Run("HoursAndMinutes", func() {
		s.Equal(75, ParseCookTime("1 hour 15 minutes"))
		s.Equal(120, ParseCookTime("2 Hours"))
		s.Equal(45, ParseCookTime("45 minutes"))
	})
	s.Run("FallbackToFirstNumber", func() {
		s.Equal(30, ParseCookTime("30-40 mins"))
	})
	s.Run("Unknown", func() {
		s.Equal(UnknownCookTime, ParseCookTime("a while"))
		s.Equal(UnknownCookTime, ParseCookTime("0 minutes"))
	})
	s.Run("HugeValuesSaturate", func() {
		huge := "99999999999999999999999999"
		s.Equal(maxCookTime, ParseCookTime(huge+" minutes"))
		s.Equal(maxCookTime, ParseCookTime(huge))
		s.Equal(maxCookTime, ParseCookTime("999999999999999999 hours 10 minutes"))
		s.Less(ParseCookTime(huge+" hours"), UnknownCookTime)
		s.Less(ParseCookTime("9 hours"), ParseCookTime(huge+" minutes"))
	})
}

func (s *RecipeTestSuite) TestNewSavedRecipe() {
	saved, err := NewSavedRecipe(Recipe{Name: "Pad Thai"}, "extra lime", []string{"Dinner", " "}, NormalizeTags("thai, quick ,,"))
	s.Require().NoError(err)
	s.Equal("pad-thai", saved.ID)
	s.Equal([]string{"Dinner"}, saved.Categories)
	s.Equal([]string{"thai", "quick"}, saved.Tags)

	_, err = NewSavedRecipe(Recipe{Name: "  "}, "", nil, nil)
	s.ErrorIs(err, ErrNameRequired)
}

func (s *RecipeTestSuite) TestMatches() {
	saved := SavedRecipe{
		Recipe: Recipe{Name: "Garlic Butter Shrimp", Ingredients: []string{"1 lb shrimp", "4 cloves Garlic"}},
		Notes:  "Kids loved it",
	}
	s.True(saved.Matches("BUTTER"))
	s.True(saved.Matches("cloves"))
	s.True(saved.Matches("kids"))
	s.True(saved.Matches(""))
	s.False(saved.Matches("tofu"))
}

func TestSavedRecipe_JSONShape(t *testing.T) {
	saved := SavedRecipe{
		Recipe: Recipe{
			Name:        "Pad Thai",
			Ingredients: []string{"noodles"},
			Nutrition:   &Nutrition{Calories: "500 kcal"},
		},
		ID:   "pad-thai",
		Tags: []string{"thai"},
	}

	data, err := json.Marshal(saved)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Pad Thai", raw["recipeName"])
	assert.Equal(t, "pad-thai", raw["id"])
	assert.Equal(t, "500 kcal", raw["nutrition"].(map[string]interface{})["calories"])
}

func TestNutrition_AcceptsNumbers(t *testing.T) {
	var n Nutrition
	require.NoError(t, json.Unmarshal([]byte(`{"calories":450,"protein":"30g","carbs":null,"fat":12.5}`), &n))
	assert.Equal(t, Text("450"), n.Calories)
	assert.Equal(t, Text("30g"), n.Protein)
	assert.Equal(t, Text(""), n.Carbs)
	assert.Equal(t, Text("12.5"), n.Fat)
}
