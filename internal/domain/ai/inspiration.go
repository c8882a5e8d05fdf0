package ai

import "math/rand"

// SurprisePrompts feed the "surprise me" action.
var SurprisePrompts = []string{
	"A fusion of Italian and Japanese cuisine",
	"A healthy dessert using avocado",
	"A quick 15-minute lunch with shrimp",
	"A vegan version of a classic comfort food",
	"Something creative with sweet potatoes",
	"A colorful and spicy vegetarian curry",
	"A gourmet sandwich with unique ingredients",
	"A low-carb breakfast that's not eggs",
}

// Inspiration is a one-tap prompt category.
type Inspiration struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// Inspirations are the fixed categories offered next to the prompt box.
// Label is a translation key.
var Inspirations = []Inspiration{
	{Key: "quick", Label: "recipeGenerator.quickEasy", Prompt: "a quick and easy recipe that takes less than 30 minutes to prepare"},
	{Key: "healthy", Label: "recipeGenerator.healthy", Prompt: "a healthy and nutritious meal, low in calories but high in flavor"},
	{Key: "comfort", Label: "recipeGenerator.comfort", Prompt: "a classic comfort food recipe that's warm and satisfying"},
	{Key: "world", Label: "recipeGenerator.world", Prompt: "an interesting and authentic recipe from a random country around the world"},
}

// SurprisePrompt picks one of SurprisePrompts using rnd.
func SurprisePrompt(rnd *rand.Rand) string {
	return SurprisePrompts[rnd.Intn(len(SurprisePrompts))]
}
