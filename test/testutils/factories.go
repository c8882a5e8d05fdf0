// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"strings"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPassword satisfies the signup rules and is used by every factory
// account.
const DefaultPassword = "secret123"

var difficulties = []recipe.Difficulty{recipe.DifficultyEasy, recipe.DifficultyMedium, recipe.DifficultyHard}

// Factory builds domain values from a seeded faker so failures reproduce.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a factory with the given seed.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// Recipe returns a complete recipe with a unique name.
func (f *Factory) Recipe() recipe.Recipe {
	return NewRecipeBuilder(f).Build()
}

// Recipes returns n recipes with distinct names.
func (f *Factory) Recipes(n int) []recipe.Recipe {
	out := make([]recipe.Recipe, n)
	for i := range out {
		out[i] = NewRecipeBuilder(f).WithName(fmt.Sprintf("%s %d", f.dishName(), i+1)).Build()
	}
	return out
}

// SavedRecipe returns a cookbook entry with a category and two tags.
func (f *Factory) SavedRecipe() recipe.SavedRecipe {
	r := f.Recipe()
	entry, err := recipe.NewSavedRecipe(r, f.faker.Sentence(6), []string{f.faker.RandomString([]string{"Dinner", "Lunch", "Dessert", "Breakfast"})}, []string{f.faker.Adjective(), f.faker.Adjective()})
	if err != nil {
		panic(err)
	}
	return entry
}

// Signup returns a valid signup command with a unique email.
func (f *Factory) Signup() inbound.SignupCommand {
	return inbound.SignupCommand{
		Name:            f.faker.Name(),
		Email:           strings.ToLower(f.faker.Username()) + "." + f.faker.DigitN(4) + "@example.com",
		Password:        DefaultPassword,
		ConfirmPassword: DefaultPassword,
	}
}

// PantryRequest returns a pantry request for two adults.
func (f *Factory) PantryRequest() ai.Request {
	return ai.Request{
		PromptType:  ai.PromptPantry,
		Ingredients: []string{f.faker.Vegetable(), f.faker.Vegetable(), f.faker.Fruit()},
		ServingSize: ai.DefaultServingSize(),
	}
}

func (f *Factory) dishName() string {
	return cases.Title(language.English).String(f.faker.Adjective()) + " " + f.faker.Vegetable() + " " + f.faker.RandomString([]string{"Soup", "Stew", "Salad", "Curry", "Bake", "Risotto"})
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	r recipe.Recipe
}

// NewRecipeBuilder starts from a fully populated recipe.
func NewRecipeBuilder(f *Factory) *RecipeBuilder {
	faker := f.faker
	return &RecipeBuilder{r: recipe.Recipe{
		Name:        f.dishName(),
		Description: faker.Sentence(10),
		Ingredients: []string{
			faker.Vegetable(),
			faker.Fruit(),
			fmt.Sprintf("%d g %s", faker.Number(50, 500), faker.Vegetable()),
		},
		Instructions: []string{faker.Sentence(8), faker.Sentence(8), faker.Sentence(8)},
		CookTime:     fmt.Sprintf("%d minutes", faker.Number(10, 90)),
		Difficulty:   difficulties[faker.Number(0, len(difficulties)-1)],
		ServingSize:  fmt.Sprintf("%d servings", faker.Number(1, 6)),
		Nutrition: &recipe.Nutrition{
			Calories: recipe.Text(fmt.Sprintf("%d kcal", faker.Number(150, 900))),
			Protein:  recipe.Text(fmt.Sprintf("%dg", faker.Number(5, 60))),
			Carbs:    recipe.Text(fmt.Sprintf("%dg", faker.Number(5, 120))),
			Fat:      recipe.Text(fmt.Sprintf("%dg", faker.Number(2, 50))),
		},
	}}
}

// WithName sets the recipe name
func (b *RecipeBuilder) WithName(name string) *RecipeBuilder {
	b.r.Name = name
	return b
}

// WithDifficulty sets the difficulty
func (b *RecipeBuilder) WithDifficulty(d recipe.Difficulty) *RecipeBuilder {
	b.r.Difficulty = d
	return b
}

// WithCookTime sets the cook time text
func (b *RecipeBuilder) WithCookTime(t string) *RecipeBuilder {
	b.r.CookTime = t
	return b
}

// WithIngredients replaces the ingredient list
func (b *RecipeBuilder) WithIngredients(items ...string) *RecipeBuilder {
	b.r.Ingredients = items
	return b
}

// WithoutNutrition drops the nutrition block
func (b *RecipeBuilder) WithoutNutrition() *RecipeBuilder {
	b.r.Nutrition = nil
	return b
}

// Build returns the recipe
func (b *RecipeBuilder) Build() recipe.Recipe {
	return b.r
}
