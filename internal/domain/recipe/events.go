package recipe

import "time"

// RecipeSavedEvent is raised when a recipe is added to or overwritten in a cookbook
type RecipeSavedEvent struct {
	Owner       string
	RecipeID    string
	Overwritten bool
	SavedAt     time.Time
}

func (e RecipeSavedEvent) EventName() string {
	return "cookbook.recipe.saved"
}

func (e RecipeSavedEvent) OccurredAt() time.Time {
	return e.SavedAt
}

// RecipeRemovedEvent is raised when a recipe leaves a cookbook
type RecipeRemovedEvent struct {
	Owner     string
	RecipeID  string
	RemovedAt time.Time
}

func (e RecipeRemovedEvent) EventName() string {
	return "cookbook.recipe.removed"
}

func (e RecipeRemovedEvent) OccurredAt() time.Time {
	return e.RemovedAt
}

// RecipeCookedEvent is raised when a user marks a dish as cooked
type RecipeCookedEvent struct {
	Owner      string
	RecipeID   string
	TotalCount int
	CookedAt   time.Time
}

func (e RecipeCookedEvent) EventName() string {
	return "cookbook.recipe.cooked"
}

func (e RecipeCookedEvent) OccurredAt() time.Time {
	return e.CookedAt
}
