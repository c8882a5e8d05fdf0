package ai

import "errors"

// Request validation errors carry the translation keys clients render.
var (
	ErrNoIngredients     = errors.New("pantry.addIngredientError")
	ErrEmptyPrompt       = errors.New("recipeGenerator.promptError")
	ErrNoServings        = errors.New("pantry.servingSizeError")
	ErrUnknownPromptType = errors.New("unknown prompt type")

	ErrInvalidImageFormat = errors.New("Invalid image format")
)
