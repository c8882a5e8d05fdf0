package outbound

import (
	"context"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
)

// RecipeProvider is one LLM vendor able to turn a prompt into recipes.
type RecipeProvider interface {
	Name() ai.Provider
	// Generate returns one recipe for single prompts and several for
	// pantry prompts. Errors are *errors.AppError with the vendor message.
	Generate(ctx context.Context, apiKey string, prompt ai.Prompt) ([]recipe.Recipe, error)
}

// ImageGenerator renders a food photograph and returns PNG bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, apiKey, prompt string) ([]byte, error)
}

// ImageAnalyzer describes the contents of a photo.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, apiKey string, img ai.InlineImage, prompt string) (string, error)
}
