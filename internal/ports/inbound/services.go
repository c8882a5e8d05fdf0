// Package inbound defines the use cases the application exposes to HTTP
// handlers and the CLI.
package inbound

import (
	"context"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
)

// AuthService manages accounts and sessions.
type AuthService interface {
	Signup(ctx context.Context, cmd SignupCommand) (*Session, error)
	Login(ctx context.Context, cmd LoginCommand) (*Session, error)
	SocialLogin(ctx context.Context, provider user.SocialProvider) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, accessToken string) error
	// Authenticate resolves an access token to its user.
	Authenticate(ctx context.Context, accessToken string) (*user.User, error)
	CurrentUser(ctx context.Context, email string) (*user.User, error)
	UpdateUser(ctx context.Context, email string, cmd UpdateUserCommand) (*Session, error)
}

// ProfileService manages restrictions, settings and the profile summary.
type ProfileService interface {
	Profile(ctx context.Context, email string) (*ProfileDTO, error)
	Restrictions(ctx context.Context, email string) (user.Restrictions, error)
	AddRestriction(ctx context.Context, email, item string) (user.Restrictions, error)
	RemoveRestriction(ctx context.Context, email string, index int, expected *string) (user.Restrictions, error)
	// Settings returns settings with masked API keys.
	Settings(ctx context.Context, email string) (ai.Settings, error)
	UpdateSettings(ctx context.Context, email string, cmd UpdateSettingsCommand) (ai.Settings, error)
}

// CookbookService manages saved recipes.
type CookbookService interface {
	Save(ctx context.Context, email string, cmd SaveRecipeCommand) (*recipe.SavedRecipe, error)
	Unsave(ctx context.Context, email, nameOrID string) error
	Get(ctx context.Context, email, id string) (*recipe.SavedRecipe, error)
	List(ctx context.Context, email string, q recipe.Query) ([]recipe.SavedRecipe, error)
	Facets(ctx context.Context, email string) (recipe.Facets, error)
	SavedIDs(ctx context.Context, email string) (map[string]bool, error)
	MarkCooked(ctx context.Context, email, nameOrID string) (int, error)
	Export(ctx context.Context, email string) ([]recipe.SavedRecipe, error)
	Import(ctx context.Context, email string, entries []recipe.SavedRecipe, replace bool) (int, error)
}

// GenerationService talks to the AI providers.
type GenerationService interface {
	GenerateRecipes(ctx context.Context, email string, cmd GenerateCommand) (*GenerationResult, error)
	// GenerateImage returns a URL for the dish photo, or "" when no image
	// could be produced. It never fails the caller.
	GenerateImage(ctx context.Context, email, recipeName, description string) string
	AnalyzeImage(ctx context.Context, email, dataURL string) (string, error)
}

// SignupCommand contains data for creating an account
type SignupCommand struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginCommand contains login credentials
type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserCommand edits the profile name and email.
type UpdateUserCommand struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,max=255"`
}

// UpdateSettingsCommand changes provider settings. A nil field is left
// alone; an empty API key removes the stored key.
type UpdateSettingsCommand struct {
	Provider *string                `json:"provider,omitempty"`
	APIKeys  map[ai.Provider]string `json:"apiKeys,omitempty"`
	Language *string                `json:"language,omitempty"`
}

// SaveRecipeCommand stores a recipe with its annotations. Tags may be given
// as a list or as comma separated text.
type SaveRecipeCommand struct {
	Recipe     recipe.Recipe `json:"recipe" validate:"required"`
	Notes      string        `json:"notes" validate:"max=5000"`
	Category   string        `json:"category,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
	TagsText   string        `json:"tagsText,omitempty"`
}

// GenerateCommand is a generation request plus display options.
type GenerateCommand struct {
	ai.Request
	Difficulty recipe.Difficulty `json:"difficulty,omitempty"`
	Sort       recipe.SortOrder  `json:"sort,omitempty"`
	// WithImages asks for a best-effort photo per recipe.
	WithImages bool `json:"withImages,omitempty"`
	// Client is the caller's address, set by the transport.
	Client string `json:"-"`
}

// Session is returned after a successful sign-in.
type Session struct {
	User         user.User `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ProfileDTO summarises a user for the profile view.
type ProfileDTO struct {
	User         user.User         `json:"user"`
	IsGuest      bool              `json:"isGuest"`
	CookedCount  int               `json:"cookedCount"`
	SavedCount   int               `json:"savedCount"`
	Restrictions user.Restrictions `json:"restrictions"`
}

// GeneratedRecipe is a recipe with display metadata.
type GeneratedRecipe struct {
	recipe.Recipe
	ID       string `json:"id"`
	Saved    bool   `json:"saved"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// GenerationResult is the answer to a generation request.
type GenerationResult struct {
	Provider ai.Provider       `json:"provider"`
	Recipes  []GeneratedRecipe `json:"recipes"`
	// Total is the number of recipes before the difficulty filter.
	Total  int  `json:"total"`
	Cached bool `json:"cached"`
}
