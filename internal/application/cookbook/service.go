// Package cookbook provides the application layer for saved recipes
package cookbook

import (
	"context"
	"errors"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/shared"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.uber.org/zap"
)

// CookbookService implements the cookbook use cases
type CookbookService struct {
	cookbook outbound.CookbookRepository
	stats    outbound.StatsRepository
	events   shared.EventDispatcher
	logger   *zap.Logger
	now      func() time.Time
}

var _ inbound.CookbookService = (*CookbookService)(nil)

// NewCookbookService creates a new cookbook service
func NewCookbookService(
	cookbook outbound.CookbookRepository,
	stats outbound.StatsRepository,
	events shared.EventDispatcher,
	logger *zap.Logger,
) *CookbookService {
	return &CookbookService{
		cookbook: cookbook,
		stats:    stats,
		events:   events,
		logger:   logger.Named("cookbook-service"),
		now:      time.Now,
	}
}

// Save stores a recipe under the slug of its name. Saving the same name
// again overwrites the entry.
func (s *CookbookService) Save(ctx context.Context, email string, cmd inbound.SaveRecipeCommand) (*recipe.SavedRecipe, error) {
	categories := append([]string{}, cmd.Categories...)
	if cmd.Category != "" {
		categories = append(categories, cmd.Category)
	}
	tags := append(append([]string{}, cmd.Tags...), recipe.NormalizeTags(cmd.TagsText)...)

	entry, err := recipe.NewSavedRecipe(cmd.Recipe, cmd.Notes, categories, tags)
	if err != nil {
		return nil, apperrors.NewKeyedValidationError(err)
	}
	entry.Categories = dedupe(entry.Categories)
	entry.Tags = dedupe(entry.Tags)

	overwritten, err := s.cookbook.Upsert(ctx, email, entry)
	if err != nil {
		return nil, apperrors.NewDatabaseError("save recipe", err)
	}

	s.dispatch(recipe.RecipeSavedEvent{Owner: email, RecipeID: entry.ID, Overwritten: overwritten, SavedAt: s.now()})

	s.logger.Info("Recipe saved",
		zap.String("recipe_id", entry.ID),
		zap.Bool("overwritten", overwritten))

	return &entry, nil
}

// Unsave removes a recipe given its id or its display name.
func (s *CookbookService) Unsave(ctx context.Context, email, nameOrID string) error {
	id := recipe.Slug(nameOrID)
	removed, err := s.cookbook.Delete(ctx, email, id)
	if err != nil {
		return apperrors.NewDatabaseError("delete recipe", err)
	}
	if !removed {
		return nil
	}

	s.dispatch(recipe.RecipeRemovedEvent{Owner: email, RecipeID: id, RemovedAt: s.now()})
	return nil
}

// Get returns one cookbook entry.
func (s *CookbookService) Get(ctx context.Context, email, id string) (*recipe.SavedRecipe, error) {
	entry, err := s.cookbook.Get(ctx, email, recipe.Slug(id))
	if errors.Is(err, recipe.ErrRecipeNotFound) {
		return nil, apperrors.NewRecipeNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get recipe", err)
	}
	return entry, nil
}

// List returns the entries matching q ordered by name.
func (s *CookbookService) List(ctx context.Context, email string, q recipe.Query) ([]recipe.SavedRecipe, error) {
	entries, err := s.cookbook.List(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list recipes", err)
	}
	return recipe.Filter(entries, q), nil
}

// Facets returns the categories and tags in use.
func (s *CookbookService) Facets(ctx context.Context, email string) (recipe.Facets, error) {
	entries, err := s.cookbook.List(ctx, email)
	if err != nil {
		return recipe.Facets{}, apperrors.NewDatabaseError("list recipes", err)
	}
	return recipe.CollectFacets(entries), nil
}

// SavedIDs returns the set of saved recipe ids.
func (s *CookbookService) SavedIDs(ctx context.Context, email string) (map[string]bool, error) {
	entries, err := s.cookbook.List(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list recipes", err)
	}
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.ID] = true
	}
	return ids, nil
}

// MarkCooked bumps the cooked counter and returns the new total. The
// recipe need not be saved.
func (s *CookbookService) MarkCooked(ctx context.Context, email, nameOrID string) (int, error) {
	total, err := s.stats.IncrementCooked(ctx, email)
	if err != nil {
		return 0, apperrors.NewDatabaseError("increment cooked count", err)
	}

	s.dispatch(recipe.RecipeCookedEvent{Owner: email, RecipeID: recipe.Slug(nameOrID), TotalCount: total, CookedAt: s.now()})
	return total, nil
}

// Export returns the whole cookbook ordered by name.
func (s *CookbookService) Export(ctx context.Context, email string) ([]recipe.SavedRecipe, error) {
	return s.List(ctx, email, recipe.Query{})
}

// Import stores entries, recomputing their ids from the names. With
// replace the existing cookbook is dropped first, atomically.
func (s *CookbookService) Import(ctx context.Context, email string, entries []recipe.SavedRecipe, replace bool) (int, error) {
	normalized := make([]recipe.SavedRecipe, 0, len(entries))
	for i, e := range entries {
		entry, err := recipe.NewSavedRecipe(e.Recipe, e.Notes, e.Categories, e.Tags)
		if err != nil {
			return 0, apperrors.NewKeyedValidationError(err).WithMetadata("index", i)
		}
		normalized = append(normalized, entry)
	}

	if replace {
		if err := s.cookbook.ReplaceAll(ctx, email, normalized); err != nil {
			return 0, apperrors.NewDatabaseError("replace cookbook", err)
		}
	} else {
		for _, entry := range normalized {
			if _, err := s.cookbook.Upsert(ctx, email, entry); err != nil {
				return 0, apperrors.NewDatabaseError("import recipe", err)
			}
		}
	}

	s.logger.Info("Cookbook imported", zap.Int("count", len(normalized)), zap.Bool("replace", replace))
	return len(normalized), nil
}

func (s *CookbookService) dispatch(event shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Dispatch(event); err != nil {
		s.logger.Warn("Event handler failed", zap.String("event", event.EventName()), zap.Error(err))
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
