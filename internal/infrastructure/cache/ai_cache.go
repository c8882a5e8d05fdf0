package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"go.uber.org/zap"
)

const recipeKeyPrefix = "ai:recipes"

// CachedRecipes is the stored form of a generation answer.
type CachedRecipes struct {
	Provider ai.Provider     `json:"provider"`
	Recipes  []recipe.Recipe `json:"recipes"`
	CachedAt time.Time       `json:"cached_at"`
}

// RecipeCache stores generation answers keyed by provider and prompt
// fingerprint. A nil *RecipeCache is valid and never hits.
type RecipeCache struct {
	cache  outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRecipeCache creates a recipe cache on top of any cache repository.
func NewRecipeCache(cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *RecipeCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RecipeCache{cache: cache, ttl: ttl, logger: logger.Named("ai-cache")}
}

// Get returns the cached recipes for prompt, or ok=false on a miss. Cache
// failures are logged and reported as misses.
func (c *RecipeCache) Get(ctx context.Context, provider ai.Provider, prompt ai.Prompt) ([]recipe.Recipe, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.cache.Get(ctx, recipeKey(provider, prompt))
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			c.logger.Warn("Recipe cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var cached CachedRecipes
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Discarding corrupt cache entry", zap.Error(err))
		return nil, false
	}
	return cached.Recipes, true
}

// Put stores recipes for prompt.
func (c *RecipeCache) Put(ctx context.Context, provider ai.Provider, prompt ai.Prompt, recipes []recipe.Recipe) {
	if c == nil || len(recipes) == 0 {
		return
	}

	data, err := json.Marshal(CachedRecipes{Provider: provider, Recipes: recipes, CachedAt: time.Now()})
	if err != nil {
		c.logger.Warn("Failed to encode recipes for cache", zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, recipeKey(provider, prompt), data, c.ttl); err != nil {
		c.logger.Warn("Recipe cache write failed", zap.Error(err))
	}
}

func recipeKey(provider ai.Provider, prompt ai.Prompt) string {
	return fmt.Sprintf("%s:%s:%s", recipeKeyPrefix, provider, prompt.Fingerprint())
}
