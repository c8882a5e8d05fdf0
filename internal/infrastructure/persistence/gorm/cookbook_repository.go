package gorm

import (
	"context"
	"errors"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 100

// CookbookRepository stores saved recipes and the cooked counter.
type CookbookRepository struct {
	db *gorm.DB
}

var (
	_ outbound.CookbookRepository = (*CookbookRepository)(nil)
	_ outbound.StatsRepository    = (*CookbookRepository)(nil)
)

// NewCookbookRepository creates a new cookbook repository
func NewCookbookRepository(db *gorm.DB) *CookbookRepository {
	return &CookbookRepository{db: db}
}

// Upsert stores entry, replacing an existing entry with the same id.
func (r *CookbookRepository) Upsert(ctx context.Context, owner string, entry recipe.SavedRecipe) (bool, error) {
	model := entryToModel(ownerKey(owner), entry)
	overwritten := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&CookbookEntryModel{}).
			Where("owner = ? AND recipe_id = ?", model.Owner, model.RecipeID).
			Count(&count).Error; err != nil {
			return err
		}
		overwritten = count > 0

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner"}, {Name: "recipe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "recipe", "notes", "categories", "tags", "updated_at"}),
		}).Create(model).Error
	})

	return overwritten, err
}

// Delete removes an entry and reports whether one existed. Deleting a
// missing entry is not an error.
func (r *CookbookRepository) Delete(ctx context.Context, owner, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("owner = ? AND recipe_id = ?", ownerKey(owner), id).
		Delete(&CookbookEntryModel{})
	return result.RowsAffected > 0, result.Error
}

// Get returns one entry.
func (r *CookbookRepository) Get(ctx context.Context, owner, id string) (*recipe.SavedRecipe, error) {
	var model CookbookEntryModel

	err := r.db.WithContext(ctx).First(&model, "owner = ? AND recipe_id = ?", ownerKey(owner), id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recipe.ErrRecipeNotFound
		}
		return nil, err
	}

	entry := modelToEntry(&model)
	return &entry, nil
}

// List returns every entry of owner in the order they were first saved.
func (r *CookbookRepository) List(ctx context.Context, owner string) ([]recipe.SavedRecipe, error) {
	var models []CookbookEntryModel

	err := r.db.WithContext(ctx).
		Where("owner = ?", ownerKey(owner)).
		Order("created_at ASC, recipe_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]recipe.SavedRecipe, 0, len(models))
	for i := range models {
		entries = append(entries, modelToEntry(&models[i]))
	}
	return entries, nil
}

// ReplaceAll swaps the owner's cookbook for entries.
func (r *CookbookRepository) ReplaceAll(ctx context.Context, owner string, entries []recipe.SavedRecipe) error {
	key := ownerKey(owner)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner = ?", key).Delete(&CookbookEntryModel{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		// Later duplicates win, matching sequential saves.
		byID := make(map[string]int, len(entries))
		models := make([]*CookbookEntryModel, 0, len(entries))
		for _, e := range entries {
			m := entryToModel(key, e)
			if i, ok := byID[m.RecipeID]; ok {
				models[i] = m
				continue
			}
			byID[m.RecipeID] = len(models)
			models = append(models, m)
		}

		return tx.CreateInBatches(models, importBatchSize).Error
	})
}

// IncrementCooked bumps the cooked counter and returns the new total.
func (r *CookbookRepository) IncrementCooked(ctx context.Context, owner string) (int, error) {
	key := ownerKey(owner)
	var total int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"cooked_count": gorm.Expr("user_stats.cooked_count + 1"),
			}),
		}).Create(&UserStatsModel{Owner: key, CookedCount: 1}).Error
		if err != nil {
			return err
		}

		var stats UserStatsModel
		if err := tx.First(&stats, "owner = ?", key).Error; err != nil {
			return err
		}
		total = stats.CookedCount
		return nil
	})

	return total, err
}

// CookedCount returns the cooked counter, zero when never incremented.
func (r *CookbookRepository) CookedCount(ctx context.Context, owner string) (int, error) {
	var stats UserStatsModel

	err := r.db.WithContext(ctx).First(&stats, "owner = ?", ownerKey(owner)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stats.CookedCount, nil
}

func entryToModel(owner string, e recipe.SavedRecipe) *CookbookEntryModel {
	id := e.ID
	if id == "" {
		id = e.Recipe.ID()
	}
	return &CookbookEntryModel{
		Owner:      owner,
		RecipeID:   id,
		Name:       e.Name,
		Recipe:     RecipeJSON(e.Recipe),
		Notes:      e.Notes,
		Categories: StringSlice(e.Categories),
		Tags:       StringSlice(e.Tags),
	}
}

func modelToEntry(m *CookbookEntryModel) recipe.SavedRecipe {
	return recipe.SavedRecipe{
		Recipe:     recipe.Recipe(m.Recipe),
		ID:         m.RecipeID,
		Notes:      m.Notes,
		Categories: []string(m.Categories),
		Tags:       []string(m.Tags),
	}
}
