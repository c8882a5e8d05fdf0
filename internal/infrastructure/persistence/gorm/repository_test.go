package gorm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/security"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	ctx          context.Context
	db           *gorm.DB
	users        *UserRepository
	cookbook     *CookbookRepository
	restrictions *RestrictionRepository
	settings     *SettingsRepository
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := NewDatabase(&config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			Database:    ":memory:",
			LogLevel:    "silent",
			AutoMigrate: true,
		},
	}, zap.NewNop())
	s.Require().NoError(err)
	s.db = db

	cipher, err := security.NewEncryptionService("repository-test-key")
	s.Require().NoError(err)

	s.users = NewUserRepository(db)
	s.cookbook = NewCookbookRepository(db)
	s.restrictions = NewRestrictionRepository(db)
	s.settings = NewSettingsRepository(db, cipher, zap.NewNop())
}

func (s *RepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())
}

func (s *RepositoryTestSuite) newUser(name, email string) *user.User {
	u, err := user.NewUser(name, email, "secret1", "secret1")
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func saved(name string, tags ...string) recipe.SavedRecipe {
	entry, _ := recipe.NewSavedRecipe(recipe.Recipe{
		Name:        name,
		Ingredients: []string{"1 egg"},
		Difficulty:  recipe.DifficultyEasy,
		Nutrition:   &recipe.Nutrition{Calories: "200"},
	}, "", nil, tags)
	return entry
}

func (s *RepositoryTestSuite) TestUser_CreateAndFindIgnoresCase() {
	s.newUser("Ada", "Ada@Example.com")

	found, err := s.users.FindByEmail(s.ctx, "ada@example.COM")
	s.Require().NoError(err)
	s.Equal("Ada", found.Name)
	s.Equal("Ada@Example.com", found.Email)
	s.True(found.CheckPassword("secret1"))

	dup, err := user.NewUser("Other", "ADA@example.com", "secret1", "secret1")
	s.Require().NoError(err)
	s.ErrorIs(s.users.Create(s.ctx, dup), user.ErrEmailExists)

	_, err = s.users.FindByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, user.ErrUserNotFound)
}

func (s *RepositoryTestSuite) TestUser_FindFirstByEmailSuffix() {
	first, err := user.NewSocialUser(user.SocialGoogle, 1)
	s.Require().NoError(err)
	first.CreatedAt = time.Now().Add(-time.Hour)
	s.Require().NoError(s.users.Create(s.ctx, first))

	second, err := user.NewSocialUser(user.SocialGoogle, 2)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, second))

	found, err := s.users.FindFirstByEmailSuffix(s.ctx, user.SocialGoogle.EmailDomain())
	s.Require().NoError(err)
	s.Equal(first.Email, found.Email)

	_, err = s.users.FindFirstByEmailSuffix(s.ctx, user.SocialApple.EmailDomain())
	s.ErrorIs(err, user.ErrUserNotFound)
}

func (s *RepositoryTestSuite) TestUser_UpdateMovesOwnedRows() {
	u := s.newUser("Ada", "ada@example.com")

	_, err := s.cookbook.Upsert(s.ctx, u.Email, saved("Pancakes"))
	s.Require().NoError(err)
	_, err = s.cookbook.IncrementCooked(s.ctx, u.Email)
	s.Require().NoError(err)
	_, err = s.restrictions.Modify(s.ctx, u.Email, func(r *user.Restrictions) error {
		r.Add("Vegan")
		return nil
	})
	s.Require().NoError(err)

	u.Email = "lovelace@example.com"
	s.Require().NoError(s.users.Update(s.ctx, "ada@example.com", u))

	_, err = s.users.FindByEmail(s.ctx, "ada@example.com")
	s.ErrorIs(err, user.ErrUserNotFound)

	entries, err := s.cookbook.List(s.ctx, "lovelace@example.com")
	s.Require().NoError(err)
	s.Len(entries, 1)

	count, err := s.cookbook.CookedCount(s.ctx, "lovelace@example.com")
	s.Require().NoError(err)
	s.Equal(1, count)

	list, err := s.restrictions.Get(s.ctx, "lovelace@example.com")
	s.Require().NoError(err)
	s.Equal(user.Restrictions{"Vegan"}, list)

	old, err := s.cookbook.List(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Empty(old)
}

func (s *RepositoryTestSuite) TestUser_UpdateRejectsTakenEmail() {
	u := s.newUser("Ada", "ada@example.com")
	s.newUser("Bob", "bob@example.com")

	u.Email = "BOB@example.com"
	s.ErrorIs(s.users.Update(s.ctx, "ada@example.com", u), user.ErrEmailExists)
}

func (s *RepositoryTestSuite) TestCookbook_UpsertGetDelete() {
	overwritten, err := s.cookbook.Upsert(s.ctx, "ada@example.com", saved("Green Curry", "thai"))
	s.Require().NoError(err)
	s.False(overwritten)

	entry := saved("Green Curry", "thai", "spicy")
	entry.Notes = "less chili"
	overwritten, err = s.cookbook.Upsert(s.ctx, "ada@example.com", entry)
	s.Require().NoError(err)
	s.True(overwritten)

	got, err := s.cookbook.Get(s.ctx, "ADA@example.com", "green-curry")
	s.Require().NoError(err)
	s.Equal("less chili", got.Notes)
	s.Equal([]string{"thai", "spicy"}, got.Tags)
	s.Equal(recipe.Text("200"), got.Nutrition.Calories)

	removed, err := s.cookbook.Delete(s.ctx, "ada@example.com", "green-curry")
	s.Require().NoError(err)
	s.True(removed)
	_, err = s.cookbook.Get(s.ctx, "ada@example.com", "green-curry")
	s.ErrorIs(err, recipe.ErrRecipeNotFound)

	removed, err = s.cookbook.Delete(s.ctx, "ada@example.com", "green-curry")
	s.NoError(err)
	s.False(removed)
}

func (s *RepositoryTestSuite) TestCookbook_OwnersAreIsolated() {
	_, err := s.cookbook.Upsert(s.ctx, "ada@example.com", saved("Soup"))
	s.Require().NoError(err)

	entries, err := s.cookbook.List(s.ctx, "bob@example.com")
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *RepositoryTestSuite) TestCookbook_ReplaceAll() {
	_, err := s.cookbook.Upsert(s.ctx, "ada@example.com", saved("Old"))
	s.Require().NoError(err)

	late := saved("Soup")
	late.Notes = "second"
	s.Require().NoError(s.cookbook.ReplaceAll(s.ctx, "ada@example.com", []recipe.SavedRecipe{
		saved("Soup"), saved("Bread"), late,
	}))

	entries, err := s.cookbook.List(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Len(entries, 2)

	soup, err := s.cookbook.Get(s.ctx, "ada@example.com", "soup")
	s.Require().NoError(err)
	s.Equal("second", soup.Notes)

	s.Require().NoError(s.cookbook.ReplaceAll(s.ctx, "ada@example.com", nil))
	entries, err = s.cookbook.List(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *RepositoryTestSuite) TestStats_IncrementCooked() {
	count, err := s.cookbook.CookedCount(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Zero(count)

	for want := 1; want <= 3; want++ {
		got, err := s.cookbook.IncrementCooked(s.ctx, "ada@example.com")
		s.Require().NoError(err)
		s.Equal(want, got)
	}
}

func (s *RepositoryTestSuite) TestRestrictions_ModifyIsAtomic() {
	var wg sync.WaitGroup
	items := []string{"Vegan", "Nut allergy", "Low sodium", "Halal"}
	for _, item := range items {
		wg.Add(1)
		go func(item string) {
			defer wg.Done()
			_, err := s.restrictions.Modify(s.ctx, "ada@example.com", func(r *user.Restrictions) error {
				r.Add(item)
				return nil
			})
			s.NoError(err)
		}(item)
	}
	wg.Wait()

	list, err := s.restrictions.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.ElementsMatch(items, []string(list))
}

func (s *RepositoryTestSuite) TestRestrictions_FailedModifyKeepsList() {
	_, err := s.restrictions.Modify(s.ctx, "ada@example.com", func(r *user.Restrictions) error {
		r.Add("Vegan")
		return nil
	})
	s.Require().NoError(err)

	_, err = s.restrictions.Modify(s.ctx, "ada@example.com", func(r *user.Restrictions) error {
		_, err := r.RemoveAt(3, nil)
		return err
	})
	s.ErrorIs(err, user.ErrRestrictionIndex)

	list, err := s.restrictions.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(user.Restrictions{"Vegan"}, list)
}

func (s *RepositoryTestSuite) TestSettings_EncryptsKeys() {
	got, err := s.settings.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(ai.DefaultSettings(), got)

	s.Require().NoError(s.settings.Save(s.ctx, "ada@example.com", ai.Settings{
		Provider: ai.ProviderOpenAI,
		Language: "French",
		APIKeys:  map[ai.Provider]string{ai.ProviderOpenAI: "sk-live-abcd"},
	}))

	var model SettingsModel
	s.Require().NoError(s.db.First(&model, "owner = ?", "ada@example.com").Error)
	s.NotContains(model.APIKeys["openai"], "sk-live")

	got, err = s.settings.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(ai.ProviderOpenAI, got.Provider)
	s.Equal("French", got.Language)
	s.Equal("sk-live-abcd", got.KeyFor(ai.ProviderOpenAI))
}

func (s *RepositoryTestSuite) TestSettings_DropsKeysFromOtherCipher() {
	s.Require().NoError(s.settings.Save(s.ctx, "ada@example.com", ai.Settings{
		Provider: ai.ProviderGemini,
		APIKeys:  map[ai.Provider]string{ai.ProviderGemini: "g-key"},
	}))

	other, err := security.NewEncryptionService("rotated-key")
	s.Require().NoError(err)
	rotated := NewSettingsRepository(s.db, other, zap.NewNop())

	got, err := rotated.Get(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Empty(got.KeyFor(ai.ProviderGemini))
	s.Equal(ai.ProviderGemini, got.Provider)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
