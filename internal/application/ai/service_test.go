package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

// MockRecipeProvider is a mock implementation of outbound.RecipeProvider
type MockRecipeProvider struct {
	mock.Mock
	name ai.Provider
}

func (m *MockRecipeProvider) Name() ai.Provider { return m.name }

func (m *MockRecipeProvider) Generate(ctx context.Context, apiKey string, prompt ai.Prompt) ([]recipe.Recipe, error) {
	args := m.Called(ctx, apiKey, prompt)
	recipes, _ := args.Get(0).([]recipe.Recipe)
	return recipes, args.Error(1)
}

// MockImageGenerator is a mock implementation of outbound.ImageGenerator
type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, apiKey, prompt string) ([]byte, error) {
	args := m.Called(ctx, apiKey, prompt)
	img, _ := args.Get(0).([]byte)
	return img, args.Error(1)
}

// MockImageAnalyzer is a mock implementation of outbound.ImageAnalyzer
type MockImageAnalyzer struct {
	mock.Mock
}

func (m *MockImageAnalyzer) AnalyzeImage(ctx context.Context, apiKey string, img ai.InlineImage, prompt string) (string, error) {
	args := m.Called(ctx, apiKey, img, prompt)
	return args.String(0), args.Error(1)
}

// MockStorage is a mock implementation of outbound.StorageService
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

type fakeProviders struct {
	clients  map[ai.Provider]outbound.RecipeProvider
	defaults map[ai.Provider]string
	images   *MockImageGenerator
	analyzer *MockImageAnalyzer
}

func (f *fakeProviders) Provider(p ai.Provider) (outbound.RecipeProvider, bool) {
	c, ok := f.clients[p]
	return c, ok
}
func (f *fakeProviders) DefaultKeys() map[ai.Provider]string { return f.defaults }
func (f *fakeProviders) Images() outbound.ImageGenerator     { return f.images }
func (f *fakeProviders) Analyzer() outbound.ImageAnalyzer    { return f.analyzer }

type fakeSettings struct{ byOwner map[string]ai.Settings }

func (f *fakeSettings) Get(_ context.Context, owner string) (ai.Settings, error) {
	if s, ok := f.byOwner[owner]; ok {
		return s, nil
	}
	return ai.DefaultSettings(), nil
}

func (f *fakeSettings) Save(_ context.Context, owner string, s ai.Settings) error {
	f.byOwner[owner] = s
	return nil
}

type fakeRestrictions struct{ list user.Restrictions }

func (f *fakeRestrictions) Get(context.Context, string) (user.Restrictions, error) {
	return f.list, nil
}

func (f *fakeRestrictions) Modify(_ context.Context, _ string, fn func(*user.Restrictions) error) (user.Restrictions, error) {
	err := fn(&f.list)
	return f.list, err
}

type fakeCookbook struct{ entries []recipe.SavedRecipe }

func (f *fakeCookbook) Upsert(context.Context, string, recipe.SavedRecipe) (bool, error) {
	return false, nil
}
func (f *fakeCookbook) Delete(context.Context, string, string) (bool, error) { return false, nil }
func (f *fakeCookbook) Get(context.Context, string, string) (*recipe.SavedRecipe, error) {
	return nil, recipe.ErrRecipeNotFound
}
func (f *fakeCookbook) List(context.Context, string) ([]recipe.SavedRecipe, error) {
	return f.entries, nil
}
func (f *fakeCookbook) ReplaceAll(context.Context, string, []recipe.SavedRecipe) error { return nil }

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]recipe.Recipe
}

func (f *fakeCache) Get(_ context.Context, p ai.Provider, prompt ai.Prompt) ([]recipe.Recipe, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.entries[string(p)+prompt.Fingerprint()]
	return r, ok
}

func (f *fakeCache) Put(_ context.Context, p ai.Provider, prompt ai.Prompt, recipes []recipe.Recipe) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[string(p)+prompt.Fingerprint()] = recipes
}

type denyQuota struct{}

func (denyQuota) Allow(context.Context, string) bool { return false }

const owner = "ada@example.com"

type GenerationServiceTestSuite struct {
	suite.Suite
	gemini       *MockRecipeProvider
	openai       *MockRecipeProvider
	providers    *fakeProviders
	settings     *fakeSettings
	restrictions *fakeRestrictions
	cookbook     *fakeCookbook
	deps         Dependencies
	service      *Service
}

func (s *GenerationServiceTestSuite) SetupTest() {
	s.gemini = &MockRecipeProvider{name: ai.ProviderGemini}
	s.openai = &MockRecipeProvider{name: ai.ProviderOpenAI}
	s.providers = &fakeProviders{
		clients: map[ai.Provider]outbound.RecipeProvider{
			ai.ProviderGemini: s.gemini,
			ai.ProviderOpenAI: s.openai,
		},
		defaults: map[ai.Provider]string{},
		images:   &MockImageGenerator{},
		analyzer: &MockImageAnalyzer{},
	}
	s.settings = &fakeSettings{byOwner: map[string]ai.Settings{
		owner: {Provider: ai.ProviderGemini, APIKeys: map[ai.Provider]string{ai.ProviderGemini: "g-user"}, Language: "English"},
	}}
	s.restrictions = &fakeRestrictions{}
	s.cookbook = &fakeCookbook{}
	s.deps = Dependencies{
		Providers:    s.providers,
		Settings:     s.settings,
		Restrictions: s.restrictions,
		Cookbook:     s.cookbook,
	}
	s.service = NewService(s.deps, zaptest.NewLogger(s.T()))
}

func (s *GenerationServiceTestSuite) rebuild() {
	s.service = NewService(s.deps, zaptest.NewLogger(s.T()))
}

func singleCommand(prompt string) inbound.GenerateCommand {
	return inbound.GenerateCommand{Request: ai.Request{
		PromptType:   ai.PromptSingle,
		SinglePrompt: prompt,
		ServingSize:  ai.DefaultServingSize(),
	}}
}

func threeRecipes() []recipe.Recipe {
	return []recipe.Recipe{
		{Name: "Slow Stew", CookTime: "2 hours", Difficulty: recipe.DifficultyHard},
		{Name: "Quick Salad", CookTime: "10 mins", Difficulty: recipe.DifficultyEasy},
		{Name: "Fried Rice", CookTime: "25 minutes", Difficulty: recipe.DifficultyEasy},
	}
}

func (s *GenerationServiceTestSuite) TestMissingKeyNeverCallsVendor() {
	s.settings.byOwner[owner] = ai.Settings{Provider: ai.ProviderOpenAI}

	_, err := s.service.GenerateRecipes(context.Background(), owner, singleCommand("soup"))

	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.CodeMissingAPIKey))
	s.Equal("Please add your OpenAI API key in Profile settings before using AI.", apperrors.UserMessage(err))
	s.openai.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *GenerationServiceTestSuite) TestFallsBackToServerKey() {
	s.settings.byOwner[owner] = ai.Settings{Provider: ai.ProviderOpenAI}
	s.providers.defaults[ai.ProviderOpenAI] = "sk-server"
	s.openai.On("Generate", mock.Anything, "sk-server", mock.Anything).
		Return([]recipe.Recipe{{Name: "Soup"}}, nil).Once()

	res, err := s.service.GenerateRecipes(context.Background(), owner, singleCommand("soup"))

	s.Require().NoError(err)
	s.Equal(ai.ProviderOpenAI, res.Provider)
	s.Equal("soup", res.Recipes[0].ID)
	s.openai.AssertExpectations(s.T())
}

func (s *GenerationServiceTestSuite) TestUnknownProviderFallsBackToGemini() {
	s.settings.byOwner[owner] = ai.Settings{Provider: "mistral", APIKeys: map[ai.Provider]string{ai.ProviderGemini: "g-user"}}
	s.gemini.On("Generate", mock.Anything, "g-user", mock.Anything).Return([]recipe.Recipe{{Name: "Soup"}}, nil).Once()

	res, err := s.service.GenerateRecipes(context.Background(), owner, singleCommand("soup"))

	s.Require().NoError(err)
	s.Equal(ai.ProviderGemini, res.Provider)
}

func (s *GenerationServiceTestSuite) TestMergesStoredRestrictions() {
	s.restrictions.list = user.Restrictions{"Peanuts"}
	cmd := singleCommand("pad thai")
	cmd.Restrictions = []string{"Shellfish"}

	s.gemini.On("Generate", mock.Anything, "g-user", mock.MatchedBy(func(p ai.Prompt) bool {
		return strings.Contains(p.User, "avoids: Shellfish, Peanuts.") && !p.Multiple
	})).Return([]recipe.Recipe{{Name: "Pad Thai"}}, nil).Once()

	_, err := s.service.GenerateRecipes(context.Background(), owner, cmd)

	s.Require().NoError(err)
	s.gemini.AssertExpectations(s.T())
}

func (s *GenerationServiceTestSuite) TestInvalidRequest() {
	_, err := s.service.GenerateRecipes(context.Background(), owner, inbound.GenerateCommand{Request: ai.Request{
		PromptType:  ai.PromptPantry,
		ServingSize: ai.DefaultServingSize(),
	}})

	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
	s.Equal("pantry.addIngredientError", apperrors.UserMessage(err))
}

func (s *GenerationServiceTestSuite) TestPresentFiltersSortsAndMarksSaved() {
	s.cookbook.entries = []recipe.SavedRecipe{{ID: "fried-rice", Recipe: recipe.Recipe{Name: "Fried Rice"}}}
	s.gemini.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(threeRecipes(), nil).Once()

	cmd := inbound.GenerateCommand{
		Request: ai.Request{
			PromptType:  ai.PromptPantry,
			Ingredients: []string{"rice", "eggs"},
			ServingSize: ai.DefaultServingSize(),
		},
		Difficulty: recipe.DifficultyEasy,
		Sort:       recipe.SortAsc,
	}
	res, err := s.service.GenerateRecipes(context.Background(), owner, cmd)

	s.Require().NoError(err)
	s.Equal(3, res.Total)
	s.Require().Len(res.Recipes, 2)
	s.Equal("Fried Rice", res.Recipes[0].Name)
	s.True(res.Recipes[0].Saved)
	s.Equal("Quick Salad", res.Recipes[1].Name)
	s.False(res.Recipes[1].Saved)
}

func (s *GenerationServiceTestSuite) TestProviderErrorPassesThrough() {
	vendorErr := apperrors.NewProviderError("Gemini", "API key not valid", nil)
	s.gemini.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, vendorErr).Once()

	_, err := s.service.GenerateRecipes(context.Background(), owner, singleCommand("soup"))

	s.Equal("API key not valid", apperrors.UserMessage(err))

	s.gemini.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("socket closed")).Once()
	_, err = s.service.GenerateRecipes(context.Background(), owner, singleCommand("stew"))
	s.True(apperrors.Is(err, apperrors.CodeProviderError))
	s.Equal(apperrors.UnknownErrorMessage, apperrors.UserMessage(err))
}

func (s *GenerationServiceTestSuite) TestCacheHitSkipsVendor() {
	s.deps.Cache = &fakeCache{entries: map[string][]recipe.Recipe{}}
	s.rebuild()
	s.gemini.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return([]recipe.Recipe{{Name: "Soup"}}, nil).Once()

	first, err := s.service.GenerateRecipes(context.Background(), owner, singleCommand("soup"))
	s.Require().NoError(err)
	s.False(first.Cached)

	second, err := s.service.GenerateRecipes(context.Background(), owner, singleCommand("soup"))
	s.Require().NoError(err)
	s.True(second.Cached)

	s.gemini.AssertNumberOfCalls(s.T(), "Generate", 1)
}

func (s *GenerationServiceTestSuite) TestQuotaExceeded() {
	s.deps.Quota = denyQuota{}
	s.rebuild()

	_, err := s.service.GenerateRecipes(context.Background(), owner, singleCommand("soup"))

	s.True(apperrors.Is(err, apperrors.CodeTooManyRequests))
	s.gemini.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *GenerationServiceTestSuite) TestConcurrentRequestsFromOneUser() {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	s.gemini.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			once.Do(func() { close(started) })
			<-release
		}).
		Return([]recipe.Recipe{{Name: "Soup"}}, nil)

	s.settings.byOwner["bob@example.com"] = s.settings.byOwner[owner]

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.service.GenerateRecipes(context.Background(), owner, singleCommand("soup"))
		}(i)
		if i == 0 {
			<-started
		}
	}

	// A different prompt while "soup" is running is refused.
	_, err := s.service.GenerateRecipes(context.Background(), owner, singleCommand("bread"))
	s.True(apperrors.Is(err, apperrors.CodeGenerationInProgress))

	// Another user is unaffected by the first user's flight.
	done := make(chan error, 1)
	go func() {
		_, err := s.service.GenerateRecipes(context.Background(), "bob@example.com", singleCommand("bread"))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	s.NoError(results[0])
	s.NoError(results[1])
	s.NoError(<-done)
	s.LessOrEqual(len(s.gemini.Calls), 3)

	// Once the flight has landed the user may start something new.
	_, err = s.service.GenerateRecipes(context.Background(), owner, singleCommand("bread"))
	s.NoError(err)
}

func (s *GenerationServiceTestSuite) TestGenerateImage() {
	png := []byte("png-bytes")
	s.providers.images.On("GenerateImage", mock.Anything, "g-user", mock.Anything).Return(png, nil)

	url := s.service.GenerateImage(context.Background(), owner, "Green Curry", "")
	s.Equal(ai.DataURL("image/png", png), url)

	store := &MockStorage{}
	store.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "images/green-curry-") && strings.HasSuffix(key, ".png")
	}), png, "image/png").Return("https://cdn.example.com/images/green-curry.png", nil).Once()
	s.deps.Storage = store
	s.rebuild()

	url = s.service.GenerateImage(context.Background(), owner, "Green Curry", "")
	s.Equal("https://cdn.example.com/images/green-curry.png", url)
	store.AssertExpectations(s.T())
}

func (s *GenerationServiceTestSuite) TestGenerateImageFailureIsEmpty() {
	s.providers.images.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota"))

	s.Empty(s.service.GenerateImage(context.Background(), owner, "Soup", "hot"))

	s.settings.byOwner[owner] = ai.Settings{Provider: ai.ProviderOpenAI}
	s.Empty(s.service.GenerateImage(context.Background(), owner, "Soup", "hot"))
	s.providers.images.AssertNumberOfCalls(s.T(), "GenerateImage", 1)
}

func (s *GenerationServiceTestSuite) TestWithImages() {
	s.gemini.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(threeRecipes(), nil).Once()
	s.providers.images.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).Return([]byte("x"), nil)

	cmd := singleCommand("dinner")
	cmd.WithImages = true
	res, err := s.service.GenerateRecipes(context.Background(), owner, cmd)

	s.Require().NoError(err)
	for _, r := range res.Recipes {
		s.Equal(ai.DataURL("image/png", []byte("x")), r.ImageURL)
	}
}

func (s *GenerationServiceTestSuite) TestAnalyzeImage() {
	_, err := s.service.AnalyzeImage(context.Background(), owner, "not a data url")
	s.Equal("Invalid image format", apperrors.UserMessage(err))

	s.providers.analyzer.On("AnalyzeImage", mock.Anything, "g-user", ai.InlineImage{MimeType: "image/png", Data: "AAAA"}, ai.AnalyzePrompt).
		Return("Carrots and leeks", nil).Once()

	text, err := s.service.AnalyzeImage(context.Background(), owner, "data:image/png;base64,AAAA")
	s.Require().NoError(err)
	s.Equal("Carrots and leeks", text)
}

func (s *GenerationServiceTestSuite) TestCaseVariantIngredientsCollapse() {
	s.gemini.On("Generate", mock.Anything, "g-user", mock.MatchedBy(func(p ai.Prompt) bool {
		return strings.Contains(p.User, "Ingredients: Tomato, basil.")
	})).Return(threeRecipes(), nil).Once()

	_, err := s.service.GenerateRecipes(context.Background(), owner, inbound.GenerateCommand{Request: ai.Request{
		PromptType:  ai.PromptPantry,
		Ingredients: []string{"Tomato", "TOMATO ", "basil", "Basil"},
		ServingSize: ai.DefaultServingSize(),
	}})

	s.Require().NoError(err)
	s.gemini.AssertExpectations(s.T())
}

func (s *GenerationServiceTestSuite) TestGuestIgnoresStoredSettings() {
	s.settings.byOwner[user.GuestEmail] = ai.Settings{
		Provider: ai.ProviderGemini,
		APIKeys:  map[ai.Provider]string{ai.ProviderGemini: "g-planted"},
	}

	_, err := s.service.GenerateRecipes(context.Background(), user.GuestEmail, singleCommand("soup"))
	s.True(apperrors.Is(err, apperrors.CodeMissingAPIKey))

	s.providers.defaults[ai.ProviderGemini] = "g-server"
	s.gemini.On("Generate", mock.Anything, "g-server", mock.Anything).Return([]recipe.Recipe{{Name: "Soup"}}, nil).Once()

	_, err = s.service.GenerateRecipes(context.Background(), user.GuestEmail, singleCommand("soup"))
	s.Require().NoError(err)
	s.gemini.AssertNotCalled(s.T(), "Generate", mock.Anything, "g-planted", mock.Anything)
}

func (s *GenerationServiceTestSuite) TestGuestsAreKeyedByClient() {
	s.providers.defaults[ai.ProviderGemini] = "g-server"
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	s.gemini.On("Generate", mock.Anything, "g-server", mock.Anything).
		Run(func(mock.Arguments) {
			once.Do(func() { close(started) })
			<-release
		}).
		Return([]recipe.Recipe{{Name: "Soup"}}, nil)

	first := singleCommand("soup")
	first.Client = "203.0.113.7"
	done := make(chan error, 1)
	go func() {
		_, err := s.service.GenerateRecipes(context.Background(), user.GuestEmail, first)
		done <- err
	}()
	<-started

	// Same address, different prompt: still one flight per client.
	busy := singleCommand("bread")
	busy.Client = "203.0.113.7"
	_, err := s.service.GenerateRecipes(context.Background(), user.GuestEmail, busy)
	s.True(apperrors.Is(err, apperrors.CodeGenerationInProgress))

	other := singleCommand("bread")
	other.Client = "198.51.100.4"
	second := make(chan error, 1)
	go func() {
		_, err := s.service.GenerateRecipes(context.Background(), user.GuestEmail, other)
		second <- err
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	s.NoError(<-done)
	s.NoError(<-second)
}

func TestCallerKey(t *testing.T) {
	assert.Equal(t, owner, callerKey(owner, "203.0.113.7"))
	assert.Equal(t, "guest:203.0.113.7", callerKey(user.GuestEmail, "203.0.113.7"))
	assert.Equal(t, user.GuestEmail, callerKey(user.GuestEmail, ""))
}

func TestGenerationServiceSuite(t *testing.T) {
	suite.Run(t, new(GenerationServiceTestSuite))
}

func TestFlights(t *testing.T) {
	f := newFlights()

	require.True(t, f.begin("a", "k1"))
	assert.True(t, f.begin("a", "k1"))
	assert.False(t, f.begin("a", "k2"))
	assert.True(t, f.begin("b", "k2"))

	f.end("a")
	assert.False(t, f.begin("a", "k2"))
	f.end("a")
	assert.True(t, f.begin("a", "k2"))
}

func TestImageObjectKey(t *testing.T) {
	a := imageObjectKey("Green  Curry", []byte("one"))
	b := imageObjectKey("Green  Curry", []byte("two"))

	assert.True(t, strings.HasPrefix(a, "images/green-curry-"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(a, "images/green-curry-"), ".png"), 16)
}
