// Package testutils provides mock implementations for testing
package testutils

import (
	"context"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeProvider provides a mock implementation of outbound.RecipeProvider
type MockRecipeProvider struct {
	mock.Mock
	Provider ai.Provider
}

var _ outbound.RecipeProvider = (*MockRecipeProvider)(nil)

// NewMockRecipeProvider creates a mock for p
func NewMockRecipeProvider(p ai.Provider) *MockRecipeProvider {
	return &MockRecipeProvider{Provider: p}
}

// Name returns the mocked vendor
func (m *MockRecipeProvider) Name() ai.Provider {
	return m.Provider
}

// Generate returns the configured recipes
func (m *MockRecipeProvider) Generate(ctx context.Context, apiKey string, prompt ai.Prompt) ([]recipe.Recipe, error) {
	args := m.Called(ctx, apiKey, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

// MockImageService mocks both image generation and analysis, like the
// Gemini client it stands in for.
type MockImageService struct {
	mock.Mock
}

var (
	_ outbound.ImageGenerator = (*MockImageService)(nil)
	_ outbound.ImageAnalyzer  = (*MockImageService)(nil)
)

// GenerateImage returns the configured bytes
func (m *MockImageService) GenerateImage(ctx context.Context, apiKey, prompt string) ([]byte, error) {
	args := m.Called(ctx, apiKey, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// AnalyzeImage returns the configured description
func (m *MockImageService) AnalyzeImage(ctx context.Context, apiKey string, img ai.InlineImage, prompt string) (string, error) {
	args := m.Called(ctx, apiKey, img, prompt)
	return args.String(0), args.Error(1)
}

// MockProviders resolves every vendor to mocks.
type MockProviders struct {
	Clients map[ai.Provider]*MockRecipeProvider
	Keys    map[ai.Provider]string
	Image   *MockImageService
}

// NewMockProviders creates a mock client for each supported vendor.
func NewMockProviders() *MockProviders {
	m := &MockProviders{
		Clients: make(map[ai.Provider]*MockRecipeProvider, len(ai.Providers)),
		Keys:    map[ai.Provider]string{},
		Image:   &MockImageService{},
	}
	for _, p := range ai.Providers {
		m.Clients[p] = NewMockRecipeProvider(p)
	}
	return m
}

// Provider returns the mock for p
func (m *MockProviders) Provider(p ai.Provider) (outbound.RecipeProvider, bool) {
	c, ok := m.Clients[p]
	return c, ok
}

// DefaultKeys returns the server-wide keys
func (m *MockProviders) DefaultKeys() map[ai.Provider]string {
	return m.Keys
}

// Images returns the image mock
func (m *MockProviders) Images() outbound.ImageGenerator {
	return m.Image
}

// Analyzer returns the image mock
func (m *MockProviders) Analyzer() outbound.ImageAnalyzer {
	return m.Image
}
