// Package deepseek provides recipe generation through the DeepSeek chat API.
package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai/aihttp"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.uber.org/zap"
)

// DeepSeek has no JSON mode, so the instruction goes into the prompt.
const strictJSONSuffix = "\n\nProvide the output strictly as a valid JSON object/array with no markdown code fencing."

// Client implements outbound.RecipeProvider for DeepSeek.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a DeepSeek client.
func NewClient(cfg config.ProviderConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  httpClient,
		logger:  logger.Named("deepseek"),
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.deepseek.com"
	}
	if c.model == "" {
		c.model = "deepseek-chat"
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Name identifies the vendor.
func (c *Client) Name() ai.Provider {
	return ai.ProviderDeepSeek
}

// Generate sends the prompt and parses the recipes, tolerating code fences.
func (c *Client) Generate(ctx context.Context, apiKey string, prompt ai.Prompt) ([]recipe.Recipe, error) {
	if apiKey == "" {
		return nil, apperrors.NewMissingAPIKeyError(ai.ProviderDeepSeek.DisplayName())
	}

	raw, err := aihttp.PostJSON(ctx, c.client, ai.ProviderDeepSeek, c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + apiKey}, chatRequest{
			Model: c.model,
			Messages: []message{
				{Role: "system", Content: prompt.System},
				{Role: "user", Content: prompt.User + strictJSONSuffix},
			},
		})
	if err != nil {
		c.logger.Warn("DeepSeek request failed", zap.Error(err))
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.NewMalformedResponseError(ai.ProviderDeepSeek.DisplayName(), err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, aihttp.EmptyResponse(ai.ProviderDeepSeek)
	}

	return aihttp.ParseRecipes(ai.ProviderDeepSeek, aihttp.StripFences(resp.Choices[0].Message.Content))
}
