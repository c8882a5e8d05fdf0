// Package openai provides OpenAI chat completion integration for recipe generation
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai/aihttp"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.uber.org/zap"
)

// Client implements outbound.RecipeProvider using the OpenAI API
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(cfg config.ProviderConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		baseURL: baseURL,
		model:   model,
		client:  httpClient,
		logger:  logger.Named("openai"),
	}
}

// OpenAI API structures
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Name identifies the vendor.
func (c *Client) Name() ai.Provider {
	return ai.ProviderOpenAI
}

// Generate sends the prompt in JSON mode and parses the recipes.
func (c *Client) Generate(ctx context.Context, apiKey string, prompt ai.Prompt) ([]recipe.Recipe, error) {
	if apiKey == "" {
		return nil, apperrors.NewMissingAPIKeyError(ai.ProviderOpenAI.DisplayName())
	}

	req := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	start := time.Now()
	raw, err := aihttp.PostJSON(ctx, c.client, ai.ProviderOpenAI, c.baseURL+"/v1/chat/completions",
		map[string]string{"Authorization": "Bearer " + apiKey}, req)
	if err != nil {
		c.logger.Warn("OpenAI request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.NewMalformedResponseError(ai.ProviderOpenAI.DisplayName(), err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, aihttp.EmptyResponse(ai.ProviderOpenAI)
	}

	c.logger.Debug("OpenAI completion received",
		zap.String("model", c.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))

	return aihttp.ParseRecipes(ai.ProviderOpenAI, aihttp.StripFences(resp.Choices[0].Message.Content))
}
