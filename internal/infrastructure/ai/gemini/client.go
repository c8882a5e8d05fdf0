// Package gemini talks to the Google Generative Language API for recipe
// text, dish photos and ingredient recognition.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai/aihttp"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultTextModel   = "gemini-2.5-flash"
	defaultImageModel  = "imagen-4.0-generate-001"
	defaultVisionModel = "gemini-3-pro-preview"

	strictJSONSuffix = "\n\nEnsure the response is strictly valid JSON with no markdown formatting, matching the schema provided previously."
)

// Client implements outbound.RecipeProvider, ImageGenerator and
// ImageAnalyzer.
type Client struct {
	baseURL     string
	textModel   string
	imageModel  string
	visionModel string
	client      *http.Client
	logger      *zap.Logger
}

// NewClient creates a Gemini client. Empty models fall back to defaults.
func NewClient(cfg config.ProviderConfig, imageModel, visionModel string, httpClient *http.Client, logger *zap.Logger) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		textModel:   cfg.Model,
		imageModel:  imageModel,
		visionModel: visionModel,
		client:      httpClient,
		logger:      logger.Named("gemini"),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.textModel == "" {
		c.textModel = defaultTextModel
	}
	if c.imageModel == "" {
		c.imageModel = defaultImageModel
	}
	if c.visionModel == "" {
		c.visionModel = defaultVisionModel
	}
	return c
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// text returns the first part of the first candidate.
func (r generateContentResponse) text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// Name identifies the vendor.
func (c *Client) Name() ai.Provider {
	return ai.ProviderGemini
}

func (c *Client) endpoint(model, method, apiKey string) string {
	return c.baseURL + "/models/" + model + ":" + method + "?key=" + url.QueryEscape(apiKey)
}

func (c *Client) generateContent(ctx context.Context, apiKey, model string, req generateContentRequest) (string, error) {
	raw, err := aihttp.PostJSON(ctx, c.client, ai.ProviderGemini, c.endpoint(model, "generateContent", apiKey), nil, req)
	if err != nil {
		return "", err
	}

	var resp generateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", apperrors.NewMalformedResponseError(ai.ProviderGemini.DisplayName(), err)
	}
	return resp.text(), nil
}

// Generate asks the text model for recipe JSON.
func (c *Client) Generate(ctx context.Context, apiKey string, prompt ai.Prompt) ([]recipe.Recipe, error) {
	if apiKey == "" {
		return nil, apperrors.NewMissingAPIKeyError(ai.ProviderGemini.DisplayName())
	}

	text, err := c.generateContent(ctx, apiKey, c.textModel, generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt.System + "\n\n" + prompt.User + strictJSONSuffix}},
		}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		c.logger.Warn("Gemini generation failed", zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, aihttp.EmptyResponse(ai.ProviderGemini)
	}

	return aihttp.ParseRecipes(ai.ProviderGemini, aihttp.StripFences(text))
}

// GenerateImage renders one square photo and returns the decoded bytes.
func (c *Client) GenerateImage(ctx context.Context, apiKey, prompt string) ([]byte, error) {
	if apiKey == "" {
		return nil, apperrors.NewMissingAPIKeyError(ai.ProviderGemini.DisplayName())
	}

	raw, err := aihttp.PostJSON(ctx, c.client, ai.ProviderGemini, c.endpoint(c.imageModel, "predict", apiKey), nil, predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: 1, AspectRatio: "1:1"},
	})
	if err != nil {
		return nil, err
	}

	var resp predictResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.NewMalformedResponseError(ai.ProviderGemini.DisplayName(), err)
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, aihttp.EmptyResponse(ai.ProviderGemini)
	}

	img, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, apperrors.NewMalformedResponseError(ai.ProviderGemini.DisplayName(), err)
	}
	return img, nil
}

// AnalyzeImage sends the photo with prompt to the vision model.
func (c *Client) AnalyzeImage(ctx context.Context, apiKey string, img ai.InlineImage, prompt string) (string, error) {
	if apiKey == "" {
		return "", apperrors.NewMissingAPIKeyError(ai.ProviderGemini.DisplayName())
	}

	text, err := c.generateContent(ctx, apiKey, c.visionModel, generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: img.MimeType, Data: img.Data}},
				{Text: prompt},
			},
		}},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return ai.NoDescription, nil
	}
	return text, nil
}
