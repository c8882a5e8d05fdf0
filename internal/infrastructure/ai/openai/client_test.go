package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai/aihttp"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ProviderConfig{BaseURL: srv.URL}, aihttp.NewHTTPClient(5*time.Second), zap.NewNop())
}

func completion(content string) []byte {
	body, _ := json.Marshal(ChatCompletionResponse{
		Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
	})
	return body
}

func TestGenerate_SendsJSONModeRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "make soup", req.Messages[1].Content)

		_, _ = w.Write(completion(`{"recipeName":"Tomato Soup","difficulty":"Easy"}`))
	})

	recipes, err := client.Generate(context.Background(), "sk-test", ai.Prompt{System: "chef", User: "make soup"})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Tomato Soup", recipes[0].Name)
}

func TestGenerate_WrappedArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completion("```json\n{\"recipes\":[{\"recipeName\":\"A\"},{\"recipeName\":\"B\"},{\"recipeName\":\"C\"}]}\n```"))
	})

	recipes, err := client.Generate(context.Background(), "sk", ai.Prompt{Multiple: true})
	require.NoError(t, err)
	assert.Len(t, recipes, 3)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("MissingKey", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		_, err := client.Generate(context.Background(), "", ai.Prompt{})
		assert.True(t, apperrors.Is(err, apperrors.CodeMissingAPIKey))
	})

	t.Run("VendorMessage", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
		})
		_, err := client.Generate(context.Background(), "bad", ai.Prompt{})
		assert.True(t, apperrors.Is(err, apperrors.CodeProviderError))
		assert.Equal(t, "Incorrect API key provided", apperrors.UserMessage(err))
	})

	t.Run("NoChoices", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		})
		_, err := client.Generate(context.Background(), "sk", ai.Prompt{})
		assert.Equal(t, "Empty response from OpenAI", apperrors.UserMessage(err))
	})

	t.Run("NotJSON", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(completion("Here is a lovely soup"))
		})
		_, err := client.Generate(context.Background(), "sk", ai.Prompt{})
		assert.True(t, apperrors.Is(err, apperrors.CodeMalformedResponse))
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, ai.ProviderOpenAI, NewClient(config.ProviderConfig{}, http.DefaultClient, zap.NewNop()).Name())
}
