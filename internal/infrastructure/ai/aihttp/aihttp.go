// Package aihttp holds the HTTP and response handling shared by the AI
// vendor clients.
package aihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes caps vendor responses; image payloads are a few MB.
const maxResponseBytes = 32 << 20

// NewHTTPClient returns a traced client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// vendorError is the error envelope all three vendors use.
type vendorError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// PostJSON sends body as JSON and returns the raw 2xx response body. Other
// statuses become provider errors carrying the vendor's message.
func PostJSON(ctx context.Context, client *http.Client, provider ai.Provider, url string, headers map[string]string, body interface{}) ([]byte, error) {
	name := provider.DisplayName()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		// The URL may carry an API key.
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewProviderError(name, fmt.Sprintf("%s did not respond in time", name), err)
		}
		return nil, apperrors.NewProviderError(name, fmt.Sprintf("%s API request failed", name), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewProviderError(name, fmt.Sprintf("%s API request failed", name), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewProviderError(name, ErrorMessage(provider, resp.StatusCode, raw), nil).
			WithMetadata("status", resp.StatusCode)
	}

	return raw, nil
}

// ErrorMessage extracts error.message from a vendor error body, falling
// back to "<Provider> API error: <status text>".
func ErrorMessage(provider ai.Provider, status int, body []byte) string {
	var ve vendorError
	if json.Unmarshal(body, &ve) == nil && ve.Error.Message != "" {
		return ve.Error.Message
	}
	return fmt.Sprintf("%s API error: %s", provider.DisplayName(), http.StatusText(status))
}

// EmptyResponse is returned when a vendor answered without any text.
func EmptyResponse(provider ai.Provider) error {
	name := provider.DisplayName()
	return apperrors.NewProviderError(name, "Empty response from "+name, nil)
}

// StripFences removes markdown code fences some models add despite being
// told not to.
func StripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseRecipes decodes model output that is either one recipe object, an
// array of recipes, or an object wrapping the array under "recipes".
func ParseRecipes(provider ai.Provider, text string) ([]recipe.Recipe, error) {
	text = strings.TrimSpace(text)
	malformed := func(err error) error {
		return apperrors.NewMalformedResponseError(provider.DisplayName(), err)
	}

	if strings.HasPrefix(text, "[") {
		var list []recipe.Recipe
		if err := json.Unmarshal([]byte(text), &list); err != nil {
			return nil, malformed(err)
		}
		return list, nil
	}

	var wrapper struct {
		Recipes json.RawMessage `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
		return nil, malformed(err)
	}

	if trimmed := bytes.TrimSpace(wrapper.Recipes); len(trimmed) > 0 && trimmed[0] == '[' {
		var list []recipe.Recipe
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, malformed(err)
		}
		return list, nil
	}

	var single recipe.Recipe
	if err := json.Unmarshal([]byte(text), &single); err != nil {
		return nil, malformed(err)
	}
	return []recipe.Recipe{single}, nil
}
