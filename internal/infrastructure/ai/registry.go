// Package ai wires the vendor clients together and reports their health.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	aidomain "github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai/aihttp"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai/deepseek"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai/gemini"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai/openai"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"github.com/Aethermaxx/ChefCulina/pkg/healthcheck"
	"go.uber.org/zap"
)

// Registry holds one client per vendor plus the server-wide fallback keys.
type Registry struct {
	providers   map[aidomain.Provider]outbound.RecipeProvider
	images      outbound.ImageGenerator
	analyzer    outbound.ImageAnalyzer
	defaultKeys map[aidomain.Provider]string
	logger      *zap.Logger
}

// NewRegistry builds the Gemini, OpenAI and DeepSeek clients from cfg,
// sharing one traced HTTP client.
func NewRegistry(cfg *config.AIConfig, logger *zap.Logger) *Registry {
	return NewRegistryWithClient(cfg, aihttp.NewHTTPClient(cfg.Timeout), logger)
}

// NewRegistryWithClient is NewRegistry with a caller supplied HTTP client.
func NewRegistryWithClient(cfg *config.AIConfig, httpClient *http.Client, logger *zap.Logger) *Registry {
	g := gemini.NewClient(cfg.Gemini, cfg.ImageModel, cfg.VisionModel, httpClient, logger)

	r := &Registry{
		providers: map[aidomain.Provider]outbound.RecipeProvider{
			aidomain.ProviderGemini:   g,
			aidomain.ProviderOpenAI:   openai.NewClient(cfg.OpenAI, httpClient, logger),
			aidomain.ProviderDeepSeek: deepseek.NewClient(cfg.DeepSeek, httpClient, logger),
		},
		images:   g,
		analyzer: g,
		defaultKeys: map[aidomain.Provider]string{
			aidomain.ProviderGemini:   cfg.Gemini.APIKey,
			aidomain.ProviderOpenAI:   cfg.OpenAI.APIKey,
			aidomain.ProviderDeepSeek: cfg.DeepSeek.APIKey,
		},
		logger: logger.Named("ai-registry"),
	}

	r.logger.Info("AI providers registered",
		zap.Strings("with_default_key", r.configured()),
		zap.Duration("timeout", cfg.Timeout))

	return r
}

// Provider returns the client for p.
func (r *Registry) Provider(p aidomain.Provider) (outbound.RecipeProvider, bool) {
	client, ok := r.providers[p]
	return client, ok
}

// Providers lists the clients in menu order.
func (r *Registry) Providers() []outbound.RecipeProvider {
	out := make([]outbound.RecipeProvider, 0, len(r.providers))
	for _, p := range aidomain.Providers {
		if client, ok := r.providers[p]; ok {
			out = append(out, client)
		}
	}
	return out
}

// DefaultKeys returns a copy of the server-wide keys.
func (r *Registry) DefaultKeys() map[aidomain.Provider]string {
	out := make(map[aidomain.Provider]string, len(r.defaultKeys))
	for p, k := range r.defaultKeys {
		out[p] = k
	}
	return out
}

// Images returns the image generator.
func (r *Registry) Images() outbound.ImageGenerator {
	return r.images
}

// Analyzer returns the image analyzer.
func (r *Registry) Analyzer() outbound.ImageAnalyzer {
	return r.analyzer
}

func (r *Registry) configured() []string {
	var names []string
	for _, p := range aidomain.Providers {
		if r.defaultKeys[p] != "" {
			names = append(names, string(p))
		}
	}
	return names
}

// Check implements healthcheck.Checker. Vendors are not called since every
// call is billed; the check only reports which providers have a server key.
// Users can still bring their own key, so none configured is degraded.
func (r *Registry) Check(ctx context.Context) healthcheck.Check {
	start := time.Now()

	details := make(map[string]string, len(r.providers))
	for _, p := range aidomain.Providers {
		if r.defaultKeys[p] != "" {
			details[string(p)] = "server key configured"
		} else {
			details[string(p)] = "user key required"
		}
	}

	check := healthcheck.Check{
		Name:      "ai_providers",
		Status:    healthcheck.StatusHealthy,
		CheckedAt: start,
		Details:   details,
	}
	if n := len(r.configured()); n == 0 {
		check.Status = healthcheck.StatusDegraded
		check.Message = "no server-wide API keys configured"
	} else {
		check.Message = fmt.Sprintf("%d of %d providers have a server key", n, len(aidomain.Providers))
	}
	check.Duration = healthcheck.Millis(time.Since(start))
	return check
}
