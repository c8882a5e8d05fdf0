// Package ai provides the application layer for recipe generation, dish
// photos and ingredient recognition.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// imageWorkers bounds concurrent photo generations for one request.
const imageWorkers = 3

var tracer = otel.Tracer("github.com/Aethermaxx/ChefCulina/internal/application/ai")

// Providers resolves vendor clients and the server-wide fallback keys.
type Providers interface {
	Provider(p ai.Provider) (outbound.RecipeProvider, bool)
	DefaultKeys() map[ai.Provider]string
	Images() outbound.ImageGenerator
	Analyzer() outbound.ImageAnalyzer
}

// ResponseCache stores provider answers by prompt.
type ResponseCache interface {
	Get(ctx context.Context, provider ai.Provider, prompt ai.Prompt) ([]recipe.Recipe, bool)
	Put(ctx context.Context, provider ai.Provider, prompt ai.Prompt, recipes []recipe.Recipe)
}

// Quota limits provider calls per user.
type Quota interface {
	Allow(ctx context.Context, key string) bool
}

// Metrics receives generation measurements.
type Metrics interface {
	AIRequest(provider, status string, duration time.Duration)
	AICacheLookup(hit bool)
	ImageGenerated(ok bool)
}

// Dependencies groups the collaborators of Service. Cache, Quota, Storage
// and Metrics are optional.
type Dependencies struct {
	Providers    Providers
	Settings     outbound.SettingsRepository
	Restrictions outbound.RestrictionRepository
	Cookbook     outbound.CookbookRepository
	Storage      outbound.StorageService
	Cache        ResponseCache
	Quota        Quota
	Metrics      Metrics
}

// Service implements inbound.GenerationService.
type Service struct {
	deps    Dependencies
	group   singleflight.Group
	flights *flights
	logger  *zap.Logger
}

var _ inbound.GenerationService = (*Service)(nil)

// NewService creates a generation service
func NewService(deps Dependencies, logger *zap.Logger) *Service {
	return &Service{
		deps:    deps,
		flights: newFlights(),
		logger:  logger.Named("generation-service"),
	}
}

// generation is the shared result of one provider call.
type generation struct {
	recipes []recipe.Recipe
	cached  bool
}

// GenerateRecipes builds the prompt for cmd, asks the user's provider and
// decorates the answer for display.
func (s *Service) GenerateRecipes(ctx context.Context, email string, cmd inbound.GenerateCommand) (*inbound.GenerationResult, error) {
	cmd.Request = cmd.Request.Normalize()
	if err := cmd.Request.Validate(); err != nil {
		return nil, apperrors.NewKeyedValidationError(err)
	}

	settings, err := s.settingsFor(ctx, email)
	if err != nil {
		return nil, err
	}

	provider := settings.Provider
	client, ok := s.deps.Providers.Provider(provider)
	if !ok {
		return nil, apperrors.NewInternalError("").WithMetadata("provider", string(provider))
	}
	apiKey := s.resolveKey(settings, provider)
	if apiKey == "" {
		return nil, apperrors.NewMissingAPIKeyError(provider.DisplayName())
	}

	stored, err := s.deps.Restrictions.Get(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load restrictions", err)
	}
	prompt := ai.BuildPrompt(cmd.Request.WithRestrictions(stored))

	caller := callerKey(email, cmd.Client)
	flightKey := caller + "\x00" + string(provider) + "\x00" + prompt.Fingerprint()
	if !s.flights.begin(caller, flightKey) {
		return nil, apperrors.NewGenerationInProgressError()
	}
	defer s.flights.end(caller)

	// The vendor call outlives a cancelled first caller so joined callers
	// still get the answer; the HTTP client timeout bounds it.
	v, err, shared := s.group.Do(flightKey, func() (interface{}, error) {
		return s.generate(context.WithoutCancel(ctx), caller, client, apiKey, prompt)
	})
	if err != nil {
		return nil, err
	}
	gen := v.(generation)

	s.logger.Info("Recipes generated",
		zap.String("provider", string(provider)),
		zap.Int("count", len(gen.recipes)),
		zap.Bool("cached", gen.cached),
		zap.Bool("shared", shared))

	return s.present(ctx, email, provider, gen, cmd)
}

func (s *Service) generate(ctx context.Context, caller string, client outbound.RecipeProvider, apiKey string, prompt ai.Prompt) (generation, error) {
	provider := client.Name()

	if s.deps.Cache != nil {
		cached, hit := s.deps.Cache.Get(ctx, provider, prompt)
		if s.deps.Metrics != nil {
			s.deps.Metrics.AICacheLookup(hit)
		}
		if hit {
			return generation{recipes: cached, cached: true}, nil
		}
	}

	if s.deps.Quota != nil && !s.deps.Quota.Allow(ctx, caller) {
		return generation{}, apperrors.NewTooManyRequestsError("Generation limit reached, try again later")
	}

	ctx, span := tracer.Start(ctx, "ai.generate")
	span.SetAttributes(
		attribute.String("ai.provider", string(provider)),
		attribute.Bool("ai.multiple", prompt.Multiple),
	)
	defer span.End()

	start := time.Now()
	recipes, err := client.Generate(ctx, apiKey, prompt)
	s.observe(provider, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperrors.UserMessage(err))
		s.logger.Warn("Provider call failed",
			zap.String("provider", string(provider)),
			zap.String("code", string(apperrors.GetCode(err))),
			zap.Error(err))
		return generation{}, wrapProviderError(provider, err)
	}
	if len(recipes) == 0 {
		return generation{}, apperrors.NewMalformedResponseError(provider.DisplayName(), errors.New("no recipes in response"))
	}

	if s.deps.Cache != nil {
		s.deps.Cache.Put(ctx, provider, prompt, recipes)
	}
	return generation{recipes: recipes}, nil
}

func (s *Service) observe(provider ai.Provider, err error, elapsed time.Duration) {
	if s.deps.Metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = string(apperrors.GetCode(err))
	}
	s.deps.Metrics.AIRequest(string(provider), status, elapsed)
}

// wrapProviderError keeps vendor AppErrors and turns anything else into a
// provider error so the client sees which vendor failed.
func wrapProviderError(provider ai.Provider, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewProviderError(provider.DisplayName(), apperrors.UnknownErrorMessage, err)
}

// present applies the difficulty filter and sort order, marks saved
// recipes and optionally attaches photos. The shared slice is not modified.
func (s *Service) present(ctx context.Context, email string, provider ai.Provider, gen generation, cmd inbound.GenerateCommand) (*inbound.GenerationResult, error) {
	saved, err := s.savedIDs(ctx, email)
	if err != nil {
		return nil, err
	}

	shown := recipe.FilterByDifficulty(gen.recipes, cmd.Difficulty)
	recipe.SortForDisplay(shown, saved, cmd.Sort)

	out := make([]inbound.GeneratedRecipe, len(shown))
	for i, r := range shown {
		out[i] = inbound.GeneratedRecipe{Recipe: r, ID: r.ID(), Saved: saved[r.ID()]}
	}

	if cmd.WithImages {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(imageWorkers)
		for i := range out {
			i := i
			g.Go(func() error {
				out[i].ImageURL = s.GenerateImage(gctx, email, out[i].Name, out[i].Description)
				return nil
			})
		}
		_ = g.Wait()
	}

	return &inbound.GenerationResult{
		Provider: provider,
		Recipes:  out,
		Total:    len(gen.recipes),
		Cached:   gen.cached,
	}, nil
}

func (s *Service) savedIDs(ctx context.Context, email string) (map[string]bool, error) {
	entries, err := s.deps.Cookbook.List(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load cookbook", err)
	}
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.ID] = true
	}
	return ids, nil
}

// callerKey identifies who a generation runs for. Anonymous clients all
// share the guest account, so they are told apart by client address.
func callerKey(email, client string) string {
	if email == user.GuestEmail && client != "" {
		return "guest:" + client
	}
	return email
}

// settingsFor loads the caller's settings. Guests always get the defaults
// and so can only use the server-wide keys.
func (s *Service) settingsFor(ctx context.Context, email string) (ai.Settings, error) {
	if email == user.GuestEmail {
		return ai.DefaultSettings(), nil
	}
	settings, err := s.deps.Settings.Get(ctx, email)
	if err != nil {
		return ai.Settings{}, apperrors.NewDatabaseError("load settings", err)
	}
	return settings.Normalize(), nil
}

func (s *Service) resolveKey(settings ai.Settings, provider ai.Provider) string {
	if key := settings.KeyFor(provider); key != "" {
		return key
	}
	return s.deps.Providers.DefaultKeys()[provider]
}

// imageKey resolves the Gemini key, which images and analysis always use.
func (s *Service) imageKey(ctx context.Context, email string) (string, error) {
	settings, err := s.settingsFor(ctx, email)
	if err != nil {
		return "", err
	}
	return s.resolveKey(settings, ai.ProviderGemini), nil
}

// GenerateImage returns a URL for a photo of the dish or "" when none could
// be produced.
func (s *Service) GenerateImage(ctx context.Context, email, recipeName, description string) string {
	key, err := s.imageKey(ctx, email)
	if err != nil || key == "" {
		return ""
	}

	ctx, span := tracer.Start(ctx, "ai.image")
	defer span.End()

	img, err := s.deps.Providers.Images().GenerateImage(ctx, key, ai.ImagePrompt(recipeName, description))
	if s.deps.Metrics != nil {
		s.deps.Metrics.ImageGenerated(err == nil)
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("Image generation failed", zap.String("recipe", recipeName), zap.Error(err))
		return ""
	}

	if s.deps.Storage == nil {
		return ai.DataURL("image/png", img)
	}

	url, err := s.deps.Storage.Upload(ctx, imageObjectKey(recipeName, img), img, "image/png")
	if err != nil {
		s.logger.Warn("Image upload failed, returning inline image", zap.String("recipe", recipeName), zap.Error(err))
		return ai.DataURL("image/png", img)
	}
	return url
}

// imageObjectKey is content addressed so regenerated photos never collide.
func imageObjectKey(recipeName string, img []byte) string {
	sum := sha256.Sum256(img)
	return "images/" + recipe.Slug(recipeName) + "-" + hex.EncodeToString(sum[:8]) + ".png"
}

// AnalyzeImage describes the food in a data URL image.
func (s *Service) AnalyzeImage(ctx context.Context, email, dataURL string) (string, error) {
	img, err := ai.ParseDataURL(dataURL)
	if err != nil {
		return "", apperrors.NewBadRequestError(ai.ErrInvalidImageFormat.Error())
	}

	key, err := s.imageKey(ctx, email)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", apperrors.NewMissingAPIKeyError(ai.ProviderGemini.DisplayName())
	}

	ctx, span := tracer.Start(ctx, "ai.analyze")
	defer span.End()

	text, err := s.deps.Providers.Analyzer().AnalyzeImage(ctx, key, img, ai.AnalyzePrompt)
	if err != nil {
		span.RecordError(err)
		return "", wrapProviderError(ai.ProviderGemini, err)
	}
	return text, nil
}
