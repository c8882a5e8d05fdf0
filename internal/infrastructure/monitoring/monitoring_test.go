package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/shared"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/cookbook/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cookbook/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/cookbook/{id}", "404")))
}

func TestAIMetrics(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.AIRequest("gemini", "success", 2*time.Second)
	m.AIRequest("gemini", "PROVIDER_ERROR", time.Second)
	m.AICacheLookup(true)
	m.AICacheLookup(false)
	m.AICacheLookup(false)
	m.ImageGenerated(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.aiRequestsTotal.WithLabelValues("gemini", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.aiCacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imagesTotal.WithLabelValues("failed")))
}

func TestRegisterEventHandlers(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	d := shared.NewSyncDispatcher()
	m.RegisterEventHandlers(d)

	require.NoError(t, d.Dispatch(recipe.RecipeSavedEvent{RecipeID: "a"}))
	require.NoError(t, d.Dispatch(recipe.RecipeSavedEvent{RecipeID: "a", Overwritten: true}))
	require.NoError(t, d.Dispatch(recipe.RecipeCookedEvent{RecipeID: "a"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recipesSavedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recipesCookedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.recipesRemoved))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	m.UserRegistered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "chefculina_users_registered_total 1"))
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(&config.AppConfig{Name: "ChefCulina"}, &config.MonitoringConfig{}, zap.NewNop())
	require.NoError(t, err)

	ctx, span := otel.Tracer("test").Start(context.Background(), "ai.generate")
	span.End()

	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions("collector:4318"), 2)
	assert.Len(t, exporterOptions("http://collector:4318"), 2)
	assert.Len(t, exporterOptions("https://collector.example.com"), 1)
}
