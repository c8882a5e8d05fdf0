// Package monitoring provides Prometheus metrics and OpenTelemetry tracing.
package monitoring

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "chefculina"

// MetricsCollector handles Prometheus metrics collection. Each collector
// owns its registry so tests can build several.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Business metrics
	aiRequestsTotal    *prometheus.CounterVec
	aiRequestDuration  *prometheus.HistogramVec
	aiCacheLookups     *prometheus.CounterVec
	imagesTotal        *prometheus.CounterVec
	recipesSavedTotal  prometheus.Counter
	recipesRemoved     prometheus.Counter
	recipesCookedTotal prometheus.Counter
	usersRegistered    prometheus.Counter
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_requests_total",
				Help:      "Total number of recipe generation requests sent to AI providers",
			},
			[]string{"provider", "status"},
		),
		aiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_request_duration_seconds",
				Help:      "AI request duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
			},
			[]string{"provider"},
		),
		aiCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_cache_lookups_total",
				Help:      "AI response cache lookups",
			},
			[]string{"result"},
		),
		imagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_images_total",
				Help:      "Dish photo generations",
			},
			[]string{"status"},
		),
		recipesSavedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_saved_total",
			Help:      "Recipes saved to cookbooks",
		}),
		recipesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_removed_total",
			Help:      "Recipes removed from cookbooks",
		}),
		recipesCookedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_cooked_total",
			Help:      "Dishes marked as cooked",
		}),
		usersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Total number of users registered",
		}),
	}
}

// HTTPMiddleware records request count, latency and response size by chi
// route pattern.
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, route).Observe(float64(ww.BytesWritten()))
	})
}

// AIRequest records one provider call; status is "success" or an error code.
func (m *MetricsCollector) AIRequest(provider, status string, duration time.Duration) {
	m.aiRequestsTotal.WithLabelValues(provider, status).Inc()
	m.aiRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// AICacheLookup records a response cache hit or miss.
func (m *MetricsCollector) AICacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.aiCacheLookups.WithLabelValues(result).Inc()
}

// ImageGenerated records a dish photo attempt.
func (m *MetricsCollector) ImageGenerated(ok bool) {
	status := "failed"
	if ok {
		status = "success"
	}
	m.imagesTotal.WithLabelValues(status).Inc()
}

// UserRegistered counts a new account.
func (m *MetricsCollector) UserRegistered() {
	m.usersRegistered.Inc()
}

// RegisterEventHandlers counts cookbook events.
func (m *MetricsCollector) RegisterEventHandlers(d shared.EventDispatcher) {
	d.Register(recipe.RecipeSavedEvent{}.EventName(), func(e shared.DomainEvent) error {
		if saved, ok := e.(recipe.RecipeSavedEvent); ok && !saved.Overwritten {
			m.recipesSavedTotal.Inc()
		}
		return nil
	})
	d.Register(recipe.RecipeRemovedEvent{}.EventName(), func(shared.DomainEvent) error {
		m.recipesRemoved.Inc()
		return nil
	})
	d.Register(recipe.RecipeCookedEvent{}.EventName(), func(shared.DomainEvent) error {
		m.recipesCookedTotal.Inc()
		return nil
	})
}

// RegisterDB exports connection pool statistics.
func (m *MetricsCollector) RegisterDB(db *sql.DB, name string) {
	if err := m.registry.Register(collectors.NewDBStatsCollector(db, name)); err != nil {
		m.logger.Warn("Failed to register DB stats collector", zap.Error(err))
	}
}

// Registry exposes the underlying registry.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
