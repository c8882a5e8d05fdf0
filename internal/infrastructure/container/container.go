// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"errors"
	"time"

	appai "github.com/Aethermaxx/ChefCulina/internal/application/ai"
	"github.com/Aethermaxx/ChefCulina/internal/application/cookbook"
	appuser "github.com/Aethermaxx/ChefCulina/internal/application/user"
	"github.com/Aethermaxx/ChefCulina/internal/domain/shared"
	aiinfra "github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/cache"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/handlers"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/server"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/monitoring"
	gormRepo "github.com/Aethermaxx/ChefCulina/internal/infrastructure/persistence/gorm"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/persistence/memory"
	redisRepo "github.com/Aethermaxx/ChefCulina/internal/infrastructure/persistence/redis"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/security"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/storage"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"github.com/Aethermaxx/ChefCulina/pkg/healthcheck"
	"github.com/Aethermaxx/ChefCulina/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Development fallbacks. Config validation refuses empty secrets in
// production, so these only ever protect local data.
const (
	devJWTSecret     = "chefculina-development-jwt-secret"
	devEncryptionKey = "chefculina-development-encryption-key"
)

// ConfigPath is the config file passed on the command line; empty searches
// the default locations.
type ConfigPath string

// Core provides configuration, logging, the database and the cookbook use
// cases. The CLI runs on Core alone.
func Core(path string) fx.Option {
	return fx.Options(
		fx.Supply(ConfigPath(path)),
		ConfigModule,
		LoggerModule,
		DatabaseModule,
		RepositoryModule,
		EventModule,
		fx.Provide(
			fx.Annotate(cookbook.NewCookbookService, fx.As(new(inbound.CookbookService))),
		),
	)
}

// Module provides the whole API server.
func Module(path string) fx.Option {
	return fx.Options(
		Core(path),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		CacheModule,
		SecurityModule,
		MonitoringModule,
		AIModule,
		ServiceModule,
		HTTPModule,
		LifecycleModule,
	)
}

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging. The level is atomic so config reloads can
// change it.
var LoggerModule = fx.Options(
	fx.Provide(
		func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
			return logger.NewWithLevel(logger.Config{
				Level:       cfg.App.LogLevel,
				Format:      cfg.App.LogFormat,
				Development: cfg.App.Debug,
			})
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
		lc.Append(fx.StopHook(func() {
			_ = log.Sync()
		}))
	}),
)

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		db, err := gormRepo.NewDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}))
		return db, nil
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(gormRepo.NewUserRepository, fx.As(new(outbound.UserRepository))),
	gormRepo.NewCookbookRepository,
	func(r *gormRepo.CookbookRepository) outbound.CookbookRepository { return r },
	func(r *gormRepo.CookbookRepository) outbound.StatsRepository { return r },
	fx.Annotate(gormRepo.NewRestrictionRepository, fx.As(new(outbound.RestrictionRepository))),
	fx.Annotate(gormRepo.NewSettingsRepository, fx.As(new(outbound.SettingsRepository))),
)

// EventModule provides the domain event dispatcher
var EventModule = fx.Provide(
	fx.Annotate(shared.NewSyncDispatcher, fx.As(new(shared.EventDispatcher))),
)

// CacheModule provides Redis when enabled and the in-memory cache otherwise.
// The Redis client is nil when Redis is disabled.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, redis.UniversalClient, error) {
		if !cfg.Redis.Enabled {
			log.Info("Using in-memory cache")
			mem := memory.NewCacheRepository(cfg.RateLimit.CleanupInterval)
			lc.Append(fx.StopHook(mem.Close))
			return mem, nil, nil
		}

		client, err := cache.NewRedisClient(&cfg.Redis, log)
		if err != nil {
			return nil, nil, err
		}
		lc.Append(fx.StopHook(client.Close))
		return redisRepo.NewCacheRepository(client, "chefculina:", log), client, nil
	},
)

// SecurityModule provides tokens, secret encryption and rate limiters.
var SecurityModule = fx.Provide(
	func(cfg *config.Config, cacheRepo outbound.CacheRepository, log *zap.Logger) (*security.TokenService, error) {
		auth := cfg.Auth
		if auth.JWTSecret == "" {
			log.Warn("auth.jwt_secret is not set, using the development secret")
			auth.JWTSecret = devJWTSecret
		}
		return security.NewTokenService(&auth, cacheRepo, log)
	},
	func(cfg *config.Config, log *zap.Logger) (outbound.SecretCipher, error) {
		return security.NewEncryptionService(encryptionKey(cfg, log))
	},
	func(lc fx.Lifecycle, cfg *config.Config) *security.KeyedLimiter {
		if !cfg.RateLimit.Enable {
			return nil
		}
		limiter := security.NewKeyedLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
		lc.Append(fx.StopHook(limiter.Close))
		return limiter
	},
	func(cfg *config.Config, cacheRepo outbound.CacheRepository, log *zap.Logger) appai.Quota {
		return security.NewQuotaLimiter(cacheRepo, "generations", cfg.RateLimit.GenerationsPerHour, time.Hour, log.Named("quota"))
	},
)

// encryptionKey falls back to the JWT secret so a deployment that only set
// one secret still encrypts stored API keys.
func encryptionKey(cfg *config.Config, log *zap.Logger) string {
	switch {
	case cfg.Auth.EncryptionKey != "":
		return cfg.Auth.EncryptionKey
	case cfg.Auth.JWTSecret != "":
		log.Warn("auth.encryption_key is not set, deriving it from auth.jwt_secret")
		return cfg.Auth.JWTSecret
	default:
		log.Warn("auth.encryption_key is not set, using the development key")
		return devEncryptionKey
	}
}

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Options(
	fx.Provide(
		monitoring.NewMetricsCollector,
		func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
			tp, err := monitoring.NewTracingProvider(&cfg.App, &cfg.Monitoring, log)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.StopHook(tp.Shutdown))
			return tp, nil
		},
	),
	fx.Invoke(func(*monitoring.TracingProvider) {}),
	fx.Invoke(func(m *monitoring.MetricsCollector, db *gorm.DB, events shared.EventDispatcher, log *zap.Logger) {
		m.RegisterEventHandlers(events)
		if sqlDB, err := db.DB(); err == nil {
			m.RegisterDB(sqlDB, "chefculina")
		} else {
			log.Warn("Database pool metrics unavailable", zap.Error(err))
		}
	}),
)

// AIModule provides the vendor registry, image storage and response cache
var AIModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *aiinfra.Registry {
		return aiinfra.NewRegistry(&cfg.AI, log)
	},
	func(cfg *config.Config, log *zap.Logger) (outbound.StorageService, error) {
		return storage.New(&cfg.Storage, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		cfg *config.Config,
		registry *aiinfra.Registry,
		settings outbound.SettingsRepository,
		restrictions outbound.RestrictionRepository,
		book outbound.CookbookRepository,
		store outbound.StorageService,
		cacheRepo outbound.CacheRepository,
		quota appai.Quota,
		metrics *monitoring.MetricsCollector,
		log *zap.Logger,
	) inbound.GenerationService {
		deps := appai.Dependencies{
			Providers:    registry,
			Settings:     settings,
			Restrictions: restrictions,
			Cookbook:     book,
			Storage:      store,
			Quota:        quota,
			Metrics:      metrics,
		}
		if cfg.AI.EnableCache {
			deps.Cache = cache.NewRecipeCache(cacheRepo, cfg.AI.CacheTTL, log)
		}
		return appai.NewService(deps, log)
	},
	func(users outbound.UserRepository, tokens *security.TokenService, metrics *monitoring.MetricsCollector, log *zap.Logger) *appuser.AuthService {
		return appuser.NewAuthService(users, tokens, metrics, log)
	},
	fx.Annotate(appuser.NewProfileService, fx.As(new(inbound.ProfileService))),
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(
		auth *appuser.AuthService,
		profile inbound.ProfileService,
		book inbound.CookbookService,
		generation inbound.GenerationService,
		cfg *config.Config,
		log *zap.Logger,
	) *handlers.APIHandlers {
		return handlers.NewAPIHandlers(handlers.Services{
			Auth:       auth,
			Profile:    profile,
			Cookbook:   book,
			Generation: generation,
		}, cfg.Server.PublicURL, log)
	},
	NewHealthCheck,
	func(
		cfg *config.Config,
		log *zap.Logger,
		h *handlers.APIHandlers,
		auth *appuser.AuthService,
		metrics *monitoring.MetricsCollector,
		health *healthcheck.HealthCheck,
		limiter *security.KeyedLimiter,
	) *server.Server {
		opts := server.Options{Health: health, Limiter: limiter}
		if cfg.Monitoring.EnableMetrics {
			opts.Metrics = metrics
		}
		return server.NewServer(cfg, log, h, auth, opts)
	},
)

// NewHealthCheck registers the database, Redis and AI provider checks. The
// provider check never calls a vendor.
func NewHealthCheck(cfg *config.Config, db *gorm.DB, client redis.UniversalClient, registry *aiinfra.Registry, log *zap.Logger) (*healthcheck.HealthCheck, error) {
	health := healthcheck.New(cfg.App.Version, log)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	if client != nil {
		health.Register("redis", healthcheck.NewRedisChecker(client))
	}
	health.Register("ai_providers", registry)

	return health, nil
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
	WatchConfig,
)

// RegisterLifecycleHooks starts the HTTP server and drains it on shutdown.
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting ChefCulina",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("addr", cfg.ListenAddr()),
			)

			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down ChefCulina")

			if cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
			}
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
				return err
			}
			return nil
		},
	})
}

// WatchConfig applies log level changes from the config file without a
// restart. Other settings need a restart.
func WatchConfig(path ConfigPath, level zap.AtomicLevel, log *zap.Logger) error {
	_, watcher, err := config.LoadAndWatch(string(path), log, func(next *config.Config) {
		newLevel := logger.ParseLevel(next.App.LogLevel)
		if newLevel != level.Level() {
			level.SetLevel(newLevel)
			log.Info("Log level changed", zap.String("level", newLevel.String()))
		}
	})
	if err != nil {
		return err
	}
	if file := watcher.File(); file != "" {
		log.Debug("Watching configuration", zap.String("file", file))
	}
	return nil
}
