// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"testing"

	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	gormRepo "github.com/Aethermaxx/ChefCulina/internal/infrastructure/persistence/gorm"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/security"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestEncryptionKey protects API keys in test databases.
const TestEncryptionKey = "testutils-encryption-key"

// Repositories groups the GORM repositories over one database.
type Repositories struct {
	DB           *gorm.DB
	Users        *gormRepo.UserRepository
	Cookbook     *gormRepo.CookbookRepository
	Restrictions *gormRepo.RestrictionRepository
	Settings     *gormRepo.SettingsRepository
}

// SQLiteConfig returns a config for a private in-memory database.
func SQLiteConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			Database:    ":memory:",
			LogLevel:    "silent",
			AutoMigrate: true,
		},
	}
}

// SetupTestDatabase opens a migrated in-memory SQLite database that is
// closed when the test ends.
func SetupTestDatabase(t testing.TB) *gorm.DB {
	t.Helper()
	return OpenDatabase(t, SQLiteConfig())
}

// OpenDatabase opens and migrates the database described by cfg.
func OpenDatabase(t testing.TB, cfg *config.Config) *gorm.DB {
	t.Helper()

	db, err := gormRepo.NewDatabase(cfg, zap.NewNop())
	require.NoError(t, err, "Failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// NewRepositories builds every repository on db.
func NewRepositories(t testing.TB, db *gorm.DB) *Repositories {
	t.Helper()

	cipher, err := security.NewEncryptionService(TestEncryptionKey)
	require.NoError(t, err)

	return &Repositories{
		DB:           db,
		Users:        gormRepo.NewUserRepository(db),
		Cookbook:     gormRepo.NewCookbookRepository(db),
		Restrictions: gormRepo.NewRestrictionRepository(db),
		Settings:     gormRepo.NewSettingsRepository(db, cipher, zap.NewNop()),
	}
}
