//go:build integration

package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// PostgresConfig holds test database configuration
type PostgresConfig struct {
	Image    string
	Database string
	Username string
	Password string
}

// DefaultPostgresConfig returns the default test database configuration
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Image:    "postgres:15-alpine",
		Database: "chefculina_test",
		Username: "test_user",
		Password: "test_password",
	}
}

// SetupPostgres starts a throwaway Postgres container and returns a
// migrated connection to it.
func SetupPostgres(t testing.TB) *gorm.DB {
	t.Helper()
	pg := DefaultPostgresConfig()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pg.Image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       pg.Database,
				"POSTGRES_USER":     pg.Username,
				"POSTGRES_PASSWORD": pg.Password,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return OpenDatabase(t, &config.Config{
		Database: config.DatabaseConfig{
			Driver:       "postgres",
			Host:         host,
			Port:         port.Int(),
			Database:     pg.Database,
			Username:     pg.Username,
			Password:     pg.Password,
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
			LogLevel:     "silent",
			AutoMigrate:  true,
		},
	})
}
