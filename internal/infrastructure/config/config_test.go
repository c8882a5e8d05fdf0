package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: ChefCulina\n"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "chefculina.db", cfg.GetDSN())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.OpenAI.Model)
	assert.Equal(t, "https://api.deepseek.com", cfg.AI.DeepSeek.BaseURL)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Gemini.Model)
	assert.Equal(t, "inline", cfg.Storage.Provider)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CHEFCULINA_SERVER_PORT", "9191")
	t.Setenv("CHEFCULINA_AI_OPENAI_API_KEY", "sk-env")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8081\n"))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "sk-env", cfg.AI.OpenAI.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"BadDriver", "database:\n  driver: mysql\n", "database.driver"},
		{"ProductionNeedsSecret", "app:\n  environment: production\n", "auth.jwt_secret"},
		{"S3NeedsBucket", "storage:\n  provider: s3\n", "storage.s3_bucket"},
		{"BadPort", "server:\n  port: 70000\n", "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadAndWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "app:\n  log_level: info\n")

	changed := make(chan *Config, 1)
	cfg, w, err := LoadAndWatch(path, zap.NewNop(), func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, path, w.File())

	require.NoError(t, os.WriteFile(path, []byte("app:\n  log_level: debug\n"), 0o600))

	select {
	case next := <-changed:
		assert.Equal(t, "debug", next.App.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}
