package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadFromEnvironmentWithDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/tutoring")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/tutoring", cfg.DBDSN)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.CompletionInterval)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.IsProduction())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "env: production\n" +
		"db_dsn: postgres://file/db\n" +
		"jwt_secret: from-file\n" +
		"http_addr: \":9000\"\n" +
		"completion_interval: 90s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://file/db", cfg.DBDSN)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 90*time.Second, cfg.CompletionInterval)
}

func TestMissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/tutoring")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.NoError(t, err)
}

func TestRequiredKeys(t *testing.T) {
	clearEnv(t)

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestInvalidTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/tutoring")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEZONE")
}
