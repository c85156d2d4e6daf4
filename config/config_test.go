package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("JWT_SECRET", "unit-test-secret-unit-test-secret")
	t.Setenv("STORAGE_ENDPOINT", "http://localhost:9000")
	t.Setenv("STORAGE_ACCESS_KEY", "minio")
	t.Setenv("STORAGE_SECRET_KEY", "minio123")
	t.Setenv("STORAGE_BUCKET", "taskhub-exports")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "http://localhost:9000/taskhub-exports")
}

func TestNewConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.ServerAddr())
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	require.Equal(t, 168*time.Hour, cfg.JWT.RefreshTTL)
	require.Equal(t, "db/migrations", cfg.Postgres.MigrationsDir)
	require.Equal(t, 4, cfg.Worker.Count)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, "*", cfg.CORS.AllowOrigins)
}

func TestNewConfigEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("RATELIMIT_ENABLED", "false")
	t.Setenv("POSTGRES_DB_NAME", "taskhub_test")
	t.Setenv("JWT_ACCESS_TTL", "5m")

	cfg, err := NewConfig()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 8, cfg.Worker.Count)
	require.False(t, cfg.RateLimit.Enabled)
	require.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	require.Contains(t, cfg.Postgres.DSN(), "dbname=taskhub_test")
}

func TestNewConfigRejectsShortSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "short")

	_, err := NewConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "jwt.secret")
}

func TestNewConfigRejectsMissingStorage(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_BUCKET", "")

	_, err := NewConfig()
	require.Error(t, err)
}

func TestNewConfigRejectsLoneBootstrapKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "root@example.com")

	_, err := NewConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "bootstrap")
}
