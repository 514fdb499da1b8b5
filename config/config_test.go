package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: \"file::memory:\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 30*time.Second, cfg.Realtime.Keepalive)
	assert.Equal(t, "hostel:changes", cfg.Redis.Channel)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.False(t, cfg.Push.Enabled())
	assert.Equal(t, time.Hour, cfg.Audit.Interval)
	assert.False(t, cfg.Audit.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\ndatabase:\n  dsn: \"file::memory:\"\n")
	t.Setenv("HOSTEL_DATABASE_DSN", "postgres://override")
	t.Setenv("HOSTEL_SERVER_PORT", "9100")
	t.Setenv("HOSTEL_REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://override", cfg.Database.DSN)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
