package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs Load from an empty directory with no STOREFRONT_ variables
func isolate(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "STOREFRONT_") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "STOREFRONT", cfg.App.Name)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.FilePath)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, 5, cfg.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.OpenTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 10, cfg.Sandbox.PageSize)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("STOREFRONT_API_BASE_URL", "http://shop.test")
	t.Setenv("STOREFRONT_API_TIMEOUT", "2s")
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "memory")
	t.Setenv("STOREFRONT_CACHE_ENABLED", "false")
	t.Setenv("STOREFRONT_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STOREFRONT_SANDBOX_PAGE_SIZE", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://shop.test", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Sandbox.PageSize)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "storefront.toml")
	content := `
[app]
name = "SHOP"

[storage]
backend = "redis"

[kafka]
brokers = ["localhost:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "SHOP", cfg.App.Name)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	isolate(t)
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "floppy")

	_, err := Load("")
	assert.Error(t, err)
}
