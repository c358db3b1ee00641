package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// runStoreContract exercises the behaviour every backend must share
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "app_TOKEN", []byte("abc")))
	v, err := s.Get(ctx, "app_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))

	require.NoError(t, s.Set(ctx, "app_TOKEN", []byte("def")))
	v, err = s.Get(ctx, "app_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "def", string(v))

	ok, err = s.Exists(ctx, "app_TOKEN")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "app_TOKEN"))
	_, err = s.Get(ctx, "app_TOKEN")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting an absent key is not an error
	require.NoError(t, s.Delete(ctx, "app_TOKEN"))
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	ctx := context.Background()

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "app_CSRF", []byte("csrf-1")))

	second, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := second.Get(ctx, "app_CSRF")
	require.NoError(t, err)
	assert.Equal(t, "csrf-1", string(v))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGormStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := NewGormStore(db)
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	runStoreContract(t, NewRedisStore(client, "storefront-test:"))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{Backend: BackendFile}.Validate())
	assert.Error(t, Config{Backend: "etcd"}.Validate())
}
