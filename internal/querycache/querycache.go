// Package querycache caches GET responses under hierarchical keys so a
// mutation can drop every cached page of a resource at once.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Cache stores raw response bodies
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Config holds cache configuration
type Config struct {
	Enabled    bool
	Backend    string        // memory or redis
	DefaultTTL time.Duration // Default cache TTL
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Backend:    "memory",
		DefaultTTL: 5 * time.Minute,
	}
}

// Key builds a cache key: the resource scope stays readable for prefix
// invalidation, the request identity is hashed.
func Key(scope, method, path, rawQuery, authorization string) string {
	keyComponents := fmt.Sprintf("%s:%s:%s:%s", method, path, rawQuery, authorization)
	hash := sha256.Sum256([]byte(keyComponents))
	return fmt.Sprintf("%s:%s", strings.Trim(scope, ":"), hex.EncodeToString(hash[:]))
}

// Nop is a cache that never hits
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)     { return nil, false }
func (Nop) Set(context.Context, string, []byte)            {}
func (Nop) InvalidatePrefix(context.Context, string) error { return nil }
