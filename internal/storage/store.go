// Package storage provides the durable key/value layer the client keeps its
// credentials and shopping lists in. Backends: memory, a JSON file, Redis and
// a SQL table through GORM.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.New("storage: key not found")

// Store abstracts durable key/value state
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and configures a backend
type Config struct {
	Backend  string // memory, file, redis, sql
	FilePath string
	Prefix   string // redis key prefix
}

// Backend names
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
)

// Validate checks the backend name
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQL:
		return nil
	}
	return fmt.Errorf("unknown storage backend %q", c.Backend)
}
