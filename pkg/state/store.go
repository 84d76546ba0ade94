// Package state stores registration answers. Backends are in-memory,
// SQLite and an embedded NATS JetStream key-value bucket.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common store errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("store is closed")
	ErrInvalidData = errors.New("invalid data format")
	ErrInvalidKey  = errors.New("invalid key")
	ErrUnknownKind = errors.New("unknown store backend")
)

// Store is the interface for byte-level storage backends.
// Implementations are safe for concurrent use.
type Store interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with optional TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns all keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error

	// Close closes the store.
	Close() error
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendNATS   = "nats"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	SQLitePath string

	NATSDir    string
	NATSBucket string

	// TTL bounds how long answers are kept. Zero keeps them forever.
	TTL time.Duration
}

// Open creates the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case BackendNATS:
		return OpenNATS(ctx, cfg.NATSDir, cfg.NATSBucket, cfg.TTL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Backend)
	}
}
