package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written
var ErrNotFound = errors.New("key not found")

// KeyValueStore is a durable home for small JSON documents, one per key
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Compile-time interface verification
var (
	_ KeyValueStore = (*FileStore)(nil)
	_ KeyValueStore = (*PostgresStore)(nil)
	_ KeyValueStore = (*RedisStore)(nil)
	_ KeyValueStore = (*MemoryStore)(nil)
	_ KeyValueStore = (*InstrumentedStore)(nil)
)
