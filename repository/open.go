package repository

import (
	"context"
	"errors"
	"fmt"

	"multibagger/config"
	"multibagger/observability"
)

// Open builds the history backend selected by configuration, wrapped with
// metrics.
func Open(ctx context.Context, cfg *config.Config) (*InstrumentedStore, error) {
	var (
		store KeyValueStore
		err   error
	)

	switch cfg.History.Backend {
	case config.HistoryBackendFile:
		store, err = NewFileStore(cfg.History.DataDir)
	case config.HistoryBackendPostgres:
		store, err = NewPostgresStore(ctx, cfg.Database.URL)
	case config.HistoryBackendRedis:
		store, err = NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s history backend: %w", cfg.History.Backend, err)
	}

	observability.Info("history backend ready", "backend", cfg.History.Backend)
	return Instrument(cfg.History.Backend, store), nil
}

// InstrumentedStore records duration and errors of every operation
type InstrumentedStore struct {
	backend string
	next    KeyValueStore
}

// Instrument wraps store with storage metrics labelled by backend
func Instrument(backend string, store KeyValueStore) *InstrumentedStore {
	return &InstrumentedStore{backend: backend, next: store}
}

// Backend returns the backend label
func (s *InstrumentedStore) Backend() string {
	return s.backend
}

// Get reads through to the wrapped store. A missing key is not an error for
// metrics purposes.
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveStorage(s.backend, "get")

	v, err := s.next.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStorageError(s.backend, "get")
	}
	return v, err
}

// Set writes through to the wrapped store
func (s *InstrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveStorage(s.backend, "set")

	err := s.next.Set(ctx, key, value)
	if err != nil {
		metrics.RecordStorageError(s.backend, "set")
	}
	return err
}

// Close closes the wrapped store
func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
