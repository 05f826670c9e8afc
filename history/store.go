package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"multibagger/models"
	"multibagger/observability"
	"multibagger/repository"
)

// DefaultCapacity is the number of runs kept in the log
const DefaultCapacity = 50

// Store is the bounded log of completed analysis runs. The in-memory ring is
// authoritative; every change is mirrored to a durable key on a best-effort
// basis.
type Store struct {
	mu   sync.RWMutex
	ring *Ring
	kv   repository.KeyValueStore
	key  string
}

// NewStore creates an empty log persisted under key in kv
func NewStore(kv repository.KeyValueStore, key string, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		ring: NewRing(capacity),
		kv:   kv,
		key:  key,
	}
}

// Load replaces the in-memory log with the persisted one. Missing, unreadable
// or malformed content yields an empty log; nothing is returned to the caller
// beyond the entries.
func (s *Store) Load(ctx context.Context) []models.HistoryEntry {
	var entries []models.HistoryEntry

	data, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		observability.Debug("no persisted history", "key", s.key)
	case err != nil:
		observability.WithError(models.NewPersistenceFailure("load", err)).Warn("history load failed, starting empty", "key", s.key)
	default:
		entries = models.DecodeHistory(data)
	}

	if len(entries) > s.ring.Cap() {
		entries = entries[:s.ring.Cap()]
	}

	s.mu.Lock()
	s.ring.Reset()
	// persisted order is newest first, so push oldest first
	for i := len(entries) - 1; i >= 0; i-- {
		s.ring.Push(entries[i])
	}
	items := s.ring.Items()
	s.mu.Unlock()

	observability.GetMetrics().SetHistoryEntries(len(items))
	observability.Info("history loaded", "entries", len(items))
	return items
}

// Append records entry as the newest run and returns the updated log. The
// returned log reflects the append even when persistence fails.
func (s *Store) Append(ctx context.Context, entry models.HistoryEntry) []models.HistoryEntry {
	s.mu.Lock()
	if s.ring.Push(entry) {
		observability.Debug("history full, evicted oldest entry", "capacity", s.ring.Cap())
	}
	items := s.ring.Items()
	s.mu.Unlock()

	observability.GetMetrics().SetHistoryEntries(len(items))
	s.persist(ctx, items)
	return items
}

func (s *Store) persist(ctx context.Context, items []models.HistoryEntry) {
	data, err := json.Marshal(items)
	if err != nil {
		observability.WithError(models.NewPersistenceFailure("encode", err)).Warn("history not persisted")
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		observability.WithError(models.NewPersistenceFailure("save", err)).Warn("history not persisted", "key", s.key)
	}
}

// Entries returns the log newest first
func (s *Store) Entries() []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ring.Items()
}

// Len returns the number of runs in the log
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ring.Len()
}
