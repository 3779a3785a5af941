package store

import (
	"context"
	"sync"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

// MemoryStore is a concurrency-safe in-memory history. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	history airquality.History

	// writes counts persisted appends; tests use it to prove no-op appends.
	writes int
}

// NewMemoryStore creates a MemoryStore seeded with an optional history.
func NewMemoryStore(seed ...airquality.Reading) *MemoryStore {
	return &MemoryStore{history: append(airquality.History(nil), seed...)}
}

// Load returns a copy of the stored history.
func (s *MemoryStore) Load(_ context.Context) (airquality.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(airquality.History{}, s.history...), nil
}

// Append appends r when both metrics are present and replaces the stored history.
func (s *MemoryStore) Append(_ context.Context, h airquality.History, r airquality.Reading) (airquality.History, error) {
	if !r.Complete() {
		return h, nil
	}
	updated := appendReading(h, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(airquality.History{}, updated...)
	s.writes++
	return updated, nil
}

// Writes returns how many appends reached storage.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
