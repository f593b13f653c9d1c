package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Entry is the counter for one (scope, identifier) pair.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store holds entries. Implementations must never let Sweep remove an entry
// whose ResetAt is not yet in the past.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Admitter is implemented by stores that check and count in one atomic
// step. The Limiter skips its own lock for them. The returned entry holds
// the count after this request.
type Admitter interface {
	AdmitEntry(ctx context.Context, key string, now time.Time, cfg Config) (Entry, bool, error)
}

// MemoryStore is the default single-process store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, e := range s.entries {
		if now.After(e.ResetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
