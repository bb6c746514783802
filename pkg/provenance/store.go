package provenance

import (
	"context"
	"sort"
	"sync"
)

// Store persists provenance records grouped by pipeline run.
type Store interface {
	// Append adds records to a run's provenance list. Records are never
	// edited after the fact.
	Append(ctx context.Context, runID string, records []Record) error

	// List returns a run's records in append order.
	List(ctx context.Context, runID string) ([]Record, error)
}

// MemoryStore is an in-memory Store. It is the default for library and CLI
// use; runs that need durable audit use the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, runID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[runID] = append(s.records[runID], records...)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records[runID]))
	copy(out, s.records[runID])
	return out, nil
}

// RunIDs returns the known run IDs, sorted.
func (s *MemoryStore) RunIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
