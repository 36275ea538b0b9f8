package interrupt

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get returns the record for rootPlanID.
func (s *MemoryStore) Get(_ context.Context, rootPlanID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[rootPlanID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Put stores rec.
func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	if rec.RootPlanID == "" {
		return ErrInvalidPlanID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.RootPlanID] = rec
	return nil
}

// Delete removes the record for rootPlanID.
func (s *MemoryStore) Delete(_ context.Context, rootPlanID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, rootPlanID)
	return nil
}

// Len returns the number of tracked tasks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
