package store

import (
	"context"
	"fmt"
	"sync"

	"dcflab/pkg/core/simulation"
)

// MemoryStore keeps settings and run history in process memory. It backs
// tests and runs that have no database configured.
type MemoryStore struct {
	mu       sync.RWMutex
	settings *simulation.Settings
	runs     []*RunRecord // append order, oldest first
	byID     map[string]*RunRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*RunRecord)}
}

// GetSettings returns a copy of the stored settings, nil when none saved
func (s *MemoryStore) GetSettings(ctx context.Context) (*simulation.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, nil
	}
	copied := *s.settings
	return &copied, nil
}

// SaveSettings replaces the stored settings
func (s *MemoryStore) SaveSettings(ctx context.Context, settings simulation.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	return nil
}

// SaveRun stores a run; ids must be unique
func (s *MemoryStore) SaveRun(ctx context.Context, rec *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return fmt.Errorf("run record has no id")
	}
	if _, exists := s.byID[rec.ID]; exists {
		return fmt.Errorf("run '%s' already exists", rec.ID)
	}
	s.byID[rec.ID] = rec
	s.runs = append(s.runs, rec)
	return nil
}

// GetRun retrieves a run by id
func (s *MemoryStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("run '%s' not found", id)
	}
	return rec, nil
}

// ListRuns returns the newest runs first, optionally filtered by ticker
func (s *MemoryStore) ListRuns(ctx context.Context, ticker string, limit int) ([]*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = normalizeLimit(limit)

	var results []*RunRecord
	for i := len(s.runs) - 1; i >= 0 && len(results) < limit; i-- {
		if ticker != "" && s.runs[i].Ticker != ticker {
			continue
		}
		results = append(results, s.runs[i])
	}
	return results, nil
}
