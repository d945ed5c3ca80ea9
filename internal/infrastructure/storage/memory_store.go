package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

// MemoryStore keeps snapshots in process memory. It backs tests and runs
// without a configured database.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*progress.Record
}

var _ ports.ProgressStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]*progress.Record{}}
}

// Create stores the snapshot under a generated record id.
func (s *MemoryStore) Create(_ context.Context, entityID, operationType string, snapshot *progress.Record) (string, error) {
	if snapshot == nil {
		return "", fmt.Errorf("nil snapshot for entity %s", entityID)
	}

	recordID := uuid.NewString()
	s.mu.Lock()
	s.records[recordID] = snapshot.Clone()
	s.mu.Unlock()
	return recordID, nil
}

// Load returns a copy of the stored snapshot; (nil, nil) when absent.
func (s *MemoryStore) Load(_ context.Context, recordID string) (*progress.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordID]
	if !ok {
		return nil, nil
	}
	return record.Clone(), nil
}

// Save replaces the stored snapshot. Last write wins.
func (s *MemoryStore) Save(_ context.Context, recordID string, snapshot *progress.Record) error {
	if snapshot == nil {
		return fmt.Errorf("nil snapshot for record %s", recordID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[recordID]; !ok {
		return fmt.Errorf("record %s does not exist", recordID)
	}
	s.records[recordID] = snapshot.Clone()
	return nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[recordID]; !ok {
		return fmt.Errorf("record %s does not exist", recordID)
	}
	delete(s.records, recordID)
	return nil
}
