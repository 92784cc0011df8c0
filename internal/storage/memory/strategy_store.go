package memory

import (
	"context"
	"sort"
	"sync"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyRecord // keyed by name
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{
		data: make(map[string]*domain.StrategyRecord),
	}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Insert adds a strategy document. Returns ErrDuplicateKey if the name exists.
func (s *StrategyStore) Insert(_ context.Context, rec *domain.StrategyRecord) error {
	if rec == nil || rec.Name == "" || rec.Document == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.Name]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *rec
	s.data[rec.Name] = &copy
	return nil
}

// GetByName retrieves a strategy by name. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByName(_ context.Context, name string) (*domain.StrategyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[name]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *rec
	return &copy, nil
}

// List retrieves all strategies ordered by name ASC.
func (s *StrategyStore) List(_ context.Context) ([]*domain.StrategyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StrategyRecord, 0, len(s.data))
	for _, rec := range s.data {
		copy := *rec
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}
