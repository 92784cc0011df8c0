package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// PoolStateStore is an in-memory implementation of storage.PoolStateStore.
type PoolStateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolState // keyed by (token, venue, timestamp)
}

// NewPoolStateStore creates a new in-memory pool state store.
func NewPoolStateStore() *PoolStateStore {
	return &PoolStateStore{
		data: make(map[string]*domain.PoolState),
	}
}

// Compile-time interface check.
var _ storage.PoolStateStore = (*PoolStateStore)(nil)

func poolKey(token, venue string, tsMs int64) string {
	return fmt.Sprintf("%s|%s|%d", token, venue, tsMs)
}

// InsertBulk adds multiple snapshots atomically. Fails the entire batch
// on any duplicate.
func (s *PoolStateStore) InsertBulk(_ context.Context, states []*domain.PoolState) error {
	if len(states) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(states))
	for _, ps := range states {
		if ps == nil || ps.TokenAddress == "" || ps.Venue == "" {
			return storage.ErrInvalidInput
		}
		key := poolKey(ps.TokenAddress, ps.Venue, ps.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, ps := range states {
		copy := *ps
		s.data[poolKey(ps.TokenAddress, ps.Venue, ps.TimestampMs)] = &copy
	}
	return nil
}

// GetByToken retrieves all snapshots for a token, ordered by timestamp ASC.
func (s *PoolStateStore) GetByToken(_ context.Context, token string) ([]*domain.PoolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolState
	for _, ps := range s.data {
		if ps.TokenAddress == token {
			copy := *ps
			result = append(result, &copy)
		}
	}

	sortStates(result)
	return result, nil
}

// GetByTimeRange retrieves snapshots for a token within [start, end] (inclusive).
func (s *PoolStateStore) GetByTimeRange(_ context.Context, token string, start, end int64) ([]*domain.PoolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolState
	for _, ps := range s.data {
		if ps.TokenAddress == token && ps.TimestampMs >= start && ps.TimestampMs <= end {
			copy := *ps
			result = append(result, &copy)
		}
	}

	sortStates(result)
	return result, nil
}

func sortStates(states []*domain.PoolState) {
	sort.Slice(states, func(i, j int) bool {
		if states[i].TimestampMs != states[j].TimestampMs {
			return states[i].TimestampMs < states[j].TimestampMs
		}
		return states[i].Venue < states[j].Venue
	})
}
