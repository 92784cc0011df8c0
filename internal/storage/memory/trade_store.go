package memory

import (
	"context"
	"sort"
	"sync"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ClosedTrade // keyed by backtest ID
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string][]*domain.ClosedTrade),
	}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds a backtest's trades atomically. Returns
// ErrDuplicateKey if trades were already stored for the backtest.
func (s *TradeStore) InsertBulk(_ context.Context, backtestID string, trades []*domain.ClosedTrade) error {
	if backtestID == "" {
		return storage.ErrInvalidInput
	}
	for _, tr := range trades {
		if tr == nil || tr.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[backtestID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := make([]*domain.ClosedTrade, len(trades))
	for i, tr := range trades {
		copy := *tr
		stored[i] = &copy
	}
	s.data[backtestID] = stored
	return nil
}

// GetByBacktestID retrieves all trades of a backtest, ordered by exit
// time ASC.
func (s *TradeStore) GetByBacktestID(_ context.Context, backtestID string) ([]*domain.ClosedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.data[backtestID]
	if !exists {
		return nil, nil
	}

	result := make([]*domain.ClosedTrade, len(stored))
	for i, tr := range stored {
		copy := *tr
		result[i] = &copy
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ExitTimeMs < result[j].ExitTimeMs
	})
	return result, nil
}
