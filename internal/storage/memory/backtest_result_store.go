package memory

import (
	"context"
	"sort"
	"sync"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// BacktestResultStore is an in-memory implementation of
// storage.BacktestResultStore.
type BacktestResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestResult // keyed by ID
}

// NewBacktestResultStore creates a new in-memory backtest result store.
func NewBacktestResultStore() *BacktestResultStore {
	return &BacktestResultStore{
		data: make(map[string]*domain.BacktestResult),
	}
}

// Compile-time interface check.
var _ storage.BacktestResultStore = (*BacktestResultStore)(nil)

// Insert adds a result. Returns ErrDuplicateKey if the ID exists. The
// trade list is not stored here; use TradeStore.
func (s *BacktestResultStore) Insert(_ context.Context, res *domain.BacktestResult) error {
	if res == nil || res.ID == "" || res.StrategyName == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[res.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[res.ID] = copyResult(res)
	return nil
}

// GetByID retrieves a result by ID. Returns ErrNotFound if not exists.
func (s *BacktestResultStore) GetByID(_ context.Context, id string) (*domain.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyResult(res), nil
}

// GetByStrategy retrieves all results for a strategy, ordered by
// created_at ASC.
func (s *BacktestResultStore) GetByStrategy(_ context.Context, strategyName string) ([]*domain.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BacktestResult
	for _, res := range s.data {
		if res.StrategyName == strategyName {
			result = append(result, copyResult(res))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs < result[j].CreatedAtMs
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// copyResult deep-copies the stored fields. Trades are deliberately
// dropped: they live in TradeStore.
func copyResult(res *domain.BacktestResult) *domain.BacktestResult {
	copy := *res
	copy.Trades = nil
	if res.Metrics != nil {
		m := *res.Metrics
		if res.Metrics.SharpeRatio != nil {
			v := *res.Metrics.SharpeRatio
			m.SharpeRatio = &v
		}
		if res.Metrics.ProfitFactor != nil {
			v := *res.Metrics.ProfitFactor
			m.ProfitFactor = &v
		}
		copy.Metrics = &m
	}
	if res.ErrorMessage != nil {
		v := *res.ErrorMessage
		copy.ErrorMessage = &v
	}
	copy.TokenErrors = append([]string(nil), res.TokenErrors...)
	return &copy
}
