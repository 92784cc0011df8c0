package memory

import (
	"context"
	"sync"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// TokenMetadataStore is an in-memory implementation of storage.TokenMetadataStore.
type TokenMetadataStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenMetadata // keyed by token address
}

// NewTokenMetadataStore creates a new in-memory token metadata store.
func NewTokenMetadataStore() *TokenMetadataStore {
	return &TokenMetadataStore{
		data: make(map[string]*domain.TokenMetadata),
	}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Insert adds new metadata. Returns ErrDuplicateKey if exists.
func (s *TokenMetadataStore) Insert(_ context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.TokenAddress]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *m
	s.data[m.TokenAddress] = &copy
	return nil
}

// GetByToken retrieves metadata by token address. Returns ErrNotFound if
// not exists.
func (s *TokenMetadataStore) GetByToken(_ context.Context, token string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[token]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *m
	return &copy, nil
}
