package postgres

import (
	"context"
	"fmt"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Insert adds new metadata. Returns ErrDuplicateKey if token_address exists.
func (s *TokenMetadataStore) Insert(ctx context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_metadata (
			token_address, name, symbol, decimals, created_at_ms,
			first_pool_created_ms, total_supply
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		m.TokenAddress,
		m.Name,
		m.Symbol,
		m.Decimals,
		m.CreatedAtMs,
		m.FirstPoolCreatedMs,
		m.TotalSupply,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token metadata: %w", err)
	}
	return nil
}

// GetByToken retrieves metadata by token address. Returns ErrNotFound if
// not exists.
func (s *TokenMetadataStore) GetByToken(ctx context.Context, token string) (*domain.TokenMetadata, error) {
	query := `
		SELECT token_address, name, symbol, decimals, created_at_ms,
		       first_pool_created_ms, total_supply
		FROM token_metadata
		WHERE token_address = $1
	`

	var m domain.TokenMetadata
	err := s.pool.QueryRow(ctx, query, token).Scan(
		&m.TokenAddress,
		&m.Name,
		&m.Symbol,
		&m.Decimals,
		&m.CreatedAtMs,
		&m.FirstPoolCreatedMs,
		&m.TotalSupply,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token metadata: %w", err)
	}
	return &m, nil
}
