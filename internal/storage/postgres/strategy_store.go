package postgres

import (
	"context"
	"fmt"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
type StrategyStore struct {
	pool *Pool
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Insert adds a strategy document. Returns ErrDuplicateKey if the name
// exists.
func (s *StrategyStore) Insert(ctx context.Context, rec *domain.StrategyRecord) error {
	if rec == nil || rec.Name == "" || rec.Document == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO strategies (name, description, format, document, created_at_ms)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.Name,
		rec.Description,
		rec.Format,
		rec.Document,
		rec.CreatedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// GetByName retrieves a strategy by name. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByName(ctx context.Context, name string) (*domain.StrategyRecord, error) {
	query := `
		SELECT name, description, format, document, created_at_ms
		FROM strategies
		WHERE name = $1
	`

	var rec domain.StrategyRecord
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&rec.Name,
		&rec.Description,
		&rec.Format,
		&rec.Document,
		&rec.CreatedAtMs,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy: %w", err)
	}
	return &rec, nil
}

// List retrieves all strategies ordered by name ASC.
func (s *StrategyStore) List(ctx context.Context) ([]*domain.StrategyRecord, error) {
	query := `
		SELECT name, description, format, document, created_at_ms
		FROM strategies
		ORDER BY name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var result []*domain.StrategyRecord
	for rows.Next() {
		var rec domain.StrategyRecord
		if err := rows.Scan(
			&rec.Name,
			&rec.Description,
			&rec.Format,
			&rec.Document,
			&rec.CreatedAtMs,
		); err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategies: %w", err)
	}
	return result, nil
}
