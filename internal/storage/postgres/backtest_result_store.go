package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// BacktestResultStore implements storage.BacktestResultStore using
// PostgreSQL. Metrics and per-token errors are persisted as JSONB;
// individual trades live in the trades table and are not loaded here.
type BacktestResultStore struct {
	pool *Pool
}

// NewBacktestResultStore creates a new BacktestResultStore.
func NewBacktestResultStore(pool *Pool) *BacktestResultStore {
	return &BacktestResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestResultStore = (*BacktestResultStore)(nil)

// Insert adds a backtest result. Returns ErrDuplicateKey if the ID
// exists.
func (s *BacktestResultStore) Insert(ctx context.Context, res *domain.BacktestResult) error {
	if res == nil || res.ID == "" || res.StrategyName == "" {
		return storage.ErrInvalidInput
	}

	var metricsJSON []byte
	if res.Metrics != nil {
		var err error
		metricsJSON, err = json.Marshal(res.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}
	}

	tokenErrors := res.TokenErrors
	if tokenErrors == nil {
		tokenErrors = []string{}
	}
	tokenErrorsJSON, err := json.Marshal(tokenErrors)
	if err != nil {
		return fmt.Errorf("marshal token errors: %w", err)
	}

	query := `
		INSERT INTO backtest_results (
			id, strategy_name, created_at_ms, start_ms, end_ms,
			tokens_analyzed, total_signals, trades_executed, skipped_records,
			status, error_message, metrics, token_errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = s.pool.Exec(ctx, query,
		res.ID,
		res.StrategyName,
		res.CreatedAtMs,
		res.StartMs,
		res.EndMs,
		res.TokensAnalyzed,
		res.TotalSignals,
		res.TradesExecuted,
		res.SkippedRecords,
		res.Status,
		res.ErrorMessage,
		metricsJSON,
		tokenErrorsJSON,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest result: %w", err)
	}
	return nil
}

// GetByID retrieves a result by ID. Returns ErrNotFound if not exists.
// The Trades field is left nil; use TradeStore to load trades.
func (s *BacktestResultStore) GetByID(ctx context.Context, id string) (*domain.BacktestResult, error) {
	query := selectBacktestResultSQL + ` WHERE id = $1`

	res, err := scanBacktestResult(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest result: %w", err)
	}
	return res, nil
}

// GetByStrategy retrieves all results for a strategy ordered by
// created_at_ms ASC.
func (s *BacktestResultStore) GetByStrategy(ctx context.Context, strategyName string) ([]*domain.BacktestResult, error) {
	query := selectBacktestResultSQL + `
		WHERE strategy_name = $1
		ORDER BY created_at_ms ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyName)
	if err != nil {
		return nil, fmt.Errorf("query backtest results: %w", err)
	}
	defer rows.Close()

	var result []*domain.BacktestResult
	for rows.Next() {
		res, err := scanBacktestResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backtest result: %w", err)
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest results: %w", err)
	}
	return result, nil
}

const selectBacktestResultSQL = `
	SELECT id, strategy_name, created_at_ms, start_ms, end_ms,
	       tokens_analyzed, total_signals, trades_executed, skipped_records,
	       status, error_message, metrics, token_errors
	FROM backtest_results
`

func scanBacktestResult(row interface{ Scan(dest ...any) error }) (*domain.BacktestResult, error) {
	var (
		res             domain.BacktestResult
		metricsJSON     []byte
		tokenErrorsJSON []byte
	)
	err := row.Scan(
		&res.ID,
		&res.StrategyName,
		&res.CreatedAtMs,
		&res.StartMs,
		&res.EndMs,
		&res.TokensAnalyzed,
		&res.TotalSignals,
		&res.TradesExecuted,
		&res.SkippedRecords,
		&res.Status,
		&res.ErrorMessage,
		&metricsJSON,
		&tokenErrorsJSON,
	)
	if err != nil {
		return nil, err
	}
	if len(metricsJSON) > 0 {
		var m domain.BacktestMetrics
		if err := json.Unmarshal(metricsJSON, &m); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		res.Metrics = &m
	}
	if len(tokenErrorsJSON) > 0 {
		if err := json.Unmarshal(tokenErrorsJSON, &res.TokenErrors); err != nil {
			return nil, fmt.Errorf("unmarshal token errors: %w", err)
		}
	}
	if len(res.TokenErrors) == 0 {
		res.TokenErrors = nil
	}
	return &res, nil
}
