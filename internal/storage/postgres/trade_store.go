package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL. The signal
// snapshot that triggered each trade is persisted as JSONB.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds a backtest's trades atomically. A backtest's trades
// are written exactly once; a second batch for the same backtest ID is
// rejected with ErrDuplicateKey.
func (s *TradeStore) InsertBulk(ctx context.Context, backtestID string, trades []*domain.ClosedTrade) error {
	if backtestID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil || t.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trades WHERE backtest_id = $1)`,
		backtestID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check existing trades: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO trades (
			backtest_id, token_address, signal_time_ms, entry_time_ms,
			entry_price, exit_time_ms, exit_price, size_usd, pnl_usd,
			pnl_percent, hold_duration_ms, exit_reason, signal_metrics
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, t := range trades {
		var signalJSON []byte
		if t.SignalMetrics != nil {
			signalJSON, err = json.Marshal(t.SignalMetrics)
			if err != nil {
				return fmt.Errorf("marshal signal metrics: %w", err)
			}
		}

		_, err = tx.Exec(ctx, query,
			backtestID,
			t.TokenAddress,
			t.SignalTimeMs,
			t.EntryTimeMs,
			t.EntryPrice,
			t.ExitTimeMs,
			t.ExitPrice,
			t.SizeUSD,
			t.PnLUSD,
			t.PnLPercent,
			t.HoldDurationMs,
			t.ExitReason,
			signalJSON,
		)
		if err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByBacktestID retrieves all trades of a backtest ordered by exit
// time ASC.
func (s *TradeStore) GetByBacktestID(ctx context.Context, backtestID string) ([]*domain.ClosedTrade, error) {
	query := `
		SELECT token_address, signal_time_ms, entry_time_ms, entry_price,
		       exit_time_ms, exit_price, size_usd, pnl_usd, pnl_percent,
		       hold_duration_ms, exit_reason, signal_metrics
		FROM trades
		WHERE backtest_id = $1
		ORDER BY exit_time_ms ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, backtestID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var result []*domain.ClosedTrade
	for rows.Next() {
		var (
			t          domain.ClosedTrade
			signalJSON []byte
		)
		if err := rows.Scan(
			&t.TokenAddress,
			&t.SignalTimeMs,
			&t.EntryTimeMs,
			&t.EntryPrice,
			&t.ExitTimeMs,
			&t.ExitPrice,
			&t.SizeUSD,
			&t.PnLUSD,
			&t.PnLPercent,
			&t.HoldDurationMs,
			&t.ExitReason,
			&signalJSON,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if len(signalJSON) > 0 {
			var sig domain.Signal
			if err := json.Unmarshal(signalJSON, &sig); err != nil {
				return nil, fmt.Errorf("unmarshal signal metrics: %w", err)
			}
			t.SignalMetrics = &sig
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}
