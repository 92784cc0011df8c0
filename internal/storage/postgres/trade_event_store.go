package postgres

import (
	"context"
	"fmt"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// TradeEventStore implements storage.TradeEventStore using PostgreSQL.
type TradeEventStore struct {
	pool *Pool
}

// NewTradeEventStore creates a new TradeEventStore.
func NewTradeEventStore(pool *Pool) *TradeEventStore {
	return &TradeEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeEventStore = (*TradeEventStore)(nil)

const insertTradeEventSQL = `
	INSERT INTO trade_events (
		token_address, signature, timestamp_ms, block_slot, venue, side,
		amount_token, amount_usd, wallet_address, success
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// Insert adds a new event. Returns ErrDuplicateKey if (token_address,
// signature) exists.
func (s *TradeEventStore) Insert(ctx context.Context, ev *domain.TradeEvent) error {
	if ev == nil || ev.TokenAddress == "" || ev.Signature == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeEventSQL,
		ev.TokenAddress,
		ev.Signature,
		ev.TimestampMs,
		ev.BlockSlot,
		ev.Venue,
		ev.Side,
		ev.AmountToken,
		ev.AmountUSD,
		ev.WalletAddress,
		ev.Success,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events atomically. Fails the entire batch on
// any duplicate.
func (s *TradeEventStore) InsertBulk(ctx context.Context, events []*domain.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ev := range events {
		if ev == nil || ev.TokenAddress == "" || ev.Signature == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTradeEventSQL,
			ev.TokenAddress,
			ev.Signature,
			ev.TimestampMs,
			ev.BlockSlot,
			ev.Venue,
			ev.Side,
			ev.AmountToken,
			ev.AmountUSD,
			ev.WalletAddress,
			ev.Success,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const selectTradeEventSQL = `
	SELECT token_address, signature, timestamp_ms, block_slot, venue, side,
	       amount_token, amount_usd, wallet_address, success
	FROM trade_events
`

// GetByToken retrieves all events for a token, ordered by
// (timestamp, block_slot, signature) ASC.
func (s *TradeEventStore) GetByToken(ctx context.Context, token string) ([]*domain.TradeEvent, error) {
	query := selectTradeEventSQL + `
		WHERE token_address = $1
		ORDER BY timestamp_ms ASC, block_slot ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("get trade events by token: %w", err)
	}
	defer rows.Close()

	return scanTradeEvents(rows)
}

// GetByTimeRange retrieves events for a token within [start, end] (inclusive).
func (s *TradeEventStore) GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.TradeEvent, error) {
	query := selectTradeEventSQL + `
		WHERE token_address = $1 AND timestamp_ms BETWEEN $2 AND $3
		ORDER BY timestamp_ms ASC, block_slot ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, token, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trade events by time range: %w", err)
	}
	defer rows.Close()

	return scanTradeEvents(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTradeEvents(rows rowScanner) ([]*domain.TradeEvent, error) {
	var result []*domain.TradeEvent
	for rows.Next() {
		var ev domain.TradeEvent
		if err := rows.Scan(
			&ev.TokenAddress,
			&ev.Signature,
			&ev.TimestampMs,
			&ev.BlockSlot,
			&ev.Venue,
			&ev.Side,
			&ev.AmountToken,
			&ev.AmountUSD,
			&ev.WalletAddress,
			&ev.Success,
		); err != nil {
			return nil, fmt.Errorf("scan trade event: %w", err)
		}
		result = append(result, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade events: %w", err)
	}
	return result, nil
}
