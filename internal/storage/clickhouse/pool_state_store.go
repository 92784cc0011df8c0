package clickhouse

import (
	"context"
	"fmt"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// PoolStateStore implements storage.PoolStateStore using ClickHouse.
// Snapshots are an append-only timeseries keyed by (token_address,
// venue, timestamp_ms).
type PoolStateStore struct {
	conn *Conn
}

// NewPoolStateStore creates a new PoolStateStore.
func NewPoolStateStore(conn *Conn) *PoolStateStore {
	return &PoolStateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PoolStateStore = (*PoolStateStore)(nil)

const selectPoolStateSQL = `
	SELECT token_address, venue, timestamp_ms, liquidity_usd, market_cap,
	       price, holders, active_bin_id, bin_step_bps, current_tick,
	       fee_rate, active_liquidity_usd, reserve_base, reserve_quote,
	       cumulative_usd, graduated
	FROM pool_states
`

// InsertBulk adds multiple snapshots. Duplicate (token_address, venue,
// timestamp_ms) rows are rejected with ErrDuplicateKey. MergeTree does
// not enforce uniqueness at insert time, so duplicates are detected
// explicitly before the batch is sent.
func (s *PoolStateStore) InsertBulk(ctx context.Context, states []*domain.PoolState) error {
	if len(states) == 0 {
		return nil
	}

	type key struct {
		token       string
		venue       string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(states))
	for _, ps := range states {
		if ps == nil || ps.TokenAddress == "" || ps.Venue == "" {
			return storage.ErrInvalidInput
		}
		k := key{ps.TokenAddress, ps.Venue, ps.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, ps := range states {
		exists, err := s.exists(ctx, ps.TokenAddress, ps.Venue, ps.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_states (
			token_address, venue, timestamp_ms, liquidity_usd, market_cap,
			price, holders, active_bin_id, bin_step_bps, current_tick,
			fee_rate, active_liquidity_usd, reserve_base, reserve_quote,
			cumulative_usd, graduated
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, ps := range states {
		graduated := uint8(0)
		if ps.Graduated {
			graduated = 1
		}
		err = batch.Append(
			ps.TokenAddress, ps.Venue, ps.TimestampMs,
			ps.LiquidityUSD, ps.MarketCap, ps.Price,
			intPtrTo32(ps.Holders), intPtrTo32(ps.ActiveBinID),
			intPtrTo32(ps.BinStepBps), intPtrTo32(ps.CurrentTick),
			ps.FeeRate, ps.ActiveLiquidityUSD,
			ps.ReserveBase, ps.ReserveQuote, ps.CumulativeUSD,
			graduated,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByToken retrieves all snapshots for a token, ordered by timestamp
// ASC.
func (s *PoolStateStore) GetByToken(ctx context.Context, token string) ([]*domain.PoolState, error) {
	query := selectPoolStateSQL + `
		WHERE token_address = ?
		ORDER BY timestamp_ms ASC, venue ASC
	`

	rows, err := s.conn.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("query by token: %w", err)
	}
	defer rows.Close()

	return scanPoolStates(rows)
}

// GetByTimeRange retrieves snapshots for a token within [start, end]
// (inclusive), ordered by timestamp ASC.
func (s *PoolStateStore) GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.PoolState, error) {
	query := selectPoolStateSQL + `
		WHERE token_address = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, venue ASC
	`

	rows, err := s.conn.Query(ctx, query, token, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPoolStates(rows)
}

// exists checks if a snapshot with the given key exists.
func (s *PoolStateStore) exists(ctx context.Context, token, venue string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM pool_states
		WHERE token_address = ? AND venue = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, token, venue, timestampMs).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPoolStates scans multiple rows into a slice.
func scanPoolStates(rows chRows) ([]*domain.PoolState, error) {
	var states []*domain.PoolState

	for rows.Next() {
		var ps domain.PoolState
		var holders, activeBinID, binStepBps, currentTick *int32
		var graduated uint8

		err := rows.Scan(
			&ps.TokenAddress, &ps.Venue, &ps.TimestampMs,
			&ps.LiquidityUSD, &ps.MarketCap, &ps.Price,
			&holders, &activeBinID, &binStepBps, &currentTick,
			&ps.FeeRate, &ps.ActiveLiquidityUSD,
			&ps.ReserveBase, &ps.ReserveQuote, &ps.CumulativeUSD,
			&graduated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pool state row: %w", err)
		}

		ps.Holders = int32PtrToInt(holders)
		ps.ActiveBinID = int32PtrToInt(activeBinID)
		ps.BinStepBps = int32PtrToInt(binStepBps)
		ps.CurrentTick = int32PtrToInt(currentTick)
		ps.Graduated = graduated != 0
		states = append(states, &ps)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool state rows: %w", err)
	}
	return states, nil
}

func intPtrTo32(v *int) *int32 {
	if v == nil {
		return nil
	}
	out := int32(*v)
	return &out
}

func int32PtrToInt(v *int32) *int {
	if v == nil {
		return nil
	}
	out := int(*v)
	return &out
}
