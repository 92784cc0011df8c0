package storage

import (
	"context"

	"solana-strategy-lab/internal/domain"
)

// TradeEventStore provides access to trade_events storage.
type TradeEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if (token_address,
	// signature) exists.
	Insert(ctx context.Context, ev *domain.TradeEvent) error

	// InsertBulk adds multiple events atomically. Fails the entire batch
	// on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.TradeEvent) error

	// GetByToken retrieves all events for a token, ordered by
	// (timestamp, block_slot, signature) ASC.
	GetByToken(ctx context.Context, token string) ([]*domain.TradeEvent, error)

	// GetByTimeRange retrieves events for a token within [start, end]
	// (inclusive), same ordering as GetByToken.
	GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.TradeEvent, error)
}

// PoolStateStore provides access to the pool_states timeseries.
type PoolStateStore interface {
	// InsertBulk adds multiple snapshots. Duplicate (token_address,
	// venue, timestamp_ms) rows are rejected with ErrDuplicateKey.
	InsertBulk(ctx context.Context, states []*domain.PoolState) error

	// GetByToken retrieves all snapshots for a token, ordered by
	// timestamp ASC.
	GetByToken(ctx context.Context, token string) ([]*domain.PoolState, error)

	// GetByTimeRange retrieves snapshots for a token within [start, end]
	// (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.PoolState, error)
}

// TokenMetadataStore provides access to token_metadata storage.
type TokenMetadataStore interface {
	// Insert adds new metadata. Returns ErrDuplicateKey if token_address
	// exists.
	Insert(ctx context.Context, m *domain.TokenMetadata) error

	// GetByToken retrieves metadata by token address. Returns
	// ErrNotFound if not exists.
	GetByToken(ctx context.Context, token string) (*domain.TokenMetadata, error)
}

// StrategyStore provides access to stored strategy documents.
type StrategyStore interface {
	// Insert adds a strategy document. Returns ErrDuplicateKey if the
	// name exists.
	Insert(ctx context.Context, rec *domain.StrategyRecord) error

	// GetByName retrieves a strategy by name. Returns ErrNotFound if not
	// exists.
	GetByName(ctx context.Context, name string) (*domain.StrategyRecord, error)

	// List retrieves all strategies ordered by name ASC.
	List(ctx context.Context) ([]*domain.StrategyRecord, error)
}

// BacktestResultStore provides access to backtest_results storage. The
// result row stores run summary and metrics; trades live in TradeStore.
type BacktestResultStore interface {
	// Insert adds a result. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, res *domain.BacktestResult) error

	// GetByID retrieves a result by ID. Returns ErrNotFound if not
	// exists. Trades are not populated.
	GetByID(ctx context.Context, id string) (*domain.BacktestResult, error)

	// GetByStrategy retrieves all results for a strategy, ordered by
	// created_at ASC.
	GetByStrategy(ctx context.Context, strategyName string) ([]*domain.BacktestResult, error)
}

// TradeStore provides access to simulated closed trades.
type TradeStore interface {
	// InsertBulk adds a backtest's trades atomically.
	InsertBulk(ctx context.Context, backtestID string, trades []*domain.ClosedTrade) error

	// GetByBacktestID retrieves all trades of a backtest, ordered by
	// exit time ASC.
	GetByBacktestID(ctx context.Context, backtestID string) ([]*domain.ClosedTrade, error)
}
