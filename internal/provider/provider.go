// Package provider defines the external data collaborators the lab
// depends on: transaction history, market data snapshots and the live
// record feed. Implementations are injected; tests use the stubs.
package provider

import (
	"context"

	"solana-strategy-lab/internal/normalize"
)

// TransactionHistory serves raw swap records for a token, ordered by
// (timestamp_ms, block_slot, signature) ASC. Records are venue-shaped;
// the normalizer turns them into canonical trade events.
type TransactionHistory interface {
	RawSwaps(ctx context.Context, token string, startMs, endMs int64) ([]*normalize.RawRecord, error)
}

// MarketData serves raw pool snapshot records for a token, ordered by
// timestamp ASC.
type MarketData interface {
	PoolSnapshots(ctx context.Context, token string, startMs, endMs int64) ([]*normalize.RawRecord, error)
}

// RecordFilter selects which tokens a feed subscription covers. An
// empty token list subscribes to all records.
type RecordFilter struct {
	Tokens []string
}

// Feed is a live stream of raw records.
type Feed interface {
	// SubscribeRecords subscribes to raw records matching the filter.
	// The channel is closed when the feed shuts down.
	SubscribeRecords(ctx context.Context, filter RecordFilter) (<-chan *normalize.RawRecord, error)

	// Close closes the feed connection.
	Close() error
}
