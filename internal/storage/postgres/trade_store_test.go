package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

func insertParentResult(t *testing.T, ctx context.Context, pool *Pool, id string) {
	t.Helper()

	store := NewBacktestResultStore(pool)
	res := testResult(id, "trade_store_test", 1_700_100_000_000)
	res.Metrics = nil
	require.NoError(t, store.Insert(ctx, res))
}

func TestTradeStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)
	insertParentResult(t, ctx, pool, "bt-trades")

	trades := []*domain.ClosedTrade{
		{
			TokenAddress:   "TokenB",
			SignalTimeMs:   2000,
			EntryTimeMs:    2000,
			EntryPrice:     1.05,
			ExitTimeMs:     8000,
			ExitPrice:      2.10,
			SizeUSD:        1000,
			PnLUSD:         950,
			PnLPercent:     95,
			HoldDurationMs: 6000,
			ExitReason:     domain.ExitReasonTakeProfit,
			SignalMetrics: &domain.Signal{
				TokenAddress: "TokenB",
				TimestampMs:  2000,
				Price:        1.0,
				LiquidityUSD: 500_000,
				Windows: map[int]domain.WindowSnapshot{
					300: {WindowSeconds: 300, VolumeUSD: 1300, BuyCount: 2},
				},
			},
		},
		{
			TokenAddress:   "TokenA",
			SignalTimeMs:   1000,
			EntryTimeMs:    1000,
			EntryPrice:     0.5,
			ExitTimeMs:     4000,
			ExitPrice:      0.42,
			SizeUSD:        1000,
			PnLUSD:         -160,
			PnLPercent:     -16,
			HoldDurationMs: 3000,
			ExitReason:     domain.ExitReasonStopLoss,
		},
	}

	err := store.InsertBulk(ctx, "bt-trades", trades)
	require.NoError(t, err)

	got, err := store.GetByBacktestID(ctx, "bt-trades")
	require.NoError(t, err)

	// Ordered by exit time ASC
	require.Len(t, got, 2)
	assert.Equal(t, "TokenA", got[0].TokenAddress)
	assert.Equal(t, "TokenB", got[1].TokenAddress)
	assert.Equal(t, domain.ExitReasonStopLoss, got[0].ExitReason)
	assert.Nil(t, got[0].SignalMetrics)

	// Signal snapshot round-trips through JSONB
	require.NotNil(t, got[1].SignalMetrics)
	assert.Equal(t, int64(2000), got[1].SignalMetrics.TimestampMs)
	assert.InDelta(t, 500_000, got[1].SignalMetrics.LiquidityUSD, 0.0001)
	require.Contains(t, got[1].SignalMetrics.Windows, 300)
	assert.InDelta(t, 1300, got[1].SignalMetrics.Windows[300].VolumeUSD, 0.0001)
}

func TestTradeStore_SecondBatchRejected(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)
	insertParentResult(t, ctx, pool, "bt-once")

	trade := &domain.ClosedTrade{
		TokenAddress:   "TokenA",
		SignalTimeMs:   1000,
		EntryTimeMs:    1000,
		EntryPrice:     1.0,
		ExitTimeMs:     2000,
		ExitPrice:      1.1,
		SizeUSD:        1000,
		PnLUSD:         100,
		PnLPercent:     10,
		HoldDurationMs: 1000,
		ExitReason:     domain.ExitReasonTimeLimit,
	}

	err := store.InsertBulk(ctx, "bt-once", []*domain.ClosedTrade{trade})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, "bt-once", []*domain.ClosedTrade{trade})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByBacktestID(ctx, "bt-once")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTradeStore_EmptyBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	err := store.InsertBulk(ctx, "bt-empty", nil)
	require.NoError(t, err)

	got, err := store.GetByBacktestID(ctx, "bt-empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}
