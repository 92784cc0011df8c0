package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

func TestTradeEventStore_InsertAndGetByToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	event := &domain.TradeEvent{
		Signature:     "Tx1",
		TimestampMs:   1000,
		TokenAddress:  "TokenA",
		Venue:         domain.VenuePumpFun,
		Side:          domain.SideBuy,
		AmountToken:   1_000_000,
		AmountUSD:     250.5,
		WalletAddress: "Wallet1",
		BlockSlot:     100,
		Success:       true,
	}

	err := store.Insert(ctx, event)
	require.NoError(t, err)

	events, err := store.GetByToken(ctx, "TokenA")
	require.NoError(t, err)

	assert.Len(t, events, 1)
	assert.Equal(t, event.Signature, events[0].Signature)
	assert.Equal(t, event.TimestampMs, events[0].TimestampMs)
	assert.Equal(t, event.Venue, events[0].Venue)
	assert.Equal(t, event.Side, events[0].Side)
	assert.InDelta(t, event.AmountUSD, events[0].AmountUSD, 0.0001)
	assert.Equal(t, event.WalletAddress, events[0].WalletAddress)
	assert.Equal(t, event.BlockSlot, events[0].BlockSlot)
	assert.True(t, events[0].Success)
}

func TestTradeEventStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	event := &domain.TradeEvent{
		Signature:     "DupTx",
		TimestampMs:   1000,
		TokenAddress:  "DupToken",
		Venue:         domain.VenueRaydiumCLMM,
		Side:          domain.SideSell,
		AmountToken:   10,
		AmountUSD:     50.0,
		WalletAddress: "Wallet1",
		BlockSlot:     100,
		Success:       true,
	}

	err := store.Insert(ctx, event)
	require.NoError(t, err)

	// Same (token_address, signature) must be rejected
	err = store.Insert(ctx, event)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeEventStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	firstBatch := []*domain.TradeEvent{
		{
			Signature:     "AtomicTx1",
			TimestampMs:   1000,
			TokenAddress:  "AtomicToken",
			Venue:         domain.VenuePumpFun,
			Side:          domain.SideBuy,
			AmountToken:   10,
			AmountUSD:     100.0,
			WalletAddress: "Wallet1",
			BlockSlot:     100,
			Success:       true,
		},
	}

	err := store.InsertBulk(ctx, firstBatch)
	require.NoError(t, err)

	// Second batch has a duplicate in the middle - should fail entirely
	secondBatch := []*domain.TradeEvent{
		{
			Signature:     "AtomicTx2",
			TimestampMs:   2000,
			TokenAddress:  "AtomicToken",
			Venue:         domain.VenuePumpFun,
			Side:          domain.SideBuy,
			AmountToken:   20,
			AmountUSD:     200.0,
			WalletAddress: "Wallet1",
			BlockSlot:     101,
			Success:       true,
		},
		{
			Signature:     "AtomicTx1", // duplicate!
			TimestampMs:   1000,
			TokenAddress:  "AtomicToken",
			Venue:         domain.VenuePumpFun,
			Side:          domain.SideBuy,
			AmountToken:   10,
			AmountUSD:     100.0,
			WalletAddress: "Wallet1",
			BlockSlot:     100,
			Success:       true,
		},
	}

	err = store.InsertBulk(ctx, secondBatch)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Rollback must leave only the first batch
	events, err := store.GetByToken(ctx, "AtomicToken")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestTradeEventStore_Ordering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	// Insert out of order, including a same-timestamp pair that must be
	// tie-broken by block_slot then signature.
	events := []*domain.TradeEvent{
		{Signature: "OrderTxC", TimestampMs: 2000, TokenAddress: "OrderToken", Venue: domain.VenuePumpFun, Side: domain.SideBuy, AmountToken: 1, AmountUSD: 1, WalletAddress: "W", BlockSlot: 103, Success: true},
		{Signature: "OrderTxB", TimestampMs: 2000, TokenAddress: "OrderToken", Venue: domain.VenuePumpFun, Side: domain.SideBuy, AmountToken: 1, AmountUSD: 1, WalletAddress: "W", BlockSlot: 102, Success: true},
		{Signature: "OrderTxA", TimestampMs: 1000, TokenAddress: "OrderToken", Venue: domain.VenuePumpFun, Side: domain.SideBuy, AmountToken: 1, AmountUSD: 1, WalletAddress: "W", BlockSlot: 101, Success: true},
	}

	err := store.InsertBulk(ctx, events)
	require.NoError(t, err)

	result, err := store.GetByToken(ctx, "OrderToken")
	require.NoError(t, err)

	require.Len(t, result, 3)
	assert.Equal(t, "OrderTxA", result[0].Signature)
	assert.Equal(t, "OrderTxB", result[1].Signature)
	assert.Equal(t, "OrderTxC", result[2].Signature)
}

func TestTradeEventStore_GetByTimeRangeInclusive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	events := []*domain.TradeEvent{
		{Signature: "RangeTx1", TimestampMs: 1000, TokenAddress: "RangeToken", Venue: domain.VenuePumpFun, Side: domain.SideBuy, AmountToken: 1, AmountUSD: 1, WalletAddress: "W", BlockSlot: 100, Success: true},
		{Signature: "RangeTx2", TimestampMs: 2000, TokenAddress: "RangeToken", Venue: domain.VenuePumpFun, Side: domain.SideBuy, AmountToken: 1, AmountUSD: 1, WalletAddress: "W", BlockSlot: 101, Success: true},
		{Signature: "RangeTx3", TimestampMs: 3000, TokenAddress: "RangeToken", Venue: domain.VenuePumpFun, Side: domain.SideBuy, AmountToken: 1, AmountUSD: 1, WalletAddress: "W", BlockSlot: 102, Success: true},
	}

	err := store.InsertBulk(ctx, events)
	require.NoError(t, err)

	// [1000, 2000] is inclusive on both ends
	result, err := store.GetByTimeRange(ctx, "RangeToken", 1000, 2000)
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, int64(1000), result[0].TimestampMs)
	assert.Equal(t, int64(2000), result[1].TimestampMs)
}

func TestTradeEventStore_EmptyResult(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	result, err := store.GetByToken(ctx, "NonexistentToken")
	require.NoError(t, err)
	assert.Empty(t, result)
}
