package memory

import (
	"context"
	"errors"
	"testing"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

func testResult(id string, createdMs int64) *domain.BacktestResult {
	sharpe := 1.2
	return &domain.BacktestResult{
		ID:             id,
		CreatedAtMs:    createdMs,
		StrategyName:   "volume-spike",
		StartMs:        0,
		EndMs:          86_400_000,
		TokensAnalyzed: 10,
		TotalSignals:   4,
		TradesExecuted: 3,
		Status:         domain.StatusCompleted,
		Metrics: &domain.BacktestMetrics{
			TotalTrades: 3,
			Wins:        2,
			Losses:      1,
			WinRate:     2.0 / 3.0,
			SharpeRatio: &sharpe,
		},
	}
}

func TestBacktestResultStoreRoundTrip(t *testing.T) {
	store := NewBacktestResultStore()
	ctx := context.Background()

	res := testResult("bt-1", 1000)
	if err := store.Insert(ctx, res); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, res); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	got, err := store.GetByID(ctx, "bt-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Metrics == nil || got.Metrics.SharpeRatio == nil || *got.Metrics.SharpeRatio != 1.2 {
		t.Fatalf("metrics: %+v", got.Metrics)
	}

	// Stored metrics must be isolated from the caller's pointers.
	*res.Metrics.SharpeRatio = 9.9
	again, _ := store.GetByID(ctx, "bt-1")
	if *again.Metrics.SharpeRatio != 1.2 {
		t.Fatal("caller mutation leaked into the store")
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBacktestResultStoreGetByStrategyOrdered(t *testing.T) {
	store := NewBacktestResultStore()
	ctx := context.Background()

	for _, tc := range []struct {
		id string
		ts int64
	}{{"bt-3", 3000}, {"bt-1", 1000}, {"bt-2", 2000}} {
		if err := store.Insert(ctx, testResult(tc.id, tc.ts)); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.GetByStrategy(ctx, "volume-spike")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"bt-1", "bt-2", "bt-3"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, list[i].ID, id)
		}
	}
}

func TestTradeStoreRoundTrip(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []*domain.ClosedTrade{
		{TokenAddress: "tok-a", ExitTimeMs: 2000, PnLUSD: -10, ExitReason: domain.ExitReasonStopLoss},
		{TokenAddress: "tok-b", ExitTimeMs: 1000, PnLUSD: 25, ExitReason: domain.ExitReasonTakeProfit},
	}
	if err := store.InsertBulk(ctx, "bt-1", trades); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertBulk(ctx, "bt-1", trades); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	got, err := store.GetByBacktestID(ctx, "bt-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].TokenAddress != "tok-b" {
		t.Fatalf("trades not ordered by exit time: %+v", got)
	}
}

func TestPoolStateStoreRangeAndOrdering(t *testing.T) {
	store := NewPoolStateStore()
	ctx := context.Background()

	states := []*domain.PoolState{
		{TokenAddress: "tok-a", Venue: domain.VenuePumpFun, TimestampMs: 3000, Price: 3},
		{TokenAddress: "tok-a", Venue: domain.VenuePumpFun, TimestampMs: 1000, Price: 1},
		{TokenAddress: "tok-a", Venue: domain.VenuePumpFun, TimestampMs: 2000, Price: 2},
	}
	if err := store.InsertBulk(ctx, states); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertBulk(ctx, states[:1]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	got, err := store.GetByTimeRange(ctx, "tok-a", 1000, 2000)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Price != 1 || got[1].Price != 2 {
		t.Fatalf("got %+v", got)
	}
}
