package memory

import (
	"context"
	"errors"
	"testing"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

func testEvent(token, sig string, tsMs, slot int64) *domain.TradeEvent {
	return &domain.TradeEvent{
		Signature:     sig,
		TimestampMs:   tsMs,
		TokenAddress:  token,
		Venue:         domain.VenuePumpFun,
		Side:          domain.SideBuy,
		AmountToken:   100,
		AmountUSD:     50,
		WalletAddress: "wallet-1",
		BlockSlot:     slot,
		Success:       true,
	}
}

func TestTradeEventStoreInsertAndDuplicate(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()

	ev := testEvent("tok-a", "sig-1", 1000, 10)
	if err := store.Insert(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, ev); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	// Same signature under another token is a distinct key.
	if err := store.Insert(ctx, testEvent("tok-b", "sig-1", 1000, 10)); err != nil {
		t.Fatal(err)
	}
}

func TestTradeEventStoreInsertInvalid(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if err := store.Insert(ctx, testEvent("", "sig", 1, 1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestTradeEventStoreInsertBulkAtomic(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()

	batch := []*domain.TradeEvent{
		testEvent("tok-a", "sig-1", 1000, 10),
		testEvent("tok-a", "sig-1", 2000, 20), // intra-batch duplicate
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	// Nothing from the failed batch may be visible.
	got, err := store.GetByToken(ctx, "tok-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("failed batch leaked %d events", len(got))
	}
}

func TestTradeEventStoreOrdering(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()

	// Inserted out of order; reads come back by (timestamp, slot, signature).
	events := []*domain.TradeEvent{
		testEvent("tok-a", "sig-c", 2000, 21),
		testEvent("tok-a", "sig-b", 2000, 20),
		testEvent("tok-a", "sig-a", 1000, 10),
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByToken(ctx, "tok-a")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"sig-a", "sig-b", "sig-c"}
	for i, sig := range want {
		if got[i].Signature != sig {
			t.Fatalf("position %d = %s, want %s", i, got[i].Signature, sig)
		}
	}
}

func TestTradeEventStoreTimeRangeInclusive(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()

	for i, ts := range []int64{1000, 2000, 3000, 4000} {
		ev := testEvent("tok-a", string(rune('a'+i)), ts, int64(i))
		if err := store.Insert(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.GetByTimeRange(ctx, "tok-a", 2000, 3000)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("range returned %d events, want 2 (bounds inclusive)", len(got))
	}
}

func TestTradeEventStoreReturnsCopies(t *testing.T) {
	store := NewTradeEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testEvent("tok-a", "sig-1", 1000, 10)); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetByToken(ctx, "tok-a")
	got[0].AmountUSD = 999

	again, _ := store.GetByToken(ctx, "tok-a")
	if again[0].AmountUSD != 50 {
		t.Fatal("mutation of a returned event leaked into the store")
	}
}
