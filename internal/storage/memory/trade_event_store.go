package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// TradeEventStore is an in-memory implementation of storage.TradeEventStore.
type TradeEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeEvent // keyed by (token, signature)
}

// NewTradeEventStore creates a new in-memory trade event store.
func NewTradeEventStore() *TradeEventStore {
	return &TradeEventStore{
		data: make(map[string]*domain.TradeEvent),
	}
}

// Compile-time interface check.
var _ storage.TradeEventStore = (*TradeEventStore)(nil)

func eventKey(token, signature string) string {
	return fmt.Sprintf("%s|%s", token, signature)
}

// Insert adds a new event. Returns ErrDuplicateKey if exists.
func (s *TradeEventStore) Insert(_ context.Context, ev *domain.TradeEvent) error {
	if ev == nil || ev.TokenAddress == "" || ev.Signature == "" {
		return storage.ErrInvalidInput
	}

	key := eventKey(ev.TokenAddress, ev.Signature)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *ev
	s.data[key] = &copy
	return nil
}

// InsertBulk adds multiple events atomically. Fails the entire batch on
// any duplicate, including intra-batch duplicates.
func (s *TradeEventStore) InsertBulk(_ context.Context, events []*domain.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev == nil || ev.TokenAddress == "" || ev.Signature == "" {
			return storage.ErrInvalidInput
		}
		key := eventKey(ev.TokenAddress, ev.Signature)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, ev := range events {
		copy := *ev
		s.data[eventKey(ev.TokenAddress, ev.Signature)] = &copy
	}
	return nil
}

// GetByToken retrieves all events for a token, ordered by
// (timestamp, block_slot, signature) ASC.
func (s *TradeEventStore) GetByToken(_ context.Context, token string) ([]*domain.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeEvent
	for _, ev := range s.data {
		if ev.TokenAddress == token {
			copy := *ev
			result = append(result, &copy)
		}
	}

	sortEvents(result)
	return result, nil
}

// GetByTimeRange retrieves events for a token within [start, end] (inclusive).
func (s *TradeEventStore) GetByTimeRange(_ context.Context, token string, start, end int64) ([]*domain.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeEvent
	for _, ev := range s.data {
		if ev.TokenAddress == token && ev.TimestampMs >= start && ev.TimestampMs <= end {
			copy := *ev
			result = append(result, &copy)
		}
	}

	sortEvents(result)
	return result, nil
}

func sortEvents(events []*domain.TradeEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].TimestampMs != events[j].TimestampMs {
			return events[i].TimestampMs < events[j].TimestampMs
		}
		if events[i].BlockSlot != events[j].BlockSlot {
			return events[i].BlockSlot < events[j].BlockSlot
		}
		return events[i].Signature < events[j].Signature
	})
}
