package provider

import (
	"context"
	"sort"
	"sync"

	"solana-strategy-lab/internal/normalize"
)

// StubHistory is an in-memory TransactionHistory and MarketData backed
// by pre-loaded raw records. Used by tests and fixture-driven runs.
type StubHistory struct {
	mu      sync.RWMutex
	records map[string][]*normalize.RawRecord // keyed by token address
}

// NewStubHistory creates an empty stub.
func NewStubHistory() *StubHistory {
	return &StubHistory{records: make(map[string][]*normalize.RawRecord)}
}

var (
	_ TransactionHistory = (*StubHistory)(nil)
	_ MarketData         = (*StubHistory)(nil)
)

// Load adds records to the stub. Records are grouped by token address
// and kept ordered by (timestamp_ms, block_slot, signature).
func (s *StubHistory) Load(records ...*normalize.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]struct{})
	for _, rec := range records {
		if rec == nil || rec.TokenAddress == "" {
			continue
		}
		s.records[rec.TokenAddress] = append(s.records[rec.TokenAddress], rec)
		touched[rec.TokenAddress] = struct{}{}
	}

	for token := range touched {
		recs := s.records[token]
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].TimestampMs != recs[j].TimestampMs {
				return recs[i].TimestampMs < recs[j].TimestampMs
			}
			if recs[i].BlockSlot != recs[j].BlockSlot {
				return recs[i].BlockSlot < recs[j].BlockSlot
			}
			return recs[i].Signature < recs[j].Signature
		})
	}
}

// Tokens returns the token addresses with loaded records, sorted.
func (s *StubHistory) Tokens() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]string, 0, len(s.records))
	for token := range s.records {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// RawSwaps returns swap records for a token within [startMs, endMs].
func (s *StubHistory) RawSwaps(ctx context.Context, token string, startMs, endMs int64) ([]*normalize.RawRecord, error) {
	return s.filter(ctx, token, startMs, endMs, normalize.RawKindSwap)
}

// PoolSnapshots returns pool records for a token within [startMs, endMs].
func (s *StubHistory) PoolSnapshots(ctx context.Context, token string, startMs, endMs int64) ([]*normalize.RawRecord, error) {
	return s.filter(ctx, token, startMs, endMs, normalize.RawKindPool)
}

func (s *StubHistory) filter(ctx context.Context, token string, startMs, endMs int64, kind string) ([]*normalize.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*normalize.RawRecord
	for _, rec := range s.records[token] {
		if rec.Kind != kind {
			continue
		}
		if rec.TimestampMs < startMs || rec.TimestampMs > endMs {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// StubFeed is an in-memory Feed that replays loaded records to every
// subscriber in order.
type StubFeed struct {
	mu      sync.Mutex
	records []*normalize.RawRecord
	closed  bool
}

// NewStubFeed creates a feed that will replay the given records.
func NewStubFeed(records ...*normalize.RawRecord) *StubFeed {
	return &StubFeed{records: records}
}

var _ Feed = (*StubFeed)(nil)

// SubscribeRecords replays matching records into the returned channel
// and closes it.
func (s *StubFeed) SubscribeRecords(ctx context.Context, filter RecordFilter) (<-chan *normalize.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrFeedClosed
	}

	wanted := make(map[string]struct{}, len(filter.Tokens))
	for _, token := range filter.Tokens {
		wanted[token] = struct{}{}
	}

	ch := make(chan *normalize.RawRecord, len(s.records))
	for _, rec := range s.records {
		if len(wanted) > 0 {
			if _, ok := wanted[rec.TokenAddress]; !ok {
				continue
			}
		}
		ch <- rec
	}
	close(ch)
	return ch, nil
}

// Close marks the feed closed.
func (s *StubFeed) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
