package backtest

import (
	"sort"

	"solana-strategy-lab/internal/domain"
)

// Event kinds on the merged per-token timeline.
const (
	EventKindTrade = "trade"
	EventKindPool  = "pool"
)

// Event is one element of a token's replay timeline: either a trade or a
// pool snapshot. Pool snapshots carry no signature and sort ahead of
// trades sharing their timestamp.
type Event struct {
	Kind        string
	TimestampMs int64
	BlockSlot   int64
	Signature   string

	Trade *domain.TradeEvent
	Pool  *domain.PoolState
}

// SortEvents orders a timeline by (timestamp ASC, block_slot ASC,
// signature ASC). The composite key gives deterministic replay order
// even when wall-clock timestamps collide.
func SortEvents(events []*Event) {
	sort.Slice(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// MergeStreams interleaves a token's trades and pool snapshots into one
// timeline. Each input stream is expected already ordered; the merge
// preserves stream order so an upstream ordering violation survives into
// the timeline, where the engine detects it and aborts the token.
func MergeStreams(trades []*domain.TradeEvent, pools []*domain.PoolState) []*Event {
	events := make([]*Event, 0, len(trades)+len(pools))
	i, j := 0, 0
	for i < len(trades) || j < len(pools) {
		var tr, ps *Event
		if i < len(trades) {
			t := trades[i]
			tr = &Event{
				Kind:        EventKindTrade,
				TimestampMs: t.TimestampMs,
				BlockSlot:   t.BlockSlot,
				Signature:   t.Signature,
				Trade:       t,
			}
		}
		if j < len(pools) {
			p := pools[j]
			ps = &Event{
				Kind:        EventKindPool,
				TimestampMs: p.TimestampMs,
				Pool:        p,
			}
		}
		switch {
		case tr == nil:
			events = append(events, ps)
			j++
		case ps == nil:
			events = append(events, tr)
			i++
		case compareEvents(ps, tr) <= 0:
			events = append(events, ps)
			j++
		default:
			events = append(events, tr)
			i++
		}
	}
	return events
}

// compareEvents returns negative, zero or positive as a sorts before,
// equal to, or after b under (timestamp, block_slot, signature).
func compareEvents(a, b *Event) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.BlockSlot != b.BlockSlot {
		if a.BlockSlot < b.BlockSlot {
			return -1
		}
		return 1
	}
	if a.Signature != b.Signature {
		if a.Signature < b.Signature {
			return -1
		}
		return 1
	}
	return 0
}
