// Package rolling maintains sliding-window statistics over a token's
// chronologically ordered trade events.
package rolling

import (
	"fmt"

	"solana-strategy-lab/internal/domain"
)

// Aggregator maintains, for one token, every window requested by the
// active strategy. All windows share one chronological event arena;
// derived statistics are kept per window and updated incrementally.
//
// The incremental maintenance is an optimization, not a different
// semantics: for any now, a window's snapshot equals a from-scratch scan
// of events with time in (now-w, now]. Scan implements that definition
// and the tests hold the two equal.
type Aggregator struct {
	token   string
	events  []*domain.TradeEvent
	windows []*window
	nowMs   int64
	// consumed counts arena entries already evicted from every window;
	// the prefix is dropped once it grows past compactThreshold.
	consumed int
}

const compactThreshold = 4096

type window struct {
	spec  domain.WindowSpec
	start int // arena index of the oldest event still inside
	end   int // arena index one past the newest admitted event

	volumeUSD         float64
	buyVolumeUSD      float64
	sellVolumeUSD     float64
	buyCount          int
	sellCount         int
	largeBuyCount     int
	largeBuyVolumeUSD float64
	wallets           map[string]int // reference-counted
}

// NewAggregator creates an aggregator for token with the given window
// specs. Specs with duplicate lengths collapse to one window.
func NewAggregator(token string, specs []domain.WindowSpec) *Aggregator {
	a := &Aggregator{token: token}
	seen := make(map[int]*window, len(specs))
	for _, spec := range specs {
		if spec.Seconds <= 0 {
			continue
		}
		if existing, ok := seen[spec.Seconds]; ok {
			// Same length requested twice: keep the large-buy threshold
			// if either spec carries one.
			if existing.spec.LargeBuyMinAmount == 0 {
				existing.spec.LargeBuyMinAmount = spec.LargeBuyMinAmount
			}
			continue
		}
		w := &window{spec: spec, wallets: make(map[string]int)}
		seen[spec.Seconds] = w
		a.windows = append(a.windows, w)
	}
	return a
}

// Add appends an event to the arena. Events must arrive in non-decreasing
// time order; the backtest engine enforces ordering before calling.
func (a *Aggregator) Add(ev *domain.TradeEvent) error {
	if n := len(a.events); n > 0 && ev.TimestampMs < a.events[n-1].TimestampMs {
		return fmt.Errorf("event %s out of order: %d < %d",
			ev.Signature, ev.TimestampMs, a.events[n-1].TimestampMs)
	}
	a.events = append(a.events, ev)
	return nil
}

// Advance moves simulated time to nowMs, admitting newly available events
// and evicting events that fell out of each window. Eviction is
// monotonic; time never moves backwards.
func (a *Aggregator) Advance(nowMs int64) {
	if nowMs < a.nowMs {
		return
	}
	a.nowMs = nowMs

	for _, w := range a.windows {
		// Admit events with time <= now (inclusive upper bound).
		for w.end < len(a.events) && a.events[w.end].TimestampMs <= nowMs {
			w.admit(a.events[w.end])
			w.end++
		}
		// Evict events with time <= now - window (strict lower bound:
		// the window is (now-w, now]).
		cutoff := nowMs - int64(w.spec.Seconds)*1000
		for w.start < w.end && a.events[w.start].TimestampMs <= cutoff {
			w.evict(a.events[w.start])
			w.start++
		}
	}

	a.compact()
}

func (w *window) admit(ev *domain.TradeEvent) {
	w.volumeUSD += ev.AmountUSD
	if ev.Side == domain.SideBuy {
		w.buyCount++
		w.buyVolumeUSD += ev.AmountUSD
		if w.spec.LargeBuyMinAmount > 0 && ev.AmountUSD >= w.spec.LargeBuyMinAmount {
			w.largeBuyCount++
			w.largeBuyVolumeUSD += ev.AmountUSD
		}
	} else {
		w.sellCount++
		w.sellVolumeUSD += ev.AmountUSD
	}
	w.wallets[ev.WalletAddress]++
}

func (w *window) evict(ev *domain.TradeEvent) {
	w.volumeUSD -= ev.AmountUSD
	if ev.Side == domain.SideBuy {
		w.buyCount--
		w.buyVolumeUSD -= ev.AmountUSD
		if w.spec.LargeBuyMinAmount > 0 && ev.AmountUSD >= w.spec.LargeBuyMinAmount {
			w.largeBuyCount--
			w.largeBuyVolumeUSD -= ev.AmountUSD
		}
	} else {
		w.sellCount--
		w.sellVolumeUSD -= ev.AmountUSD
	}
	if w.wallets[ev.WalletAddress] <= 1 {
		delete(w.wallets, ev.WalletAddress)
	} else {
		w.wallets[ev.WalletAddress]--
	}
}

// compact drops the arena prefix no window can reach anymore.
func (a *Aggregator) compact() {
	min := len(a.events)
	for _, w := range a.windows {
		if w.start < min {
			min = w.start
		}
	}
	if min < compactThreshold {
		return
	}
	a.events = append(a.events[:0:0], a.events[min:]...)
	a.consumed += min
	for _, w := range a.windows {
		w.start -= min
		w.end -= min
	}
}

// Snapshot returns the derived statistics for the window of the given
// length at the current now. The second return is false when no such
// window is maintained.
func (a *Aggregator) Snapshot(windowSeconds int) (domain.WindowSnapshot, bool) {
	for _, w := range a.windows {
		if w.spec.Seconds == windowSeconds {
			return w.snapshot(), true
		}
	}
	return domain.WindowSnapshot{}, false
}

// Snapshots returns every maintained window keyed by window_seconds.
func (a *Aggregator) Snapshots() map[int]domain.WindowSnapshot {
	out := make(map[int]domain.WindowSnapshot, len(a.windows))
	for _, w := range a.windows {
		out[w.spec.Seconds] = w.snapshot()
	}
	return out
}

func (w *window) snapshot() domain.WindowSnapshot {
	return domain.WindowSnapshot{
		WindowSeconds:     w.spec.Seconds,
		VolumeUSD:         w.volumeUSD,
		BuyVolumeUSD:      w.buyVolumeUSD,
		SellVolumeUSD:     w.sellVolumeUSD,
		BuyCount:          w.buyCount,
		SellCount:         w.sellCount,
		LargeBuyCount:     w.largeBuyCount,
		LargeBuyVolumeUSD: w.largeBuyVolumeUSD,
		UniqueWallets:     len(w.wallets),
	}
}

// Scan computes a window snapshot from scratch over events in
// (nowMs - spec.Seconds, nowMs]. It is the defining semantics the
// incremental aggregator must match.
func Scan(events []*domain.TradeEvent, nowMs int64, spec domain.WindowSpec) domain.WindowSnapshot {
	w := &window{spec: spec, wallets: make(map[string]int)}
	low := nowMs - int64(spec.Seconds)*1000
	for _, ev := range events {
		if ev.TimestampMs > low && ev.TimestampMs <= nowMs {
			w.admit(ev)
		}
	}
	return w.snapshot()
}
