package domain

import "math"

// WindowSnapshot holds the derived statistics of one rolling window at a
// single evaluation instant. It is the auditable record attached to a
// Signal and must equal a from-scratch scan of events in (now-w, now].
type WindowSnapshot struct {
	WindowSeconds     int
	VolumeUSD         float64
	BuyVolumeUSD      float64
	SellVolumeUSD     float64
	BuyCount          int
	SellCount         int
	LargeBuyCount     int
	LargeBuyVolumeUSD float64
	UniqueWallets     int
}

// BuySellRatio returns buy count over sell count. With zero sells the
// ratio is +Inf when any buys exist, otherwise 0, matching the original
// detector semantics.
func (s *WindowSnapshot) BuySellRatio() float64 {
	if s.SellCount == 0 {
		if s.BuyCount > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return float64(s.BuyCount) / float64(s.SellCount)
}

// Signal marks a strategy condition match at a point in time. At most one
// signal is emitted per evaluation tick per token, and never while a
// position is already open for that token.
type Signal struct {
	TokenAddress string
	TimestampMs  int64

	// Pool context at the moment of the match.
	Price        float64
	LiquidityUSD float64
	MarketCap    float64

	// Snapshots of every window the strategy maintains, keyed by
	// window_seconds, frozen at signal time.
	Windows map[int]WindowSnapshot
}
