package domain

// Exit reason codes.
const (
	ExitReasonStopLoss     = "stop_loss"
	ExitReasonTakeProfit   = "take_profit"
	ExitReasonTrailingStop = "trailing_stop"
	ExitReasonTimeLimit    = "time_limit"
)

// ExitRules configures the competing exit triggers for the simulator.
// Triggers are evaluated per price sample in fixed priority order:
// stop_loss, take_profit, trailing_stop (when enabled), time_limit.
type ExitRules struct {
	StopLossPct     float64 // drop from entry that forces exit, e.g. 0.15
	TakeProfitPct   float64 // rise from entry that takes profit, e.g. 1.0
	TrailingEnabled bool
	TrailingPct     float64 // drop from peak that exits, used when enabled
	MaxHoldSeconds  int64   // hold duration limit
}

// Position is an open simulated position, exclusively owned by the
// simulator while open.
type Position struct {
	TokenAddress string
	SignalTimeMs int64
	EntryTimeMs  int64
	EntryPrice   float64 // after slippage and fees
	SizeUSD      float64

	// Running state for exit evaluation.
	PeakPrice       float64
	LastPrice       float64
	LastPriceTimeMs int64
	PriceStale      bool
}

// ClosedTrade is the frozen outcome of a position. Immutable after the
// simulator hands it to the metrics engine.
type ClosedTrade struct {
	TokenAddress   string
	SignalTimeMs   int64
	EntryTimeMs    int64
	EntryPrice     float64
	ExitTimeMs     int64
	ExitPrice      float64
	SizeUSD        float64
	PnLUSD         float64
	PnLPercent     float64
	HoldDurationMs int64
	ExitReason     string

	// SignalMetrics is the aggregate snapshot that triggered the entry,
	// kept for auditability.
	SignalMetrics *Signal
}
