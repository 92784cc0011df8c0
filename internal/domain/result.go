package domain

// Backtest run status values.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BacktestMetrics is a pure reduction over a ClosedTrade list. It is
// regenerable at any time from the trades and never independently
// mutated. Undefined statistics are nil, never zero.
type BacktestMetrics struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // wins / total, 0 when no trades

	TotalPnLUSD  float64
	AvgPnLPct    float64
	MedianPnLPct float64

	SharpeRatio  *float64 // nil when <2 trades or zero variance
	ProfitFactor *float64 // nil when gross loss is zero
	MaxDrawdown  float64  // peak-to-trough on close-time equity curve

	LargestWinPct  float64
	LargestLossPct float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	AvgHoldDurationMs int64
}

// BacktestResult summarizes one strategy run.
// Corresponds to the backtest_results table.
type BacktestResult struct {
	ID             string // assigned by the caller before persisting
	CreatedAtMs    int64
	StrategyName   string
	StartMs        int64
	EndMs          int64
	TokensAnalyzed int
	TotalSignals   int
	TradesExecuted int
	SkippedRecords int // raw records dropped during normalization
	Status         string
	ErrorMessage   *string

	Metrics *BacktestMetrics
	Trades  []*ClosedTrade

	// TokenErrors lists per-token failures (e.g. ordering violations)
	// that aborted a single token without failing the batch.
	TokenErrors []string
}
