package reporting

import (
	"time"

	"solana-strategy-lab/internal/domain"
)

// Report is the renderable view of one backtest run: the stored result
// row joined with its closed trades and a few derived breakdowns.
type Report struct {
	GeneratedAt time.Time

	Result *domain.BacktestResult
	Trades []*domain.ClosedTrade

	// ExitBreakdown counts trades per exit reason.
	ExitBreakdown []ExitBreakdownRow

	// TokenBreakdown aggregates per-token outcomes, sorted by total PnL
	// descending.
	TokenBreakdown []TokenBreakdownRow
}

// ExitBreakdownRow counts the trades closed by one exit reason.
type ExitBreakdownRow struct {
	Reason    string
	Count     int
	TotalPnL  float64
	AvgPnLPct float64
}

// TokenBreakdownRow aggregates the trades of one token.
type TokenBreakdownRow struct {
	TokenAddress string
	Trades       int
	Wins         int
	TotalPnLUSD  float64
}
