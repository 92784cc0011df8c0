package reporting

import (
	"context"
	"sort"
	"time"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// Generator produces reports from stored backtest results.
type Generator struct {
	resultStore storage.BacktestResultStore
	tradeStore  storage.TradeStore
	now         func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.BacktestResultStore, tradeStore storage.TradeStore) *Generator {
	return &Generator{
		resultStore: resultStore,
		tradeStore:  tradeStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for one stored backtest run.
func (g *Generator) Generate(ctx context.Context, backtestID string) (*Report, error) {
	result, err := g.resultStore.GetByID(ctx, backtestID)
	if err != nil {
		return nil, err
	}

	trades, err := g.tradeStore.GetByBacktestID(ctx, backtestID)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:    g.now(),
		Result:         result,
		Trades:         trades,
		ExitBreakdown:  exitBreakdown(trades),
		TokenBreakdown: tokenBreakdown(trades),
	}, nil
}

// Build assembles a report directly from an in-memory result, without
// touching storage. Used right after a run, before persistence.
func Build(result *domain.BacktestResult, trades []*domain.ClosedTrade, now time.Time) *Report {
	return &Report{
		GeneratedAt:    now,
		Result:         result,
		Trades:         trades,
		ExitBreakdown:  exitBreakdown(trades),
		TokenBreakdown: tokenBreakdown(trades),
	}
}

func exitBreakdown(trades []*domain.ClosedTrade) []ExitBreakdownRow {
	type acc struct {
		count  int
		pnl    float64
		pnlPct float64
	}
	byReason := make(map[string]*acc)
	for _, t := range trades {
		a := byReason[t.ExitReason]
		if a == nil {
			a = &acc{}
			byReason[t.ExitReason] = a
		}
		a.count++
		a.pnl += t.PnLUSD
		a.pnlPct += t.PnLPercent
	}

	// Fixed exit priority order, then any unknown reasons
	order := []string{
		domain.ExitReasonStopLoss,
		domain.ExitReasonTakeProfit,
		domain.ExitReasonTrailingStop,
		domain.ExitReasonTimeLimit,
	}
	known := make(map[string]struct{}, len(order))
	for _, r := range order {
		known[r] = struct{}{}
	}
	var extra []string
	for reason := range byReason {
		if _, ok := known[reason]; !ok {
			extra = append(extra, reason)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	var rows []ExitBreakdownRow
	for _, reason := range order {
		a := byReason[reason]
		if a == nil {
			continue
		}
		rows = append(rows, ExitBreakdownRow{
			Reason:    reason,
			Count:     a.count,
			TotalPnL:  a.pnl,
			AvgPnLPct: a.pnlPct / float64(a.count),
		})
	}
	return rows
}

func tokenBreakdown(trades []*domain.ClosedTrade) []TokenBreakdownRow {
	byToken := make(map[string]*TokenBreakdownRow)
	for _, t := range trades {
		row := byToken[t.TokenAddress]
		if row == nil {
			row = &TokenBreakdownRow{TokenAddress: t.TokenAddress}
			byToken[t.TokenAddress] = row
		}
		row.Trades++
		if t.PnLUSD > 0 {
			row.Wins++
		}
		row.TotalPnLUSD += t.PnLUSD
	}

	rows := make([]TokenBreakdownRow, 0, len(byToken))
	for _, row := range byToken {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPnLUSD != rows[j].TotalPnLUSD {
			return rows[i].TotalPnLUSD > rows[j].TotalPnLUSD
		}
		return rows[i].TokenAddress < rows[j].TokenAddress
	})
	return rows
}
