package metrics

import (
	"math"
	"testing"

	"solana-strategy-lab/internal/domain"
)

func trade(exitMs int64, pnlUSD, pnlPct float64, holdMs int64, reason string) *domain.ClosedTrade {
	return &domain.ClosedTrade{
		TokenAddress:   "tok",
		ExitTimeMs:     exitMs,
		PnLUSD:         pnlUSD,
		PnLPercent:     pnlPct,
		HoldDurationMs: holdMs,
		ExitReason:     reason,
	}
}

func TestComputeEmpty(t *testing.T) {
	m := Compute(nil)
	if m.TotalTrades != 0 || m.WinRate != 0 {
		t.Fatalf("unexpected: %+v", m)
	}
	if m.SharpeRatio != nil || m.ProfitFactor != nil {
		t.Fatal("undefined statistics must be nil on an empty run")
	}
}

func TestComputeWinRateReferenceRun(t *testing.T) {
	// 23 trades: 8 profitable take-profit exits, 3 breakeven closes at an
	// extended target, 12 losing stop/time exits. 8/23 rounds to 35%.
	var trades []*domain.ClosedTrade
	var ts int64
	for i := 0; i < 8; i++ {
		ts += 1000
		trades = append(trades, trade(ts, 50, 5, 60_000, domain.ExitReasonTakeProfit))
	}
	for i := 0; i < 3; i++ {
		ts += 1000
		trades = append(trades, trade(ts, 0, 0, 60_000, domain.ExitReasonTakeProfit))
	}
	for i := 0; i < 12; i++ {
		ts += 1000
		trades = append(trades, trade(ts, -30, -3, 60_000, domain.ExitReasonStopLoss))
	}

	m := Compute(trades)
	if m.TotalTrades != 23 || m.Wins != 8 || m.Losses != 15 {
		t.Fatalf("counts: %+v", m)
	}
	if pct := math.Round(m.WinRate * 100); pct != 35 {
		t.Fatalf("win rate = %v%%, want 35%%", pct)
	}
	if m.TotalPnLUSD != 8*50-12*30 {
		t.Fatalf("total pnl = %v", m.TotalPnLUSD)
	}
}

func TestComputeSharpeUndefined(t *testing.T) {
	// One trade: undefined.
	m := Compute([]*domain.ClosedTrade{trade(1000, 10, 1, 1000, domain.ExitReasonTakeProfit)})
	if m.SharpeRatio != nil {
		t.Fatal("Sharpe must be nil with fewer than 2 trades")
	}

	// Identical returns: zero variance, still undefined.
	m = Compute([]*domain.ClosedTrade{
		trade(1000, 10, 1, 1000, domain.ExitReasonTakeProfit),
		trade(2000, 10, 1, 1000, domain.ExitReasonTakeProfit),
	})
	if m.SharpeRatio != nil {
		t.Fatal("Sharpe must be nil with zero variance")
	}

	// Mixed returns: defined.
	m = Compute([]*domain.ClosedTrade{
		trade(1000, 10, 2, 1000, domain.ExitReasonTakeProfit),
		trade(2000, -5, -1, 1000, domain.ExitReasonStopLoss),
	})
	if m.SharpeRatio == nil {
		t.Fatal("Sharpe should be defined")
	}
	// mean 0.5, population stdev 1.5
	if got := *m.SharpeRatio; math.Abs(got-0.5/1.5) > 1e-9 {
		t.Fatalf("sharpe = %v", got)
	}
}

func TestComputeProfitFactor(t *testing.T) {
	// No losing trades: undefined, not +Inf and not zero.
	m := Compute([]*domain.ClosedTrade{
		trade(1000, 10, 1, 1000, domain.ExitReasonTakeProfit),
		trade(2000, 20, 2, 1000, domain.ExitReasonTakeProfit),
	})
	if m.ProfitFactor != nil {
		t.Fatal("profit factor must be nil with zero gross loss")
	}

	m = Compute([]*domain.ClosedTrade{
		trade(1000, 30, 3, 1000, domain.ExitReasonTakeProfit),
		trade(2000, -10, -1, 1000, domain.ExitReasonStopLoss),
	})
	if m.ProfitFactor == nil || *m.ProfitFactor != 3 {
		t.Fatalf("profit factor = %v, want 3", m.ProfitFactor)
	}
}

func TestComputeMaxDrawdown(t *testing.T) {
	// +10%, -20%, +5%: equity 1.10 -> 0.88 -> 0.924; worst decline is
	// from the 1.10 peak to 0.88 = 20%.
	m := Compute([]*domain.ClosedTrade{
		trade(1000, 100, 10, 1000, domain.ExitReasonTakeProfit),
		trade(2000, -200, -20, 1000, domain.ExitReasonStopLoss),
		trade(3000, 50, 5, 1000, domain.ExitReasonTakeProfit),
	})
	if math.Abs(m.MaxDrawdown-0.20) > 1e-9 {
		t.Fatalf("max drawdown = %v, want 0.20", m.MaxDrawdown)
	}
}

func TestComputeDrawdownUsesCloseTimeOrder(t *testing.T) {
	// Same trades fed out of close-time order must produce the same
	// drawdown: Compute sorts by exit time.
	shuffled := []*domain.ClosedTrade{
		trade(3000, 50, 5, 1000, domain.ExitReasonTakeProfit),
		trade(1000, 100, 10, 1000, domain.ExitReasonTakeProfit),
		trade(2000, -200, -20, 1000, domain.ExitReasonStopLoss),
	}
	m := Compute(shuffled)
	if math.Abs(m.MaxDrawdown-0.20) > 1e-9 {
		t.Fatalf("max drawdown = %v, want 0.20", m.MaxDrawdown)
	}
}

func TestComputeStreaksAndExtremes(t *testing.T) {
	m := Compute([]*domain.ClosedTrade{
		trade(1000, 10, 1, 60_000, domain.ExitReasonTakeProfit),
		trade(2000, 20, 8, 120_000, domain.ExitReasonTakeProfit),
		trade(3000, -5, -2, 30_000, domain.ExitReasonStopLoss),
		trade(4000, -5, -12, 30_000, domain.ExitReasonStopLoss),
		trade(5000, -5, -3, 60_000, domain.ExitReasonTimeLimit),
		trade(6000, 15, 4, 60_000, domain.ExitReasonTakeProfit),
	})
	if m.MaxConsecutiveWins != 2 || m.MaxConsecutiveLosses != 3 {
		t.Fatalf("streaks: %+v", m)
	}
	if m.LargestWinPct != 8 || m.LargestLossPct != -12 {
		t.Fatalf("extremes: win %v loss %v", m.LargestWinPct, m.LargestLossPct)
	}
	if m.AvgHoldDurationMs != 60_000 {
		t.Fatalf("avg hold = %v", m.AvgHoldDurationMs)
	}
}

func TestComputeMedian(t *testing.T) {
	m := Compute([]*domain.ClosedTrade{
		trade(1000, 1, 1, 1000, domain.ExitReasonTakeProfit),
		trade(2000, 2, 9, 1000, domain.ExitReasonTakeProfit),
		trade(3000, 3, 5, 1000, domain.ExitReasonTakeProfit),
	})
	if m.MedianPnLPct != 5 {
		t.Fatalf("median = %v, want 5", m.MedianPnLPct)
	}
	if m.AvgPnLPct != 5 {
		t.Fatalf("avg = %v, want 5", m.AvgPnLPct)
	}
}
