// Package metrics reduces closed trades into summary statistics. The
// reduction is pure: metrics are always re-derivable from the trade list
// and never stored as an independent source of truth.
package metrics

import (
	"math"
	"sort"

	"solana-strategy-lab/internal/domain"
)

// Compute reduces trades into BacktestMetrics. Statistics that are
// undefined for the input (Sharpe with fewer than two trades or zero
// variance, profit factor with zero gross loss) come back nil rather
// than zero.
func Compute(trades []*domain.ClosedTrade) *domain.BacktestMetrics {
	m := &domain.BacktestMetrics{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return m
	}

	// Equity-curve statistics depend on close-time order; work on a
	// sorted copy so the caller's slice is untouched.
	ordered := make([]*domain.ClosedTrade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitTimeMs < ordered[j].ExitTimeMs
	})

	var (
		grossProfit, grossLoss float64
		pcts                   []float64
		holdTotalMs            int64
		curWins, curLosses     int
	)

	for _, tr := range ordered {
		m.TotalPnLUSD += tr.PnLUSD
		pcts = append(pcts, tr.PnLPercent)
		holdTotalMs += tr.HoldDurationMs

		if tr.PnLUSD > 0 {
			m.Wins++
			grossProfit += tr.PnLUSD
			curWins++
			curLosses = 0
			if curWins > m.MaxConsecutiveWins {
				m.MaxConsecutiveWins = curWins
			}
			if tr.PnLPercent > m.LargestWinPct {
				m.LargestWinPct = tr.PnLPercent
			}
		} else {
			m.Losses++
			grossLoss += -tr.PnLUSD
			curLosses++
			curWins = 0
			if curLosses > m.MaxConsecutiveLosses {
				m.MaxConsecutiveLosses = curLosses
			}
			if tr.PnLPercent < m.LargestLossPct {
				m.LargestLossPct = tr.PnLPercent
			}
		}
	}

	m.WinRate = float64(m.Wins) / float64(m.TotalTrades)
	m.AvgPnLPct = mean(pcts)
	m.MedianPnLPct = median(pcts)
	m.AvgHoldDurationMs = holdTotalMs / int64(len(ordered))
	m.MaxDrawdown = maxDrawdown(ordered)

	if sr, ok := sharpe(pcts); ok {
		m.SharpeRatio = &sr
	}
	if grossLoss > 0 {
		pf := grossProfit / grossLoss
		m.ProfitFactor = &pf
	}
	return m
}

// sharpe is mean over standard deviation of per-trade returns. It is
// undefined with fewer than two trades or zero variance.
func sharpe(pcts []float64) (float64, bool) {
	if len(pcts) < 2 {
		return 0, false
	}
	mu := mean(pcts)
	var variance float64
	for _, p := range pcts {
		d := p - mu
		variance += d * d
	}
	variance /= float64(len(pcts))
	if variance == 0 {
		return 0, false
	}
	return mu / math.Sqrt(variance), true
}

// maxDrawdown is the largest peak-to-trough decline of the compounded
// equity curve, as a fraction of the peak. Trades must already be in
// close-time order.
func maxDrawdown(ordered []*domain.ClosedTrade) float64 {
	equity := 1.0
	peak := 1.0
	worst := 0.0
	for _, tr := range ordered {
		equity *= 1 + tr.PnLPercent/100
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
