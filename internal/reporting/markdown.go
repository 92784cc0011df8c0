package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	res := r.Result

	sb.WriteString(fmt.Sprintf("# Backtest Report: %s\n\n", res.StrategyName))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Status: %s\n\n", res.ID, res.Status))

	// Run summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Window Start (ms) | %d |\n", res.StartMs))
	sb.WriteString(fmt.Sprintf("| Window End (ms) | %d |\n", res.EndMs))
	sb.WriteString(fmt.Sprintf("| Tokens Analyzed | %d |\n", res.TokensAnalyzed))
	sb.WriteString(fmt.Sprintf("| Total Signals | %d |\n", res.TotalSignals))
	sb.WriteString(fmt.Sprintf("| Trades Executed | %d |\n", res.TradesExecuted))
	sb.WriteString(fmt.Sprintf("| Skipped Records | %d |\n", res.SkippedRecords))
	sb.WriteString("\n")

	if res.ErrorMessage != nil {
		sb.WriteString(fmt.Sprintf("**Run error:** %s\n\n", *res.ErrorMessage))
	}

	// Performance metrics
	sb.WriteString("## Performance\n\n")
	if m := res.Metrics; m != nil && m.TotalTrades > 0 {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", m.TotalTrades))
		sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", m.Wins, m.Losses))
		sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", m.WinRate*100))
		sb.WriteString(fmt.Sprintf("| Total PnL | $%.2f |\n", m.TotalPnLUSD))
		sb.WriteString(fmt.Sprintf("| Avg PnL | %.2f%% |\n", m.AvgPnLPct))
		sb.WriteString(fmt.Sprintf("| Median PnL | %.2f%% |\n", m.MedianPnLPct))
		sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %s |\n", formatOptional(m.SharpeRatio)))
		sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatOptional(m.ProfitFactor)))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", m.MaxDrawdown*100))
		sb.WriteString(fmt.Sprintf("| Largest Win / Loss | %.2f%% / %.2f%% |\n", m.LargestWinPct, m.LargestLossPct))
		sb.WriteString(fmt.Sprintf("| Max Consecutive Wins / Losses | %d / %d |\n", m.MaxConsecutiveWins, m.MaxConsecutiveLosses))
		sb.WriteString(fmt.Sprintf("| Avg Hold Duration | %s |\n", formatDuration(m.AvgHoldDurationMs)))
	} else {
		sb.WriteString("No trades executed.\n")
	}
	sb.WriteString("\n")

	// Exit breakdown
	sb.WriteString("## Exit Breakdown\n\n")
	if len(r.ExitBreakdown) > 0 {
		sb.WriteString("| Exit Reason | Trades | Total PnL | Avg PnL |\n")
		sb.WriteString("|-------------|--------|-----------|--------|\n")
		for _, row := range r.ExitBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | $%.2f | %.2f%% |\n",
				row.Reason, row.Count, row.TotalPnL, row.AvgPnLPct))
		}
	} else {
		sb.WriteString("No exit data available.\n")
	}
	sb.WriteString("\n")

	// Token breakdown
	sb.WriteString("## Per-Token Outcomes\n\n")
	if len(r.TokenBreakdown) > 0 {
		sb.WriteString("| Token | Trades | Wins | Total PnL |\n")
		sb.WriteString("|-------|--------|------|-----------|\n")
		for _, row := range r.TokenBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | $%.2f |\n",
				row.TokenAddress, row.Trades, row.Wins, row.TotalPnLUSD))
		}
	} else {
		sb.WriteString("No per-token data available.\n")
	}
	sb.WriteString("\n")

	// Token errors
	if len(res.TokenErrors) > 0 {
		sb.WriteString("## Token Errors\n\n")
		for _, e := range res.TokenErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatOptional renders a nil-able statistic; undefined values render
// as "n/a" rather than zero.
func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

func formatDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
