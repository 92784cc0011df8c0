package reporting

import (
	"fmt"
	"strings"

	"solana-strategy-lab/internal/domain"
)

// RenderTradesCSV renders closed trades as a CSV string.
func RenderTradesCSV(trades []*domain.ClosedTrade) string {
	var sb strings.Builder

	sb.WriteString("token_address,signal_time_ms,entry_time_ms,entry_price,exit_time_ms,exit_price,")
	sb.WriteString("size_usd,pnl_usd,pnl_percent,hold_duration_ms,exit_reason\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%.10g,%d,%.10g,%.2f,%.2f,%.4f,%d,%s\n",
			t.TokenAddress,
			t.SignalTimeMs,
			t.EntryTimeMs,
			t.EntryPrice,
			t.ExitTimeMs,
			t.ExitPrice,
			t.SizeUSD,
			t.PnLUSD,
			t.PnLPercent,
			t.HoldDurationMs,
			t.ExitReason,
		))
	}

	return sb.String()
}
