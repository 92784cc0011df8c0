package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/observability"
	"solana-strategy-lab/internal/reporting"
	"solana-strategy-lab/internal/storage"
	"solana-strategy-lab/internal/storage/memory"
	pgstore "solana-strategy-lab/internal/storage/postgres"
)

func main() {
	backtestID := flag.String("backtest-id", "", "Backtest run to report on")
	strategyName := flag.String("strategy", "", "List run IDs for a strategy and exit")
	outputDir := flag.String("output-dir", "reports", "Directory for generated files")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or LAB_POSTGRES_DSN)")
	useFixtures := flag.Bool("use-fixtures", false, "Use in-memory demo data instead of database")
	flag.Parse()

	v := viper.New()
	v.SetEnvPrefix("LAB")
	v.AutomaticEnv()
	if *postgresDSN == "" {
		*postgresDSN = v.GetString("POSTGRES_DSN")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var (
		resultStore storage.BacktestResultStore
		tradeStore  storage.TradeStore
	)
	if *useFixtures {
		resultStore, tradeStore = createMemoryStores(ctx)
		if *backtestID == "" {
			*backtestID = fixtureBacktestID
		}
	} else {
		if *postgresDSN == "" {
			fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required when not using fixtures")
			fmt.Fprintln(os.Stderr, "Use --use-fixtures to run with demo data instead")
			os.Exit(1)
		}
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()
		resultStore = pgstore.NewBacktestResultStore(pool)
		tradeStore = pgstore.NewTradeStore(pool)
	}

	if *strategyName != "" {
		results, err := resultStore.GetByStrategy(ctx, *strategyName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
			os.Exit(1)
		}
		for _, r := range results {
			fmt.Printf("%-24s %s  %s  trades=%d\n",
				r.ID,
				time.UnixMilli(r.CreatedAtMs).UTC().Format(time.RFC3339),
				r.Status,
				r.TradesExecuted)
		}
		return
	}

	if *backtestID == "" {
		fmt.Fprintln(os.Stderr, "Error: --backtest-id is required")
		os.Exit(1)
	}

	gen := reporting.NewGenerator(resultStore, tradeStore)
	report, err := gen.Generate(ctx, *backtestID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, *backtestID+".md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing markdown: %v\n", err)
		os.Exit(1)
	}
	observability.RecordReportGenerated("markdown")

	csvPath := filepath.Join(*outputDir, *backtestID+"_trades.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderTradesCSV(report.Trades)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing csv: %v\n", err)
		os.Exit(1)
	}
	observability.RecordReportGenerated("csv")

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
}

const fixtureBacktestID = "bt-demo"

// createMemoryStores builds in-memory stores seeded with one demo run
// so the report path can be exercised without a database.
func createMemoryStores(ctx context.Context) (storage.BacktestResultStore, storage.TradeStore) {
	resultStore := memory.NewBacktestResultStore()
	tradeStore := memory.NewTradeStore()

	sharpe := 1.31
	pf := 2.4
	result := &domain.BacktestResult{
		ID:             fixtureBacktestID,
		CreatedAtMs:    1_748_736_600_000,
		StrategyName:   "early-momentum",
		StartMs:        1_748_736_000_000,
		EndMs:          1_748_736_600_000,
		TokensAnalyzed: 3,
		TotalSignals:   4,
		TradesExecuted: 3,
		Status:         domain.StatusCompleted,
		Metrics: &domain.BacktestMetrics{
			TotalTrades:          3,
			Wins:                 2,
			Losses:               1,
			WinRate:              2.0 / 3.0,
			TotalPnLUSD:          145,
			AvgPnLPct:            4.83,
			MedianPnLPct:         9.5,
			SharpeRatio:          &sharpe,
			ProfitFactor:         &pf,
			MaxDrawdown:          0.105,
			LargestWinPct:        12.0,
			LargestLossPct:       -10.5,
			MaxConsecutiveWins:   2,
			MaxConsecutiveLosses: 1,
			AvgHoldDurationMs:    185_000,
		},
	}

	trades := []*domain.ClosedTrade{
		demoTrade("DemoTokenA", 1_748_736_060_000, 200_000, 0.000020, 0.0000224, 120, 12.0, "take_profit"),
		demoTrade("DemoTokenB", 1_748_736_120_000, 150_000, 0.000015, 0.00001343, -105, -10.5, "stop_loss"),
		demoTrade("DemoTokenA", 1_748_736_300_000, 205_000, 0.000024, 0.0000263, 130, 9.5, "take_profit"),
	}

	if err := resultStore.Insert(ctx, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
		os.Exit(1)
	}
	if err := tradeStore.InsertBulk(ctx, fixtureBacktestID, trades); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
		os.Exit(1)
	}
	return resultStore, tradeStore
}

func demoTrade(token string, entryMs, holdMs int64, entry, exit, pnlUSD, pnlPct float64, reason string) *domain.ClosedTrade {
	return &domain.ClosedTrade{
		TokenAddress:   token,
		SignalTimeMs:   entryMs,
		EntryTimeMs:    entryMs,
		EntryPrice:     entry,
		ExitTimeMs:     entryMs + holdMs,
		ExitPrice:      exit,
		SizeUSD:        1_000,
		PnLUSD:         pnlUSD,
		PnLPercent:     pnlPct,
		HoldDurationMs: holdMs,
		ExitReason:     reason,
	}
}
