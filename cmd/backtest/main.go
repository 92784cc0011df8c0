package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"solana-strategy-lab/internal/backtest"
	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/observability"
	"solana-strategy-lab/internal/reporting"
	"solana-strategy-lab/internal/simulate"
	"solana-strategy-lab/internal/storage"
	chstore "solana-strategy-lab/internal/storage/clickhouse"
	"solana-strategy-lab/internal/storage/memory"
	pgstore "solana-strategy-lab/internal/storage/postgres"
	"solana-strategy-lab/internal/strategy"
)

func main() {
	// Strategy selection
	strategyFile := flag.String("strategy-file", "", "Path to a strategy document (yaml/json/toml)")
	templateName := flag.String("template", "", "Built-in strategy template name")
	listTemplates := flag.Bool("list-templates", false, "List built-in strategy templates and exit")

	// Data selection
	useFixtures := flag.Bool("use-fixtures", false, "Run against generated demo data instead of stores")
	tokensFlag := flag.String("tokens", "", "Comma-separated token addresses to backtest (store mode)")
	startMs := flag.Int64("start-ms", 0, "Window start, Unix ms")
	endMs := flag.Int64("end-ms", 0, "Window end, Unix ms")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or LAB_POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (or LAB_CLICKHOUSE_DSN)")

	// Execution
	workers := flag.Int("workers", 4, "Parallel token workers")
	persist := flag.Bool("persist", false, "Persist result and trades to storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output result as JSON")
	reportDir := flag.String("report-dir", "", "Write markdown report and trades CSV to this directory")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *listTemplates {
		for _, info := range strategy.ListTemplates() {
			fmt.Printf("%-22s %s\n", info.Key, info.Description)
		}
		return
	}

	// Env fallback for connection strings
	v := viper.New()
	v.SetEnvPrefix("LAB")
	v.AutomaticEnv()
	if *postgresDSN == "" {
		*postgresDSN = v.GetString("POSTGRES_DSN")
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = v.GetString("CLICKHOUSE_DSN")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
		cancel()
	}()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// Resolve the strategy
	strat, err := loadStrategy(*strategyFile, *templateName)
	if err != nil {
		logger.Fatal("load strategy", zap.Error(err))
	}

	// Assemble stores
	var (
		eventStore  storage.TradeEventStore
		poolStore   storage.PoolStateStore
		metaStore   storage.TokenMetadataStore
		resultStore storage.BacktestResultStore
		tradeStore  storage.TradeStore
	)

	if *useFixtures {
		resultStore = memory.NewBacktestResultStore()
		tradeStore = memory.NewTradeStore()
	} else {
		if *postgresDSN == "" || *clickhouseDSN == "" {
			logger.Fatal("store mode needs --postgres-dsn and --clickhouse-dsn (or --use-fixtures)")
		}
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal("connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal("connect to clickhouse", zap.Error(err))
		}
		defer conn.Close()

		eventStore = pgstore.NewTradeEventStore(pool)
		metaStore = pgstore.NewTokenMetadataStore(pool)
		resultStore = pgstore.NewBacktestResultStore(pool)
		tradeStore = pgstore.NewTradeStore(pool)
		poolStore = chstore.NewPoolStateStore(conn)
	}

	// Assemble token timelines
	var (
		tokens  []backtest.TokenData
		skipped int
	)
	if *useFixtures {
		tokens, skipped = fixtureTokens(strat)
		if *startMs == 0 && *endMs == 0 {
			*startMs, *endMs = fixtureWindow()
		}
	} else {
		if *tokensFlag == "" {
			logger.Fatal("store mode needs --tokens")
		}
		if *endMs <= *startMs {
			logger.Fatal("store mode needs --start-ms < --end-ms")
		}
		tokens, err = loadTokens(ctx, eventStore, poolStore, metaStore, strat,
			strings.Split(*tokensFlag, ","), *startMs, *endMs)
		if err != nil {
			logger.Fatal("load token data", zap.Error(err))
		}
	}

	runner, err := backtest.NewRunner(backtest.Options{
		Tree: strat.Conditions,
		Simulator: simulate.Config{
			PositionSizeUSD: strat.PositionSizeUSD,
			MaxPositions:    strat.MaxPositions,
			Exits:           strat.Exits,
		},
		Workers: *workers,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("build runner", zap.Error(err))
	}

	started := time.Now()
	result, runErr := runner.Run(ctx, strat.Name, *startMs, *endMs, tokens)
	elapsed := time.Since(started)

	result.ID = fmt.Sprintf("bt-%d", started.UnixMilli())
	result.CreatedAtMs = started.UnixMilli()
	result.SkippedRecords = skipped

	observability.DefaultMetrics.SignalsEmitted.Add(float64(result.TotalSignals))
	observability.DefaultMetrics.TradesSimulated.Add(float64(result.TradesExecuted))
	observability.RecordBacktestRun(result.Status, elapsed.Seconds())

	if runErr != nil {
		logger.Error("backtest failed", zap.Error(runErr))
	}

	if *persist {
		if err := resultStore.Insert(ctx, result); err != nil {
			logger.Error("persist result", zap.Error(err))
		} else if err := tradeStore.InsertBulk(ctx, result.ID, result.Trades); err != nil {
			logger.Error("persist trades", zap.Error(err))
		} else {
			logger.Info("result persisted", zap.String("backtest_id", result.ID))
		}
	}

	if *reportDir != "" {
		if err := writeReports(*reportDir, result); err != nil {
			logger.Error("write reports", zap.Error(err))
		}
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(result, elapsed)
	}

	if runErr != nil {
		os.Exit(1)
	}
}

// loadStrategy resolves the strategy from a document file or a built-in
// template. Exactly one source must be given.
func loadStrategy(file, template string) (*strategy.Strategy, error) {
	switch {
	case file != "" && template != "":
		return nil, fmt.Errorf("--strategy-file and --template are mutually exclusive")
	case file != "":
		return strategy.Load(file)
	case template != "":
		return strategy.Template(template)
	default:
		return nil, fmt.Errorf("one of --strategy-file or --template is required")
	}
}

// loadTokens assembles per-token timelines from the stores, applying
// the strategy's venue filter to trade events.
func loadTokens(
	ctx context.Context,
	eventStore storage.TradeEventStore,
	poolStore storage.PoolStateStore,
	metaStore storage.TokenMetadataStore,
	strat *strategy.Strategy,
	addresses []string,
	startMs, endMs int64,
) ([]backtest.TokenData, error) {
	var tokens []backtest.TokenData
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}

		events, err := eventStore.GetByTimeRange(ctx, addr, startMs, endMs)
		if err != nil {
			return nil, fmt.Errorf("load events for %s: %w", addr, err)
		}
		filtered := events[:0]
		for _, ev := range events {
			if strat.TradesVenue(ev.Venue) {
				filtered = append(filtered, ev)
			}
		}

		pools, err := poolStore.GetByTimeRange(ctx, addr, startMs, endMs)
		if err != nil {
			return nil, fmt.Errorf("load pools for %s: %w", addr, err)
		}

		meta, err := metaStore.GetByToken(ctx, addr)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("load metadata for %s: %w", addr, err)
		}

		tokens = append(tokens, backtest.TokenData{
			Token:    addr,
			Metadata: meta,
			Trades:   filtered,
			Pools:    pools,
		})
	}
	return tokens, nil
}

// writeReports renders the markdown summary and trades CSV.
func writeReports(dir string, result *domain.BacktestResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	report := reporting.Build(result, result.Trades, time.Now().UTC())

	mdPath := filepath.Join(dir, result.ID+".md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return err
	}
	observability.RecordReportGenerated("markdown")

	csvPath := filepath.Join(dir, result.ID+"_trades.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderTradesCSV(result.Trades)), 0o644); err != nil {
		return err
	}
	observability.RecordReportGenerated("csv")

	return nil
}

// printResult outputs a human-readable run summary.
func printResult(r *domain.BacktestResult, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:           %s\n", r.ID)
	fmt.Printf("Strategy:         %s\n", r.StrategyName)
	fmt.Printf("Status:           %s\n", r.Status)
	fmt.Printf("Window:           %s .. %s\n",
		time.UnixMilli(r.StartMs).UTC().Format(time.RFC3339),
		time.UnixMilli(r.EndMs).UTC().Format(time.RFC3339))
	fmt.Printf("Tokens Analyzed:  %d\n", r.TokensAnalyzed)
	fmt.Printf("Total Signals:    %d\n", r.TotalSignals)
	fmt.Printf("Trades Executed:  %d\n", r.TradesExecuted)
	fmt.Printf("Skipped Records:  %d\n", r.SkippedRecords)
	fmt.Printf("Elapsed:          %v\n", elapsed.Round(time.Millisecond))

	if m := r.Metrics; m != nil && m.TotalTrades > 0 {
		fmt.Println()
		fmt.Println("Performance:")
		fmt.Printf("  Win Rate:       %.2f%% (%d/%d)\n", m.WinRate*100, m.Wins, m.TotalTrades)
		fmt.Printf("  Total PnL:      $%.2f\n", m.TotalPnLUSD)
		fmt.Printf("  Avg PnL:        %.2f%%\n", m.AvgPnLPct)
		if m.SharpeRatio != nil {
			fmt.Printf("  Sharpe Ratio:   %.4f\n", *m.SharpeRatio)
		}
		if m.ProfitFactor != nil {
			fmt.Printf("  Profit Factor:  %.4f\n", *m.ProfitFactor)
		}
		fmt.Printf("  Max Drawdown:   %.2f%%\n", m.MaxDrawdown*100)
	}

	if len(r.TokenErrors) > 0 {
		fmt.Println()
		fmt.Println("Token Errors:")
		for _, e := range r.TokenErrors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
