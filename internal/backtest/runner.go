package backtest

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"solana-strategy-lab/internal/condition"
	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/metrics"
	"solana-strategy-lab/internal/simulate"
)

// TokenData is everything one token's simulation needs, materialized
// before the run starts. No I/O happens inside the core.
type TokenData struct {
	Token    string
	Metadata *domain.TokenMetadata
	Trades   []*domain.TradeEvent
	Pools    []*domain.PoolState
}

// Progress is invoked after each token completes. done counts completed
// tokens including this one.
type Progress func(token string, done, total int)

// Options configures a Runner.
type Options struct {
	Tree      domain.ConditionTree
	Simulator simulate.Config
	Workers   int // worker pool size, 1 when unset
	Logger    *zap.Logger
	Progress  Progress

	// SignalCooldownSeconds spaces consecutive signals per token; 0
	// selects the engine default.
	SignalCooldownSeconds int
}

// Runner executes a strategy over many tokens on a bounded worker pool.
// Token simulations are independent; within a token, processing is
// strictly sequential. Cancellation is honored at token boundaries only,
// never mid-token.
type Runner struct {
	opts      Options
	evaluator *condition.Evaluator
	windows   []domain.WindowSpec
	logger    *zap.Logger
}

// NewRunner validates the strategy and builds a runner.
func NewRunner(opts Options) (*Runner, error) {
	evaluator, err := condition.New(opts.Tree)
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		opts:      opts,
		evaluator: evaluator,
		windows:   opts.Tree.Windows(),
		logger:    logger,
	}, nil
}

type tokenOutcome struct {
	token   string
	signals int
	trades  []*domain.ClosedTrade
	err     error
}

// Run replays every token through the strategy and assembles one
// BacktestResult. Replaying the same inputs with the same configuration
// yields an identical result: workers only affect scheduling, never the
// per-token outcomes or their assembled order.
func (r *Runner) Run(ctx context.Context, strategyName string, startMs, endMs int64, tokens []TokenData) (*domain.BacktestResult, error) {
	result := &domain.BacktestResult{
		StrategyName:   strategyName,
		StartMs:        startMs,
		EndMs:          endMs,
		TokensAnalyzed: len(tokens),
		Status:         domain.StatusRunning,
	}

	outcomes := make([]tokenOutcome, len(tokens))
	jobs := make(chan int)
	var done int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < r.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.runToken(tokens[i], endMs)

				mu.Lock()
				done++
				n := done
				mu.Unlock()
				if r.opts.Progress != nil {
					r.opts.Progress(tokens[i].Token, n, len(tokens))
				}
			}
		}()
	}

	cancelled := false
	for i := range tokens {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, out := range outcomes {
		if out.token == "" {
			continue // never scheduled due to cancellation
		}
		if out.err != nil {
			result.TokenErrors = append(result.TokenErrors, (&TokenError{Token: out.token, Err: out.err}).Error())
			continue
		}
		result.TotalSignals += out.signals
		result.Trades = append(result.Trades, out.trades...)
	}

	sortTrades(result.Trades)
	sort.Strings(result.TokenErrors)
	result.TradesExecuted = len(result.Trades)
	result.Metrics = metrics.Compute(result.Trades)

	if cancelled {
		result.Status = domain.StatusFailed
		msg := context.Cause(ctx).Error()
		result.ErrorMessage = &msg
		return result, ctx.Err()
	}
	result.Status = domain.StatusCompleted

	r.logger.Info("backtest complete",
		zap.String("strategy", strategyName),
		zap.Int("tokens", len(tokens)),
		zap.Int("signals", result.TotalSignals),
		zap.Int("trades", result.TradesExecuted),
		zap.Int("token_errors", len(result.TokenErrors)),
	)
	return result, nil
}

// runToken replays a single token start to finish. Each token gets its
// own simulator so no mutable state crosses token boundaries.
func (r *Runner) runToken(data TokenData, endMs int64) tokenOutcome {
	engine := NewEngine(EngineOptions{
		Token:     data.Token,
		Evaluator: r.evaluator,
		Windows:   r.windows,
		Simulator: simulate.New(r.opts.Simulator),
		Metadata:  data.Metadata,

		CooldownSeconds: r.opts.SignalCooldownSeconds,
	})

	timeline := MergeStreams(data.Trades, data.Pools)
	for _, ev := range timeline {
		if err := engine.OnEvent(ev); err != nil {
			r.logger.Warn("token aborted",
				zap.String("token", data.Token),
				zap.Error(err),
			)
			return tokenOutcome{token: data.Token, err: err}
		}
	}
	engine.Finish(endMs)

	return tokenOutcome{
		token:   data.Token,
		signals: engine.Signals(),
		trades:  engine.Trades(),
	}
}

// sortTrades orders trades by close time, breaking ties by token then
// entry time so assembly is deterministic across runs.
func sortTrades(trades []*domain.ClosedTrade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if a.ExitTimeMs != b.ExitTimeMs {
			return a.ExitTimeMs < b.ExitTimeMs
		}
		if a.TokenAddress != b.TokenAddress {
			return a.TokenAddress < b.TokenAddress
		}
		return a.EntryTimeMs < b.EntryTimeMs
	})
}
