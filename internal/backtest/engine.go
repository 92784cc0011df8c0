package backtest

import (
	"fmt"

	"solana-strategy-lab/internal/condition"
	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/normalize"
	"solana-strategy-lab/internal/rolling"
	"solana-strategy-lab/internal/simulate"
)

// Engine replays one token's timeline through the full pipeline:
// rolling aggregation, condition evaluation, signal emission, trade
// simulation. All state is private to the token; the engine is strictly
// sequential.
type Engine struct {
	token     string
	evaluator *condition.Evaluator
	agg       *rolling.Aggregator
	sim       *simulate.Simulator
	meta      *domain.TokenMetadata

	pool    *domain.PoolState
	seen    map[string]bool
	last    *Event
	feeRate float64

	cooldownMs   int64
	lastSignalMs int64

	signals    int
	duplicates int
	trades     []*domain.ClosedTrade
}

// DefaultSignalCooldownSeconds suppresses repeat signals in close
// succession after a match.
const DefaultSignalCooldownSeconds = 60

// EngineOptions configures a per-token engine.
type EngineOptions struct {
	Token     string
	Evaluator *condition.Evaluator
	Windows   []domain.WindowSpec
	Simulator *simulate.Simulator
	Metadata  *domain.TokenMetadata // nil when unknown

	// CooldownSeconds spaces out consecutive signals; 0 selects the
	// default.
	CooldownSeconds int
}

// NewEngine creates an engine for one token.
func NewEngine(opts EngineOptions) *Engine {
	cooldown := opts.CooldownSeconds
	if cooldown <= 0 {
		cooldown = DefaultSignalCooldownSeconds
	}
	return &Engine{
		token:        opts.Token,
		evaluator:    opts.Evaluator,
		agg:          rolling.NewAggregator(opts.Token, opts.Windows),
		sim:          opts.Simulator,
		meta:         opts.Metadata,
		seen:         make(map[string]bool),
		cooldownMs:   int64(cooldown) * 1000,
		lastSignalMs: -1,
	}
}

// OnEvent applies the next timeline element. Returns ErrOutOfOrder
// (wrapped) when the element sorts behind already-applied state; that
// error is fatal to this token's run.
func (e *Engine) OnEvent(ev *Event) error {
	if e.last != nil && compareEvents(ev, e.last) < 0 {
		return fmt.Errorf("%w: %s at t=%d behind t=%d",
			ErrOutOfOrder, ev.Kind, ev.TimestampMs, e.last.TimestampMs)
	}
	e.last = ev

	switch ev.Kind {
	case EventKindTrade:
		if err := e.onTrade(ev.Trade); err != nil {
			return err
		}
	case EventKindPool:
		e.onPool(ev.Pool)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	e.tick(ev.TimestampMs)
	return nil
}

func (e *Engine) onTrade(tr *domain.TradeEvent) error {
	if e.seen[tr.Signature] {
		e.duplicates++
		return nil
	}
	e.seen[tr.Signature] = true

	// Failed transactions advance time but contribute nothing to the
	// aggregates.
	if tr.Success {
		if err := e.agg.Add(tr); err != nil {
			return fmt.Errorf("%w: %v", ErrOutOfOrder, err)
		}
	}
	e.agg.Advance(tr.TimestampMs)

	// No fresh price on a bare trade; carry the position forward.
	if closed := e.sim.Advance(e.token, tr.TimestampMs); closed != nil {
		e.trades = append(e.trades, closed)
	}
	return nil
}

func (e *Engine) onPool(ps *domain.PoolState) {
	e.pool = ps
	e.agg.Advance(ps.TimestampMs)

	if model, err := normalize.ModelFor(ps.Venue); err == nil {
		e.feeRate = model.FeeRate(ps)
	}

	if closed := e.sim.Observe(e.token, ps.TimestampMs, ps.Price, ps.LiquidityUSD, e.feeRate); closed != nil {
		e.trades = append(e.trades, closed)
	}
}

// tick evaluates the strategy at the current instant. At most one signal
// is emitted per tick, and never while a position is open for the token.
func (e *Engine) tick(nowMs int64) {
	if e.sim.HasOpen(e.token) {
		return
	}
	if e.lastSignalMs >= 0 && nowMs-e.lastSignalMs < e.cooldownMs {
		return
	}
	if e.pool == nil || e.pool.Price <= 0 {
		return
	}

	res := e.evaluator.Evaluate(condition.Input{
		NowMs:    nowMs,
		Metadata: e.meta,
		Pool:     e.pool,
		Windows:  e.agg.Snapshots(),
	})
	if !res.Match {
		return
	}

	sig := &domain.Signal{
		TokenAddress: e.token,
		TimestampMs:  nowMs,
		Price:        e.pool.Price,
		LiquidityUSD: e.pool.LiquidityUSD,
		MarketCap:    e.pool.MarketCap,
		Windows:      e.agg.Snapshots(),
	}
	e.signals++
	e.lastSignalMs = nowMs
	e.sim.Open(sig, e.feeRate)
}

// Finish closes any position still open at the end of the timeline.
func (e *Engine) Finish(endMs int64) {
	if closed := e.sim.ForceClose(e.token, endMs); closed != nil {
		e.trades = append(e.trades, closed)
	}
}

// Signals returns how many signals the strategy emitted for this token.
func (e *Engine) Signals() int { return e.signals }

// Duplicates returns how many trade events were dropped as signature
// duplicates.
func (e *Engine) Duplicates() int { return e.duplicates }

// Trades returns the closed trades in close order.
func (e *Engine) Trades() []*domain.ClosedTrade { return e.trades }
