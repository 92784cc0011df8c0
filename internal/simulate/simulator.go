// Package simulate executes paper trades against replayed price data.
// Every position moves IDLE -> OPEN -> CLOSED; the simulator owns open
// positions exclusively and emits immutable ClosedTrade records.
package simulate

import (
	"math"

	"solana-strategy-lab/internal/domain"
)

// Default execution parameters, taken from observed fill behaviour on
// Solana AMMs.
const (
	DefaultBaseSlippage     = 0.02
	DefaultVolatility       = 0.02
	volatilityMultiplier    = 2.0
	exitSlippageMultiplier  = 1.5
	maxSizeImpact           = 0.5
	DefaultStaleToleranceMs = 300_000
)

// Config controls position sizing and execution realism.
type Config struct {
	PositionSizeUSD float64
	MaxPositions    int // 0 means unlimited

	// BaseSlippage is the floor paid on every fill; Volatility scales an
	// additional deterministic penalty. Zero values disable each term.
	BaseSlippage float64
	Volatility   float64

	// StaleToleranceMs bounds how long a position may live on a
	// carried-forward price before a forced time_limit exit. Zero selects
	// the default.
	StaleToleranceMs int64

	Exits domain.ExitRules
}

func (c Config) staleTolerance() int64 {
	if c.StaleToleranceMs > 0 {
		return c.StaleToleranceMs
	}
	return DefaultStaleToleranceMs
}

// Simulator runs one portfolio. It is not safe for concurrent use; the
// backtest runner gives each worker its own instance.
type Simulator struct {
	cfg  Config
	open map[string]*position
}

type position struct {
	domain.Position
	signal       *domain.Signal
	liquidityUSD float64
	feeRate      float64
}

// New returns a simulator with no open positions.
func New(cfg Config) *Simulator {
	return &Simulator{cfg: cfg, open: make(map[string]*position)}
}

// OpenCount returns the number of currently open positions.
func (s *Simulator) OpenCount() int { return len(s.open) }

// HasOpen reports whether a position is open for token.
func (s *Simulator) HasOpen(token string) bool {
	_, ok := s.open[token]
	return ok
}

// Open enters a position on a signal. The entry fill pays slippage
// against the signal's liquidity plus the venue fee. Returns false when a
// position is already open for the token, the portfolio is full, or the
// signal price is unusable.
func (s *Simulator) Open(sig *domain.Signal, feeRate float64) bool {
	if sig.Price <= 0 || !isFinite(sig.Price) {
		return false
	}
	if _, ok := s.open[sig.TokenAddress]; ok {
		return false
	}
	if s.cfg.MaxPositions > 0 && len(s.open) >= s.cfg.MaxPositions {
		return false
	}

	slip := s.entrySlippage(s.cfg.PositionSizeUSD, sig.LiquidityUSD)
	entryPrice := sig.Price * (1 + slip) * (1 + feeRate)

	s.open[sig.TokenAddress] = &position{
		Position: domain.Position{
			TokenAddress:    sig.TokenAddress,
			SignalTimeMs:    sig.TimestampMs,
			EntryTimeMs:     sig.TimestampMs,
			EntryPrice:      entryPrice,
			SizeUSD:         s.cfg.PositionSizeUSD,
			PeakPrice:       sig.Price,
			LastPrice:       sig.Price,
			LastPriceTimeMs: sig.TimestampMs,
		},
		signal:       sig,
		liquidityUSD: sig.LiquidityUSD,
		feeRate:      feeRate,
	}
	return true
}

// Observe feeds a fresh price sample for token and evaluates exits.
// Returns the closed trade when an exit fired, nil otherwise.
func (s *Simulator) Observe(token string, nowMs int64, price, liquidityUSD, feeRate float64) *domain.ClosedTrade {
	pos, ok := s.open[token]
	if !ok {
		return nil
	}
	if price > 0 && isFinite(price) {
		pos.LastPrice = price
		pos.LastPriceTimeMs = nowMs
		pos.PriceStale = false
		pos.liquidityUSD = liquidityUSD
		pos.feeRate = feeRate
		if price > pos.PeakPrice {
			pos.PeakPrice = price
		}
	}
	return s.evaluate(pos, nowMs)
}

// Advance moves time forward for token without a fresh price. The last
// known price is carried forward flagged stale; once staleness exceeds
// the tolerance the position is force-closed as time_limit rather than
// simulated on stale data indefinitely.
func (s *Simulator) Advance(token string, nowMs int64) *domain.ClosedTrade {
	pos, ok := s.open[token]
	if !ok {
		return nil
	}
	pos.PriceStale = true
	if nowMs-pos.LastPriceTimeMs > s.cfg.staleTolerance() {
		return s.close(pos, nowMs, pos.LastPrice, domain.ExitReasonTimeLimit)
	}
	return s.evaluate(pos, nowMs)
}

// ForceClose unconditionally closes the token's position at the last
// known price, used when the event log ends with the position open.
func (s *Simulator) ForceClose(token string, nowMs int64) *domain.ClosedTrade {
	pos, ok := s.open[token]
	if !ok {
		return nil
	}
	return s.close(pos, nowMs, pos.LastPrice, domain.ExitReasonTimeLimit)
}

// evaluate checks the competing exit triggers in fixed priority order:
// stop_loss, take_profit, trailing_stop, time_limit. The first satisfied
// trigger wins; stop_loss is checked first so a sample breaching both
// thresholds resolves conservatively.
func (s *Simulator) evaluate(pos *position, nowMs int64) *domain.ClosedTrade {
	price := pos.LastPrice
	ex := s.cfg.Exits

	if ex.StopLossPct > 0 {
		stopPrice := pos.EntryPrice * (1 - ex.StopLossPct)
		if price <= stopPrice {
			return s.close(pos, nowMs, stopPrice, domain.ExitReasonStopLoss)
		}
	}
	if ex.TakeProfitPct > 0 {
		targetPrice := pos.EntryPrice * (1 + ex.TakeProfitPct)
		if price >= targetPrice {
			return s.close(pos, nowMs, targetPrice, domain.ExitReasonTakeProfit)
		}
	}
	if ex.TrailingEnabled && ex.TrailingPct > 0 {
		trailPrice := pos.PeakPrice * (1 - ex.TrailingPct)
		if price <= trailPrice {
			return s.close(pos, nowMs, price, domain.ExitReasonTrailingStop)
		}
	}
	if ex.MaxHoldSeconds > 0 && nowMs-pos.EntryTimeMs >= ex.MaxHoldSeconds*1000 {
		return s.close(pos, nowMs, price, domain.ExitReasonTimeLimit)
	}
	return nil
}

// close executes the exit fill and freezes the trade. Stop and target
// exits fill at their trigger price; trailing and time exits fill at the
// sampled price. Every exit pays slippage and the venue fee.
func (s *Simulator) close(pos *position, nowMs int64, rawPrice float64, reason string) *domain.ClosedTrade {
	delete(s.open, pos.TokenAddress)

	slip := s.exitSlippage(pos.SizeUSD, pos.liquidityUSD)
	exitPrice := rawPrice * (1 - slip) * (1 - pos.feeRate)

	returnFrac := 0.0
	if pos.EntryPrice > 0 {
		returnFrac = (exitPrice - pos.EntryPrice) / pos.EntryPrice
	}

	return &domain.ClosedTrade{
		TokenAddress:   pos.TokenAddress,
		SignalTimeMs:   pos.SignalTimeMs,
		EntryTimeMs:    pos.EntryTimeMs,
		EntryPrice:     pos.EntryPrice,
		ExitTimeMs:     nowMs,
		ExitPrice:      exitPrice,
		SizeUSD:        pos.SizeUSD,
		PnLUSD:         pos.SizeUSD * returnFrac,
		PnLPercent:     returnFrac * 100,
		HoldDurationMs: nowMs - pos.EntryTimeMs,
		ExitReason:     reason,
		SignalMetrics:  pos.signal,
	}
}

func (s *Simulator) entrySlippage(sizeUSD, liquidityUSD float64) float64 {
	return s.cfg.BaseSlippage +
		sizeImpact(sizeUSD, liquidityUSD) +
		s.cfg.Volatility*volatilityMultiplier
}

func (s *Simulator) exitSlippage(sizeUSD, liquidityUSD float64) float64 {
	return s.cfg.BaseSlippage*exitSlippageMultiplier +
		sizeImpact(sizeUSD, liquidityUSD) +
		s.cfg.Volatility*volatilityMultiplier
}

// sizeImpact is the piecewise price impact of fill size relative to
// available liquidity. Impact grows non-linearly through tiers at 1%,
// 5% and 10% of depth and is capped at 50%.
func sizeImpact(sizeUSD, liquidityUSD float64) float64 {
	if liquidityUSD <= 0 {
		return maxSizeImpact
	}
	pct := sizeUSD / liquidityUSD
	var impact float64
	switch {
	case pct < 0.01:
		impact = pct * 0.1
	case pct < 0.05:
		impact = 0.001 + (pct-0.01)*0.5
	case pct < 0.10:
		impact = 0.021 + (pct-0.05)*1.0
	default:
		impact = 0.071 + (pct-0.10)*2.0
	}
	return math.Min(impact, maxSizeImpact)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
