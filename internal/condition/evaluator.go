// Package condition evaluates a strategy's condition tree against the
// live state of one token. Evaluation is pure: the same inputs always
// produce the same outcome.
package condition

import (
	"fmt"

	"solana-strategy-lab/internal/domain"
)

// Condition names used in check results and validation errors.
const (
	CondTokenAge      = "token_age"
	CondLiquidity     = "liquidity"
	CondMarketCap     = "market_cap"
	CondVolumeWindow  = "volume_window"
	CondLargeBuys     = "large_buys"
	CondBuyPressure   = "buy_pressure"
	CondUniqueWallets = "unique_wallets"
)

// Input is everything an evaluation tick sees for one token.
type Input struct {
	NowMs    int64
	Metadata *domain.TokenMetadata // nil when unknown
	Pool     *domain.PoolState     // latest observed state, nil when none yet
	Windows  map[int]domain.WindowSnapshot
}

// Check records the outcome of one enabled condition for auditability.
type Check struct {
	Condition string
	Pass      bool
	Value     float64
	Threshold float64
	Reason    string // set when the condition failed for a structural reason
}

// Result is the outcome of evaluating a full tree.
type Result struct {
	Match  bool
	Checks []Check
}

// Evaluator applies one validated condition tree.
type Evaluator struct {
	tree domain.ConditionTree
}

// New validates the tree and returns an evaluator. Operators and units
// are checked up front so evaluation never sees a malformed condition.
func New(tree domain.ConditionTree) (*Evaluator, error) {
	if err := Validate(tree); err != nil {
		return nil, err
	}
	return &Evaluator{tree: tree}, nil
}

// Validate checks every enabled condition for unknown operators, units
// and non-positive thresholds where those make no sense.
func Validate(tree domain.ConditionTree) error {
	checkOp := func(name string, op domain.Operator) error {
		if !domain.KnownOperator(op) {
			return fmt.Errorf("%s: unknown operator %q", name, op)
		}
		return nil
	}

	if tree.TokenAge.Enabled {
		if err := checkOp(CondTokenAge, tree.TokenAge.Operator); err != nil {
			return err
		}
		switch tree.TokenAge.Unit {
		case "", domain.UnitMinutes, domain.UnitHours, domain.UnitDays:
		default:
			return fmt.Errorf("%s: unknown unit %q", CondTokenAge, tree.TokenAge.Unit)
		}
		if tree.TokenAge.Value < 0 {
			return fmt.Errorf("%s: negative value %v", CondTokenAge, tree.TokenAge.Value)
		}
	}
	if tree.Liquidity.Enabled {
		if err := checkOp(CondLiquidity, tree.Liquidity.Operator); err != nil {
			return err
		}
	}
	if tree.MarketCap.Enabled {
		if err := checkOp(CondMarketCap, tree.MarketCap.Operator); err != nil {
			return err
		}
	}
	if tree.VolumeWindow.Enabled {
		if err := checkOp(CondVolumeWindow, tree.VolumeWindow.Operator); err != nil {
			return err
		}
	}
	if tree.BuyPressure.Enabled {
		if err := checkOp(CondBuyPressure, tree.BuyPressure.Operator); err != nil {
			return err
		}
	}
	if tree.UniqueWallets.Enabled {
		if err := checkOp(CondUniqueWallets, tree.UniqueWallets.Operator); err != nil {
			return err
		}
	}
	if tree.LargeBuys.Enabled {
		if tree.LargeBuys.MinAmount <= 0 {
			return fmt.Errorf("%s: min_amount must be positive", CondLargeBuys)
		}
		if tree.LargeBuys.MinCount < 0 {
			return fmt.Errorf("%s: negative min_count", CondLargeBuys)
		}
	}
	return nil
}

// Evaluate runs every enabled condition and ANDs the outcomes. A tree
// with no enabled conditions never matches.
func (e *Evaluator) Evaluate(in Input) Result {
	if !e.tree.AnyEnabled() {
		return Result{Match: false}
	}

	res := Result{Match: true}
	record := func(c Check) {
		res.Checks = append(res.Checks, c)
		if !c.Pass {
			res.Match = false
		}
	}

	if c := e.tree.TokenAge; c.Enabled {
		record(e.checkTokenAge(c, in))
	}
	if c := e.tree.Liquidity; c.Enabled {
		record(checkPoolValue(CondLiquidity, c, in.Pool, func(ps *domain.PoolState) float64 {
			return ps.LiquidityUSD
		}))
	}
	if c := e.tree.MarketCap; c.Enabled {
		record(checkPoolValue(CondMarketCap, c, in.Pool, func(ps *domain.PoolState) float64 {
			return ps.MarketCap
		}))
	}
	if c := e.tree.VolumeWindow; c.Enabled {
		record(checkWindowed(CondVolumeWindow, c, in.Windows, func(s *domain.WindowSnapshot) float64 {
			return s.VolumeUSD
		}))
	}
	if c := e.tree.BuyPressure; c.Enabled {
		record(checkWindowed(CondBuyPressure, c, in.Windows, func(s *domain.WindowSnapshot) float64 {
			return s.BuySellRatio()
		}))
	}
	if c := e.tree.UniqueWallets; c.Enabled {
		record(checkWindowed(CondUniqueWallets, c, in.Windows, func(s *domain.WindowSnapshot) float64 {
			return float64(s.UniqueWallets)
		}))
	}
	if c := e.tree.LargeBuys; c.Enabled {
		record(checkLargeBuys(c, in.Windows))
	}
	return res
}

func (e *Evaluator) checkTokenAge(c domain.AgeCondition, in Input) Check {
	check := Check{Condition: CondTokenAge, Threshold: c.Value}
	if in.Metadata == nil || in.Metadata.CreatedAtMs == 0 {
		check.Reason = "token age unknown"
		return check
	}
	var unitMs float64
	switch c.Unit {
	case domain.UnitMinutes:
		unitMs = 60_000
	case domain.UnitDays:
		unitMs = 86_400_000
	default: // hours
		unitMs = 3_600_000
	}
	ageInUnits := float64(in.Metadata.AgeMsAt(in.NowMs)) / unitMs
	check.Value = ageInUnits
	check.Pass = c.Operator.Compare(ageInUnits, c.Value)
	return check
}

func checkPoolValue(name string, c domain.ThresholdCondition, pool *domain.PoolState, pick func(*domain.PoolState) float64) Check {
	check := Check{Condition: name, Threshold: c.Value}
	if pool == nil {
		check.Reason = "no pool state observed"
		return check
	}
	check.Value = pick(pool)
	check.Pass = c.Operator.Compare(check.Value, c.Value)
	return check
}

func checkWindowed(name string, c domain.WindowedCondition, windows map[int]domain.WindowSnapshot, pick func(*domain.WindowSnapshot) float64) Check {
	check := Check{Condition: name, Threshold: c.Value}
	snap, ok := windows[domain.EffectiveWindowSeconds(c.WindowSeconds)]
	if !ok {
		check.Reason = "window not maintained"
		return check
	}
	check.Value = pick(&snap)
	check.Pass = c.Operator.Compare(check.Value, c.Value)
	return check
}

// checkLargeBuys has two modes. With min_count set it requires that many
// individual buys at or above min_amount. Without it, min_amount is a
// threshold on the window's total buy volume.
func checkLargeBuys(c domain.LargeBuysCondition, windows map[int]domain.WindowSnapshot) Check {
	check := Check{Condition: CondLargeBuys}
	snap, ok := windows[domain.EffectiveWindowSeconds(c.WindowSeconds)]
	if !ok {
		check.Reason = "window not maintained"
		return check
	}
	if c.MinCount > 0 {
		check.Value = float64(snap.LargeBuyCount)
		check.Threshold = float64(c.MinCount)
		check.Pass = snap.LargeBuyCount >= c.MinCount
		return check
	}
	check.Value = snap.BuyVolumeUSD
	check.Threshold = c.MinAmount
	check.Pass = snap.BuyVolumeUSD >= c.MinAmount
	return check
}
