package domain

// Operator is a comparison operator applied between a live value and a
// configured threshold.
type Operator string

// Supported comparison operators.
const (
	OpGreaterThan      Operator = "greater_than"
	OpGreaterThanEqual Operator = "greater_than_equal"
	OpLessThan         Operator = "less_than"
	OpLessThanEqual    Operator = "less_than_equal"
	OpEqual            Operator = "equal"
	OpNotEqual         Operator = "not_equal"
)

// KnownOperator reports whether op is one of the supported operators.
func KnownOperator(op Operator) bool {
	switch op {
	case OpGreaterThan, OpGreaterThanEqual, OpLessThan, OpLessThanEqual, OpEqual, OpNotEqual:
		return true
	}
	return false
}

// Compare applies the operator: value <op> threshold.
func (op Operator) Compare(value, threshold float64) bool {
	switch op {
	case OpGreaterThan:
		return value > threshold
	case OpGreaterThanEqual:
		return value >= threshold
	case OpLessThan:
		return value < threshold
	case OpLessThanEqual:
		return value <= threshold
	case OpEqual:
		return value == threshold
	case OpNotEqual:
		return value != threshold
	}
	return false
}

// Age units accepted by the token_age condition.
const (
	UnitMinutes = "minutes"
	UnitHours   = "hours"
	UnitDays    = "days"
)

// AgeCondition constrains token age at evaluation time.
type AgeCondition struct {
	Enabled  bool
	Operator Operator
	Value    float64
	Unit     string // minutes | hours | days; empty means hours
}

// ThresholdCondition compares a single live value (liquidity, market cap)
// against a USD threshold.
type ThresholdCondition struct {
	Enabled  bool
	Operator Operator
	Value    float64
}

// WindowedCondition compares a rolling-window statistic against a threshold.
type WindowedCondition struct {
	Enabled       bool
	Operator      Operator
	Value         float64
	WindowSeconds int
}

// LargeBuysCondition constrains large-buy activity in its own window.
// With MinCount > 0 it requires at least MinCount individual buys of
// MinAmount USD or more. With MinCount == 0 it requires the window's
// total buy volume to reach MinAmount.
type LargeBuysCondition struct {
	Enabled       bool
	MinCount      int
	MinAmount     float64
	WindowSeconds int
}

// ConditionTree is the closed set of strategy conditions. A strategy
// signal is the conjunction of all enabled conditions; a tree with no
// enabled conditions never signals.
type ConditionTree struct {
	TokenAge      AgeCondition
	Liquidity     ThresholdCondition
	MarketCap     ThresholdCondition
	VolumeWindow  WindowedCondition
	LargeBuys     LargeBuysCondition
	BuyPressure   WindowedCondition
	UniqueWallets WindowedCondition
}

// AnyEnabled reports whether at least one condition is enabled.
func (t *ConditionTree) AnyEnabled() bool {
	return t.TokenAge.Enabled ||
		t.Liquidity.Enabled ||
		t.MarketCap.Enabled ||
		t.VolumeWindow.Enabled ||
		t.LargeBuys.Enabled ||
		t.BuyPressure.Enabled ||
		t.UniqueWallets.Enabled
}

// WindowSpec describes one rolling window the aggregator must maintain.
type WindowSpec struct {
	Seconds           int
	LargeBuyMinAmount float64 // 0 when no large-buy threshold applies
}

// defaultWindowSeconds is used for windowed conditions that omit
// window_seconds, matching the original detector default.
const defaultWindowSeconds = 30

// Windows returns the distinct window specs required by the enabled
// conditions. Each condition kind may carry its own window length;
// windows with the same length share a spec, taking the large-buy
// threshold from the large_buys condition when present.
func (t *ConditionTree) Windows() []WindowSpec {
	seconds := make(map[int]float64) // window seconds -> large-buy min amount

	add := func(w int) {
		if w <= 0 {
			w = defaultWindowSeconds
		}
		if _, ok := seconds[w]; !ok {
			seconds[w] = 0
		}
	}

	if t.VolumeWindow.Enabled {
		add(t.VolumeWindow.WindowSeconds)
	}
	if t.BuyPressure.Enabled {
		add(t.BuyPressure.WindowSeconds)
	}
	if t.UniqueWallets.Enabled {
		add(t.UniqueWallets.WindowSeconds)
	}
	if t.LargeBuys.Enabled {
		w := t.LargeBuys.WindowSeconds
		if w <= 0 {
			w = defaultWindowSeconds
		}
		add(w)
		seconds[w] = t.LargeBuys.MinAmount
	}

	specs := make([]WindowSpec, 0, len(seconds))
	for w, minAmount := range seconds {
		specs = append(specs, WindowSpec{Seconds: w, LargeBuyMinAmount: minAmount})
	}
	return specs
}

// EffectiveWindowSeconds resolves the configured window for a windowed
// condition, falling back to the detector default.
func EffectiveWindowSeconds(w int) int {
	if w <= 0 {
		return defaultWindowSeconds
	}
	return w
}
