package strategy

import (
	"fmt"
	"sort"

	"solana-strategy-lab/internal/domain"
)

// defaultExits gives templates a complete exit policy; individual runs
// usually override these from their own config.
var defaultExits = domain.ExitRules{
	StopLossPct:    0.15,
	TakeProfitPct:  0.50,
	MaxHoldSeconds: 300,
}

// templates are the built-in strategy presets for common trading
// patterns.
var templates = map[string]*Strategy{
	"early_momentum": {
		Name:        "Early Token Momentum",
		Description: "Detect momentum in new tokens (< 3 days)",
		Conditions: domain.ConditionTree{
			TokenAge: domain.AgeCondition{
				Enabled: true, Operator: domain.OpLessThan, Value: 3, Unit: domain.UnitDays,
			},
			Liquidity: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 10_000,
			},
			VolumeWindow: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThanEqual, Value: 5_000, WindowSeconds: 30,
			},
			MarketCap: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpLessThan, Value: 300_000,
			},
			LargeBuys: domain.LargeBuysCondition{
				Enabled: true, MinCount: 5, MinAmount: 1_000, WindowSeconds: 30,
			},
		},
	},
	"micro_cap_surge": {
		Name:        "Micro Cap Surge",
		Description: "Detect surges in very small cap tokens",
		Conditions: domain.ConditionTree{
			MarketCap: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpLessThan, Value: 100_000,
			},
			Liquidity: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 5_000,
			},
			VolumeWindow: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 2_000, WindowSeconds: 10,
			},
			LargeBuys: domain.LargeBuysCondition{
				Enabled: true, MinCount: 3, MinAmount: 500, WindowSeconds: 10,
			},
		},
	},
	"fresh_launch": {
		Name:        "Fresh Launch Detection",
		Description: "Catch tokens in first hour of trading",
		Conditions: domain.ConditionTree{
			TokenAge: domain.AgeCondition{
				Enabled: true, Operator: domain.OpLessThan, Value: 1, Unit: domain.UnitHours,
			},
			Liquidity: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 5_000,
			},
			VolumeWindow: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 1_000, WindowSeconds: 30,
			},
			LargeBuys: domain.LargeBuysCondition{
				Enabled: true, MinCount: 3, MinAmount: 500, WindowSeconds: 30,
			},
		},
	},
	"high_volume_breakout": {
		Name:        "High Volume Breakout",
		Description: "Detect sudden volume increases",
		Conditions: domain.ConditionTree{
			VolumeWindow: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 10_000, WindowSeconds: 60,
			},
			BuyPressure: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 2.0,
			},
			UniqueWallets: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThanEqual, Value: 10,
			},
			Liquidity: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 20_000,
			},
		},
	},
	"pump_fun_graduate": {
		Name:        "pump.fun Graduation",
		Description: "Tokens approaching Raydium graduation",
		Venues:      []string{domain.VenuePumpFun},
		Conditions: domain.ConditionTree{
			MarketCap: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpLessThan, Value: 70_000,
			},
			VolumeWindow: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 5_000, WindowSeconds: 300,
			},
			BuyPressure: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 1.5,
			},
		},
	},
	"whale_accumulation": {
		Name:        "Whale Accumulation",
		Description: "Large buyers accumulating positions",
		Conditions: domain.ConditionTree{
			LargeBuys: domain.LargeBuysCondition{
				Enabled: true, MinCount: 3, MinAmount: 5_000, WindowSeconds: 300,
			},
			BuyPressure: domain.WindowedCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 3.0,
			},
			Liquidity: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 50_000,
			},
		},
	},
}

// Template returns a copy of the named built-in strategy with complete
// exits and sizing defaults applied.
func Template(key string) (*Strategy, error) {
	tpl, ok := templates[key]
	if !ok {
		return nil, fmt.Errorf("unknown strategy template %q", key)
	}
	s := *tpl
	s.Exits = defaultExits
	s.PositionSizeUSD = 1_000
	s.MaxPositions = 5
	return &s, nil
}

// TemplateInfo describes one built-in strategy.
type TemplateInfo struct {
	Key         string
	Name        string
	Description string
}

// ListTemplates returns the built-in strategies sorted by key.
func ListTemplates() []TemplateInfo {
	out := make([]TemplateInfo, 0, len(templates))
	for key, tpl := range templates {
		out = append(out, TemplateInfo{Key: key, Name: tpl.Name, Description: tpl.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
