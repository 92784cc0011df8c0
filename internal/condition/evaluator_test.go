package condition

import (
	"math"
	"testing"

	"solana-strategy-lab/internal/domain"
)

func TestEvaluateNoEnabledConditionsNeverMatches(t *testing.T) {
	ev, err := New(domain.ConditionTree{})
	if err != nil {
		t.Fatal(err)
	}
	res := ev.Evaluate(Input{
		NowMs: 1_000_000,
		Pool:  &domain.PoolState{LiquidityUSD: 1e9, MarketCap: 1e9},
		Windows: map[int]domain.WindowSnapshot{
			30: {WindowSeconds: 30, VolumeUSD: 1e9, BuyCount: 100},
		},
	})
	if res.Match {
		t.Fatal("empty tree must never match")
	}
}

func TestEvaluateLargeBuysVolumeMode(t *testing.T) {
	// min_amount=1500 over 300s with no min_count: total buy volume in
	// the window is the value compared. Buys of $500+$650+$500 = $1650.
	tree := domain.ConditionTree{
		LargeBuys: domain.LargeBuysCondition{
			Enabled:       true,
			MinAmount:     1500,
			WindowSeconds: 300,
		},
	}
	ev, err := New(tree)
	if err != nil {
		t.Fatal(err)
	}

	res := ev.Evaluate(Input{
		NowMs: 290_000,
		Windows: map[int]domain.WindowSnapshot{
			300: {WindowSeconds: 300, BuyVolumeUSD: 1650, BuyCount: 3},
		},
	})
	if !res.Match {
		t.Fatalf("expected match at $1650 >= $1500: %+v", res.Checks)
	}

	res = ev.Evaluate(Input{
		NowMs: 400_000,
		Windows: map[int]domain.WindowSnapshot{
			300: {WindowSeconds: 300, BuyVolumeUSD: 1150, BuyCount: 2},
		},
	})
	if res.Match {
		t.Fatal("expected no match once the oldest buy left the window")
	}
}

func TestEvaluateLargeBuysCountMode(t *testing.T) {
	tree := domain.ConditionTree{
		LargeBuys: domain.LargeBuysCondition{
			Enabled:       true,
			MinCount:      3,
			MinAmount:     500,
			WindowSeconds: 300,
		},
	}
	ev, err := New(tree)
	if err != nil {
		t.Fatal(err)
	}

	res := ev.Evaluate(Input{
		Windows: map[int]domain.WindowSnapshot{
			300: {WindowSeconds: 300, LargeBuyCount: 2, BuyVolumeUSD: 5_000},
		},
	})
	if res.Match {
		t.Fatal("2 large buys must not satisfy min_count=3")
	}

	res = ev.Evaluate(Input{
		Windows: map[int]domain.WindowSnapshot{
			300: {WindowSeconds: 300, LargeBuyCount: 3, BuyVolumeUSD: 1_600},
		},
	})
	if !res.Match {
		t.Fatalf("3 large buys must satisfy min_count=3: %+v", res.Checks)
	}
}

func TestEvaluateTokenAgeUnits(t *testing.T) {
	created := int64(0)
	meta := &domain.TokenMetadata{TokenAddress: "tok", CreatedAtMs: created}

	tree := domain.ConditionTree{
		TokenAge: domain.AgeCondition{
			Enabled:  true,
			Operator: domain.OpLessThan,
			Value:    2,
			Unit:     domain.UnitHours,
		},
	}
	ev, err := New(tree)
	if err != nil {
		t.Fatal(err)
	}

	if res := ev.Evaluate(Input{NowMs: 90 * 60 * 1000, Metadata: meta}); !res.Match {
		t.Fatal("90 minutes should be < 2 hours")
	}
	if res := ev.Evaluate(Input{NowMs: 3 * 3600 * 1000, Metadata: meta}); res.Match {
		t.Fatal("3 hours should not be < 2 hours")
	}
}

func TestEvaluateMissingMetadataFailsAgeCondition(t *testing.T) {
	tree := domain.ConditionTree{
		TokenAge: domain.AgeCondition{
			Enabled:  true,
			Operator: domain.OpLessThan,
			Value:    24,
			Unit:     domain.UnitHours,
		},
	}
	ev, err := New(tree)
	if err != nil {
		t.Fatal(err)
	}
	res := ev.Evaluate(Input{NowMs: 1000})
	if res.Match {
		t.Fatal("missing metadata must fail the age condition, not pass it")
	}
	if len(res.Checks) != 1 || res.Checks[0].Reason == "" {
		t.Fatalf("expected a reasoned failure, got %+v", res.Checks)
	}
}

func TestEvaluateMissingPoolFailsThresholdConditions(t *testing.T) {
	tree := domain.ConditionTree{
		Liquidity: domain.ThresholdCondition{
			Enabled:  true,
			Operator: domain.OpGreaterThanEqual,
			Value:    10_000,
		},
	}
	ev, err := New(tree)
	if err != nil {
		t.Fatal(err)
	}
	if res := ev.Evaluate(Input{NowMs: 1000}); res.Match {
		t.Fatal("missing pool state must fail the liquidity condition")
	}
}

func TestEvaluateBuyPressureInfiniteRatio(t *testing.T) {
	tree := domain.ConditionTree{
		BuyPressure: domain.WindowedCondition{
			Enabled:       true,
			Operator:      domain.OpGreaterThan,
			Value:         3,
			WindowSeconds: 60,
		},
	}
	ev, err := New(tree)
	if err != nil {
		t.Fatal(err)
	}

	// Buys with zero sells: the ratio is +Inf and beats any threshold.
	res := ev.Evaluate(Input{
		Windows: map[int]domain.WindowSnapshot{
			60: {WindowSeconds: 60, BuyCount: 5, SellCount: 0},
		},
	})
	if !res.Match {
		t.Fatal("buys with zero sells should exceed any ratio threshold")
	}
	if !math.IsInf(res.Checks[0].Value, 1) {
		t.Fatalf("ratio = %v, want +Inf", res.Checks[0].Value)
	}

	// No trades at all: ratio is 0.
	res = ev.Evaluate(Input{
		Windows: map[int]domain.WindowSnapshot{
			60: {WindowSeconds: 60},
		},
	})
	if res.Match {
		t.Fatal("empty window should not match a ratio threshold")
	}
}

func TestEvaluateConjunction(t *testing.T) {
	tree := domain.ConditionTree{
		Liquidity: domain.ThresholdCondition{
			Enabled:  true,
			Operator: domain.OpGreaterThanEqual,
			Value:    5_000,
		},
		UniqueWallets: domain.WindowedCondition{
			Enabled:       true,
			Operator:      domain.OpGreaterThanEqual,
			Value:         10,
			WindowSeconds: 60,
		},
	}
	ev, err := New(tree)
	if err != nil {
		t.Fatal(err)
	}

	in := Input{
		Pool: &domain.PoolState{LiquidityUSD: 8_000},
		Windows: map[int]domain.WindowSnapshot{
			60: {WindowSeconds: 60, UniqueWallets: 4},
		},
	}
	if res := ev.Evaluate(in); res.Match {
		t.Fatal("one failing condition must fail the conjunction")
	}

	in.Windows[60] = domain.WindowSnapshot{WindowSeconds: 60, UniqueWallets: 12}
	if res := ev.Evaluate(in); !res.Match {
		t.Fatalf("both conditions hold, expected match: %+v", res.Checks)
	}
}

func TestValidateRejectsMalformedTrees(t *testing.T) {
	cases := []struct {
		name string
		tree domain.ConditionTree
	}{
		{
			name: "unknown operator",
			tree: domain.ConditionTree{
				Liquidity: domain.ThresholdCondition{Enabled: true, Operator: "between"},
			},
		},
		{
			name: "unknown age unit",
			tree: domain.ConditionTree{
				TokenAge: domain.AgeCondition{Enabled: true, Operator: domain.OpLessThan, Unit: "weeks"},
			},
		},
		{
			name: "large buys without amount",
			tree: domain.ConditionTree{
				LargeBuys: domain.LargeBuysCondition{Enabled: true, MinCount: 3},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.tree); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
