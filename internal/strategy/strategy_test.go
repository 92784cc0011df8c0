package strategy

import (
	"strings"
	"testing"

	"solana-strategy-lab/internal/domain"
)

const validYAML = `
name: volume-spike
description: buys on short-term volume
venues: [pump.fun, raydium_cpmm]
conditions:
  volume_window:
    enabled: true
    operator: greater_than
    value: 5000
    window_seconds: 60
  large_buys:
    enabled: true
    min_amount: 1500
    window_seconds: 300
exits:
  stop_loss_pct: 0.15
  take_profit_pct: 1.0
  max_hold_seconds: 300
position_size_usd: 1000
max_positions: 5
`

func TestLoadStringValid(t *testing.T) {
	s, err := LoadString("yaml", validYAML)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "volume-spike" {
		t.Fatalf("name = %s", s.Name)
	}
	if !s.Conditions.VolumeWindow.Enabled || s.Conditions.VolumeWindow.WindowSeconds != 60 {
		t.Fatalf("volume_window: %+v", s.Conditions.VolumeWindow)
	}
	if s.Conditions.LargeBuys.MinAmount != 1500 {
		t.Fatalf("large_buys: %+v", s.Conditions.LargeBuys)
	}
	if s.Exits.TakeProfitPct != 1.0 || s.Exits.MaxHoldSeconds != 300 {
		t.Fatalf("exits: %+v", s.Exits)
	}
	if !s.TradesVenue(domain.VenuePumpFun) || s.TradesVenue(domain.VenueMeteoraDLMM) {
		t.Fatal("venue filter wrong")
	}
}

func TestLoadStringRejectsUnknownConditionKind(t *testing.T) {
	doc := strings.Replace(validYAML, "volume_window:", "volume_spike_detector:", 1)
	if _, err := LoadString("yaml", doc); err == nil {
		t.Fatal("unknown condition kind must fail fast")
	}
}

func TestLoadStringRejectsUnknownOperator(t *testing.T) {
	doc := strings.Replace(validYAML, "greater_than", "approximately", 1)
	if _, err := LoadString("yaml", doc); err == nil {
		t.Fatal("unknown operator must fail fast")
	}
}

func TestLoadStringRejectsUnknownVenue(t *testing.T) {
	doc := strings.Replace(validYAML, "raydium_cpmm", "uniswap_v3", 1)
	if _, err := LoadString("yaml", doc); err == nil {
		t.Fatal("non-enumerated venue must fail fast")
	}
}

func TestValidateRequiresExitRule(t *testing.T) {
	s := &Strategy{
		Name:            "no-exit",
		PositionSizeUSD: 1_000,
		Conditions: domain.ConditionTree{
			Liquidity: domain.ThresholdCondition{
				Enabled: true, Operator: domain.OpGreaterThan, Value: 1_000,
			},
		},
	}
	if err := s.Validate(); err == nil {
		t.Fatal("strategy without any exit rule must be rejected")
	}
}

func TestValidateTrailingNeedsPct(t *testing.T) {
	s := &Strategy{
		Name:            "trail",
		PositionSizeUSD: 1_000,
		Exits:           domain.ExitRules{TrailingEnabled: true},
	}
	if err := s.Validate(); err == nil {
		t.Fatal("trailing without trailing_pct must be rejected")
	}
}

func TestTemplatesAreValid(t *testing.T) {
	infos := ListTemplates()
	if len(infos) != 6 {
		t.Fatalf("templates = %d, want 6", len(infos))
	}
	for _, info := range infos {
		s, err := Template(info.Key)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("template %s invalid: %v", info.Key, err)
		}
		if !s.Conditions.AnyEnabled() {
			t.Fatalf("template %s has no enabled conditions", info.Key)
		}
	}
}

func TestTemplateUnknown(t *testing.T) {
	if _, err := Template("moon_shot"); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestTemplateReturnsCopy(t *testing.T) {
	a, _ := Template("fresh_launch")
	a.Exits.StopLossPct = 0.99
	b, _ := Template("fresh_launch")
	if b.Exits.StopLossPct == 0.99 {
		t.Fatal("template mutation leaked into the shared preset")
	}
}
