// Package strategy is the configuration boundary: it decodes strategy
// documents into validated domain types before any simulation starts.
package strategy

import (
	"errors"
	"fmt"

	"solana-strategy-lab/internal/condition"
	"solana-strategy-lab/internal/domain"
)

// Validation errors.
var (
	ErrMissingName     = errors.New("strategy name is required")
	ErrUnknownVenue    = errors.New("unknown venue tag")
	ErrNoExitRule      = errors.New("at least one exit rule is required")
	ErrInvalidPosition = errors.New("position_size_usd must be positive")
)

// Strategy is a fully validated strategy definition, ready to hand to
// the backtest runner.
type Strategy struct {
	Name        string
	Description string

	// Venues restricts which venue tags the strategy trades; empty
	// means all.
	Venues []string

	Conditions domain.ConditionTree
	Exits      domain.ExitRules

	PositionSizeUSD float64
	MaxPositions    int
}

// Validate rejects malformed strategies with a descriptive error before
// they reach the core: unknown operators, unknown units, non-enumerated
// venue tags, unusable sizing.
func (s *Strategy) Validate() error {
	if s.Name == "" {
		return ErrMissingName
	}
	if err := condition.Validate(s.Conditions); err != nil {
		return fmt.Errorf("strategy %s: %w", s.Name, err)
	}
	for _, v := range s.Venues {
		if !domain.KnownVenue(v) {
			return fmt.Errorf("strategy %s: %w: %q", s.Name, ErrUnknownVenue, v)
		}
	}
	if s.PositionSizeUSD <= 0 {
		return fmt.Errorf("strategy %s: %w", s.Name, ErrInvalidPosition)
	}
	ex := s.Exits
	if ex.StopLossPct <= 0 && ex.TakeProfitPct <= 0 && !ex.TrailingEnabled && ex.MaxHoldSeconds <= 0 {
		return fmt.Errorf("strategy %s: %w", s.Name, ErrNoExitRule)
	}
	if ex.TrailingEnabled && ex.TrailingPct <= 0 {
		return fmt.Errorf("strategy %s: trailing enabled without trailing_pct", s.Name)
	}
	return nil
}

// TradesVenue reports whether the strategy trades the given venue tag.
func (s *Strategy) TradesVenue(venue string) bool {
	if len(s.Venues) == 0 {
		return true
	}
	for _, v := range s.Venues {
		if v == venue {
			return true
		}
	}
	return false
}
