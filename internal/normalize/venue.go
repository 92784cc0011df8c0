package normalize

import (
	"errors"
	"fmt"
	"math"

	"solana-strategy-lab/internal/domain"
)

// Venue math constants.
const (
	// PumpFunFeeRate is the fixed fee charged on every bonding-curve trade.
	PumpFunFeeRate = 0.01
	// PumpFunDecimals is fixed for all pump.fun tokens.
	PumpFunDecimals = 6
	// GraduationThresholdUSD is the cumulative raise at which a bonding
	// curve graduates to a constant-product pool.
	GraduationThresholdUSD = 69000.0
	// CPMMFeeRate is the fixed Raydium CPMM fee, deducted from input
	// before the x*y=k invariant is applied.
	CPMMFeeRate = 0.0025
	// BasisPointMax converts bin steps to fractions.
	BasisPointMax = 10000.0
	// DefaultBinStepBps is used when a bin-based snapshot omits its step.
	DefaultBinStepBps = 20
)

// Model errors.
var (
	ErrUnknownVenue   = errors.New("unknown venue")
	ErrNoActiveTick   = errors.New("clmm snapshot missing current_tick")
	ErrNoActiveBin    = errors.New("bin snapshot missing active_bin_id")
	ErrEmptyReserves  = errors.New("pool reserves are empty")
	ErrPriceNotFinite = errors.New("computed price is not finite")
)

// VenueModel encapsulates one venue's pricing math. PriceAndDepth derives
// the mid price and the liquidity available to a fill from a pool
// snapshot; implementations are selected by venue tag so no string
// branching leaks into callers.
type VenueModel interface {
	// Venue returns the tag this model serves.
	Venue() string

	// PriceAndDepth returns (mid price, available liquidity USD).
	PriceAndDepth(ps *domain.PoolState) (price, depth float64, err error)

	// FeeRate returns the fee fraction applied to a trade against ps.
	FeeRate(ps *domain.PoolState) float64
}

// ModelFor returns the pricing model for a venue tag.
func ModelFor(venue string) (VenueModel, error) {
	switch venue {
	case domain.VenuePumpFun:
		return bondingCurveModel{}, nil
	case domain.VenueRaydiumCPMM:
		return cpmmModel{}, nil
	case domain.VenueRaydiumCLMM:
		return clmmModel{}, nil
	case domain.VenueMeteoraDLMM:
		return binModel{venue: domain.VenueMeteoraDLMM}, nil
	case domain.VenueMeteoraDyn:
		return binModel{venue: domain.VenueMeteoraDyn}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVenue, venue)
}

// bondingCurveModel prices pump.fun tokens against the virtual reserve
// curve. Once the curve graduates the token trades as a CPMM pool and the
// normalizer tags the transition.
type bondingCurveModel struct{}

func (bondingCurveModel) Venue() string { return domain.VenuePumpFun }

func (bondingCurveModel) PriceAndDepth(ps *domain.PoolState) (float64, float64, error) {
	if ps.ReserveBase <= 0 || ps.ReserveQuote <= 0 {
		return 0, 0, ErrEmptyReserves
	}
	price := ps.ReserveQuote / ps.ReserveBase
	if !isFinite(price) {
		return 0, 0, ErrPriceNotFinite
	}
	// Depth on the curve is the quote-side virtual reserve.
	return price, ps.ReserveQuote, nil
}

func (bondingCurveModel) FeeRate(*domain.PoolState) float64 { return PumpFunFeeRate }

// cpmmModel prices constant-product pools: price = reserve_quote / reserve_base.
type cpmmModel struct{}

func (cpmmModel) Venue() string { return domain.VenueRaydiumCPMM }

func (cpmmModel) PriceAndDepth(ps *domain.PoolState) (float64, float64, error) {
	if ps.ReserveBase <= 0 || ps.ReserveQuote <= 0 {
		// Providers that report no reserves still report liquidity_usd
		// and a quoted price.
		if ps.Price > 0 && isFinite(ps.Price) {
			return ps.Price, ps.LiquidityUSD, nil
		}
		return 0, 0, ErrEmptyReserves
	}
	price := ps.ReserveQuote / ps.ReserveBase
	if !isFinite(price) {
		return 0, 0, ErrPriceNotFinite
	}
	return price, ps.LiquidityUSD, nil
}

func (cpmmModel) FeeRate(*domain.PoolState) float64 { return CPMMFeeRate }

// clmmModel prices concentrated-liquidity pools from the active tick:
// price = 1.0001^tick. Liquidity is only active within the current tick
// range, so depth uses the active-tick liquidity, never the pool total.
type clmmModel struct{}

func (clmmModel) Venue() string { return domain.VenueRaydiumCLMM }

func (clmmModel) PriceAndDepth(ps *domain.PoolState) (float64, float64, error) {
	if ps.CurrentTick == nil {
		return 0, 0, ErrNoActiveTick
	}
	price := math.Pow(1.0001, float64(*ps.CurrentTick))
	if !isFinite(price) {
		return 0, 0, ErrPriceNotFinite
	}
	depth := ps.LiquidityUSD
	if ps.ActiveLiquidityUSD != nil {
		depth = *ps.ActiveLiquidityUSD
	}
	return price, depth, nil
}

func (clmmModel) FeeRate(ps *domain.PoolState) float64 {
	if ps.FeeRate != nil {
		return *ps.FeeRate
	}
	return 0
}

// binModel prices bin-based pools (Meteora DLMM and dynamic pools):
// price = (1 + bin_step/10000)^active_bin. Fees are venue-reported and
// never recomputed here; the dynamic venue additionally treats all its
// snapshot parameters as opaque inputs.
type binModel struct {
	venue string
}

func (m binModel) Venue() string { return m.venue }

func (m binModel) PriceAndDepth(ps *domain.PoolState) (float64, float64, error) {
	if ps.ActiveBinID == nil {
		return 0, 0, ErrNoActiveBin
	}
	step := DefaultBinStepBps
	if ps.BinStepBps != nil {
		step = *ps.BinStepBps
	}
	price := math.Pow(1+float64(step)/BasisPointMax, float64(*ps.ActiveBinID))
	if !isFinite(price) {
		return 0, 0, ErrPriceNotFinite
	}
	depth := ps.LiquidityUSD
	if ps.ActiveLiquidityUSD != nil {
		depth = *ps.ActiveLiquidityUSD
	}
	return price, depth, nil
}

func (m binModel) FeeRate(ps *domain.PoolState) float64 {
	if ps.FeeRate != nil {
		return *ps.FeeRate
	}
	return 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
