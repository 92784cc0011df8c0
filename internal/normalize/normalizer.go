package normalize

import (
	"errors"
	"fmt"
	"math"

	"solana-strategy-lab/internal/domain"
)

// ParseError describes a raw record that could not be normalized. Records
// failing validation are dropped and counted; normalization never aborts
// a batch.
type ParseError struct {
	Venue  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s record: %s: %v", e.Venue, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s record: %s", e.Venue, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(venue, reason string, err error) *ParseError {
	return &ParseError{Venue: venue, Reason: reason, Err: err}
}

// Result holds the canonical output of normalizing one raw record.
// Exactly one of Event or Pool is set.
type Result struct {
	Event *domain.TradeEvent
	Pool  *domain.PoolState
}

// Normalizer converts raw venue records into canonical TradeEvent and
// PoolState streams. It tracks bonding-curve progress per token so the
// pump.fun → CPMM graduation transition can be tagged.
type Normalizer struct {
	// curveRaisedUSD tracks cumulative USD raised per pump.fun token.
	curveRaisedUSD map[string]float64
	graduated      map[string]bool
}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{
		curveRaisedUSD: make(map[string]float64),
		graduated:      make(map[string]bool),
	}
}

// Graduated reports whether the token's bonding curve has crossed the
// graduation threshold in the stream seen so far.
func (n *Normalizer) Graduated(token string) bool {
	return n.graduated[token]
}

// Normalize converts one raw record. Validation failures and non-finite
// prices return a *ParseError; the caller counts and skips.
func (n *Normalizer) Normalize(raw *RawRecord) (*Result, error) {
	if raw == nil {
		return nil, parseErr("", "nil record", nil)
	}
	if !domain.KnownVenue(raw.Venue) {
		return nil, parseErr(raw.Venue, "unknown venue", nil)
	}

	switch raw.Kind {
	case RawKindSwap:
		ev, err := n.normalizeSwap(raw)
		if err != nil {
			return nil, err
		}
		return &Result{Event: ev}, nil
	case RawKindPool:
		ps, err := n.normalizePool(raw)
		if err != nil {
			return nil, err
		}
		return &Result{Pool: ps}, nil
	}
	return nil, parseErr(raw.Venue, fmt.Sprintf("unknown record kind %q", raw.Kind), nil)
}

func (n *Normalizer) normalizeSwap(raw *RawRecord) (*domain.TradeEvent, error) {
	if raw.TimestampMs <= 0 {
		return nil, parseErr(raw.Venue, "missing timestamp", nil)
	}
	if err := validateSignature(raw.Signature); err != nil {
		return nil, parseErr(raw.Venue, "invalid signature", err)
	}
	if err := validateAddress(raw.TokenAddress); err != nil {
		return nil, parseErr(raw.Venue, "invalid token address", err)
	}
	if err := validateAddress(raw.WalletAddress); err != nil {
		return nil, parseErr(raw.Venue, "invalid wallet address", err)
	}
	if !isOnCurve(raw.WalletAddress) {
		return nil, parseErr(raw.Venue, "wallet is not an ed25519 keypair", nil)
	}
	if raw.Side != domain.SideBuy && raw.Side != domain.SideSell {
		return nil, parseErr(raw.Venue, fmt.Sprintf("unknown side %q", raw.Side), nil)
	}
	if raw.AmountTokenRaw == 0 {
		return nil, parseErr(raw.Venue, "zero token amount", nil)
	}

	decimals := raw.TokenDecimals
	if raw.Venue == domain.VenuePumpFun {
		decimals = PumpFunDecimals
	}
	if decimals < 0 || decimals > 18 {
		return nil, parseErr(raw.Venue, fmt.Sprintf("invalid decimals %d", decimals), nil)
	}

	amountToken := float64(raw.AmountTokenRaw) / math.Pow10(decimals)
	amountUSD := float64(raw.AmountQuoteRaw) / 1e9 * raw.SolPriceUSD
	if amountUSD <= 0 {
		return nil, parseErr(raw.Venue, "missing quote amount or SOL price", nil)
	}

	price := amountUSD / amountToken
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, parseErr(raw.Venue, "non-finite price", ErrPriceNotFinite)
	}

	venue := raw.Venue
	if raw.Venue == domain.VenuePumpFun {
		if raw.Success && raw.Side == domain.SideBuy {
			n.curveRaisedUSD[raw.TokenAddress] += amountUSD
			if n.curveRaisedUSD[raw.TokenAddress] >= GraduationThresholdUSD {
				n.graduated[raw.TokenAddress] = true
			}
		}
		// After graduation the token trades against a constant-product
		// pool; later events carry the CPMM tag.
		if n.graduated[raw.TokenAddress] {
			venue = domain.VenueRaydiumCPMM
		}
	}

	return &domain.TradeEvent{
		Signature:     raw.Signature,
		TimestampMs:   raw.TimestampMs,
		TokenAddress:  raw.TokenAddress,
		Venue:         venue,
		Side:          raw.Side,
		AmountToken:   amountToken,
		AmountUSD:     amountUSD,
		WalletAddress: raw.WalletAddress,
		BlockSlot:     raw.BlockSlot,
		Success:       raw.Success,
	}, nil
}

func (n *Normalizer) normalizePool(raw *RawRecord) (*domain.PoolState, error) {
	if raw.TimestampMs <= 0 {
		return nil, parseErr(raw.Venue, "missing timestamp", nil)
	}
	if err := validateAddress(raw.TokenAddress); err != nil {
		return nil, parseErr(raw.Venue, "invalid token address", err)
	}

	ps := &domain.PoolState{
		TimestampMs:        raw.TimestampMs,
		TokenAddress:       raw.TokenAddress,
		Venue:              raw.Venue,
		LiquidityUSD:       raw.LiquidityUSD,
		MarketCap:          raw.MarketCap,
		Price:              raw.Price,
		Holders:            raw.Holders,
		ActiveBinID:        raw.ActiveBinID,
		BinStepBps:         raw.BinStepBps,
		CurrentTick:        raw.CurrentTick,
		FeeRate:            raw.FeeRate,
		ActiveLiquidityUSD: raw.ActiveLiquidityUSD,
		ReserveBase:        raw.ReserveBase,
		ReserveQuote:       raw.ReserveQuote,
		CumulativeUSD:      raw.CumulativeUSD,
	}

	if raw.Venue == domain.VenuePumpFun {
		if raw.CumulativeUSD > n.curveRaisedUSD[raw.TokenAddress] {
			n.curveRaisedUSD[raw.TokenAddress] = raw.CumulativeUSD
		}
		if n.curveRaisedUSD[raw.TokenAddress] >= GraduationThresholdUSD {
			n.graduated[raw.TokenAddress] = true
		}
		ps.Graduated = n.graduated[raw.TokenAddress]
		if ps.Graduated {
			ps.Venue = domain.VenueRaydiumCPMM
		}
	}

	model, err := ModelFor(ps.Venue)
	if err != nil {
		return nil, parseErr(raw.Venue, "no pricing model", err)
	}
	price, _, err := model.PriceAndDepth(ps)
	if err != nil {
		return nil, parseErr(raw.Venue, "pricing failed", err)
	}
	ps.Price = price

	return ps, nil
}

// BatchResult summarizes a batch normalization pass.
type BatchResult struct {
	Events  []*domain.TradeEvent
	Pools   []*domain.PoolState
	Skipped int
	// Reasons counts dropped records by parse reason.
	Reasons map[string]int
}

// NormalizeBatch converts a batch of raw records, counting and skipping
// records that fail validation.
func (n *Normalizer) NormalizeBatch(records []*RawRecord) *BatchResult {
	out := &BatchResult{Reasons: make(map[string]int)}
	for _, raw := range records {
		res, err := n.Normalize(raw)
		if err != nil {
			out.Skipped++
			var pe *ParseError
			if errors.As(err, &pe) {
				out.Reasons[pe.Reason]++
			}
			continue
		}
		if res.Event != nil {
			out.Events = append(out.Events, res.Event)
		}
		if res.Pool != nil {
			out.Pools = append(out.Pools, res.Pool)
		}
	}
	return out
}
