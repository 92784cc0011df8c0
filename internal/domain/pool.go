package domain

// PoolState is a point-in-time liquidity snapshot for a token on a venue.
// Keyed by (token_address, venue, timestamp_ms); multiple snapshots per
// token are expected as liquidity evolves.
type PoolState struct {
	TimestampMs  int64
	TokenAddress string
	Venue        string
	LiquidityUSD float64
	MarketCap    float64
	Price        float64
	Holders      *int // nullable, not reported by every provider

	// Venue-specific fields. Only the ones matching Venue are meaningful.
	ActiveBinID        *int     // meteora_dlmm / meteora_dyn
	BinStepBps         *int     // bin step in basis points
	CurrentTick        *int     // raydium_clmm
	FeeRate            *float64 // variable/dynamic fee venues
	ActiveLiquidityUSD *float64 // liquidity at the active tick/bin only

	// Bonding-curve bookkeeping (pump.fun only).
	ReserveBase     float64 // virtual token reserve
	ReserveQuote    float64 // virtual SOL reserve, USD terms
	CumulativeUSD   float64 // total USD raised on the curve
	Graduated       bool    // curve crossed the graduation threshold
}
