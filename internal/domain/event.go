package domain

// TradeEvent represents a normalized swap for a token on one of the
// supported venues. Corresponds to the transactions table.
// Events are immutable once ingested; Signature is the dedup key.
type TradeEvent struct {
	Signature     string  // transaction signature, globally unique
	TimestampMs   int64   // Unix timestamp in milliseconds
	TokenAddress  string  // token mint address
	Venue         string  // one of the Venue* constants
	Side          string  // "buy" | "sell"
	AmountToken   float64 // token amount (decimals applied)
	AmountUSD     float64 // trade value in USD
	WalletAddress string  // signer wallet
	BlockSlot     int64   // Solana slot number
	Success       bool    // failed transactions carry no volume
}

// Trade side constants
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Venue tags as they appear in stored records.
const (
	VenuePumpFun     = "pump.fun"
	VenueRaydiumCLMM = "raydium_clmm"
	VenueRaydiumCPMM = "raydium_cpmm"
	VenueMeteoraDLMM = "meteora_dlmm"
	VenueMeteoraDyn  = "meteora_dyn"
)

// KnownVenue reports whether the tag names a supported venue.
func KnownVenue(venue string) bool {
	switch venue {
	case VenuePumpFun, VenueRaydiumCLMM, VenueRaydiumCPMM, VenueMeteoraDLMM, VenueMeteoraDyn:
		return true
	}
	return false
}
