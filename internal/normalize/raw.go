package normalize

// RawKind discriminates raw record payloads.
const (
	RawKindSwap = "swap"
	RawKindPool = "pool"
)

// RawRecord is a venue record as delivered by the transaction-history or
// market-data provider. Amounts are in base units (token base units,
// lamports for the quote side); the normalizer applies decimals and
// derives USD values.
type RawRecord struct {
	Kind        string
	Venue       string
	Signature   string
	TimestampMs int64
	BlockSlot   int64
	Success     bool

	// Swap payload.
	Side           string
	TokenAddress   string
	WalletAddress  string
	AmountTokenRaw uint64
	AmountQuoteRaw uint64 // lamports
	TokenDecimals  int
	SolPriceUSD    float64

	// Pool snapshot payload.
	LiquidityUSD       float64
	MarketCap          float64
	Price              float64 // venue-quoted, used when reserves absent
	ReserveBase        float64
	ReserveQuote       float64
	CumulativeUSD      float64 // bonding curve: total USD raised so far
	CurrentTick        *int
	ActiveBinID        *int
	BinStepBps         *int
	FeeRate            *float64
	ActiveLiquidityUSD *float64
	Holders            *int
}
