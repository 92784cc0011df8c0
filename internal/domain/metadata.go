package domain

// TokenMetadata represents token metadata from on-chain.
// Corresponds to the token_metadata table.
type TokenMetadata struct {
	TokenAddress       string   // token mint address, PK
	Name               *string  // nullable
	Symbol             *string  // nullable
	Decimals           int
	CreatedAtMs        int64    // immutable once set; defines token age
	FirstPoolCreatedMs *int64   // nullable
	TotalSupply        *float64 // nullable
}

// AgeMsAt returns the token age at evaluation time t (milliseconds).
func (m *TokenMetadata) AgeMsAt(tMs int64) int64 {
	return tMs - m.CreatedAtMs
}
