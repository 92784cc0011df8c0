package normalize

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const (
	pubkeyLen    = 32
	signatureLen = 64
)

// validateAddress checks that addr is a base58-encoded 32-byte key.
func validateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty address")
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("address %q: %w", addr, err)
	}
	if len(decoded) != pubkeyLen {
		return fmt.Errorf("address %q: decoded length %d, want %d", addr, len(decoded), pubkeyLen)
	}
	return nil
}

// validateSignature checks that sig is a base58-encoded 64-byte signature.
func validateSignature(sig string) error {
	if sig == "" {
		return fmt.Errorf("empty signature")
	}
	decoded, err := base58.Decode(sig)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	if len(decoded) != signatureLen {
		return fmt.Errorf("signature: decoded length %d, want %d", len(decoded), signatureLen)
	}
	return nil
}

// isOnCurve reports whether a base58 pubkey decodes to a point on the
// ed25519 curve. Wallets are regular keypairs and must be on-curve; PDAs
// (pool vaults, curve accounts) are not.
func isOnCurve(addr string) bool {
	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != pubkeyLen {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
