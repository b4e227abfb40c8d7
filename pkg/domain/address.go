// Package domain holds the value types shared by every component: ledger
// addresses, address sets and proposal identifiers.
package domain

import (
	"strings"

	"github.com/gagliardetto/solana-go"

	dErrors "tollgate/pkg/domain-errors"
)

// ParseAddress parses a base58 encoded address. Empty input and the zero
// address are rejected, mirroring the ZeroAddress guard the programs apply to
// every account argument.
func ParseAddress(raw string) (solana.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return solana.PublicKey{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	pk, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid address")
	}
	if pk.IsZero() {
		return solana.PublicKey{}, dErrors.New(dErrors.CodeInvalidInput, "zero address is not allowed")
	}
	return pk, nil
}

// MustParseAddress panics on invalid input. For constants and tests.
func MustParseAddress(raw string) solana.PublicKey {
	pk, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return pk
}

// RequireNonZero returns a validation error naming field when addr is zero.
func RequireNonZero(field string, addr solana.PublicKey) error {
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeValidation, field+" must not be the zero address")
	}
	return nil
}
