package sentinel

import "errors"

// Sentinel errors for infrastructure facts. The ledger and stores return
// these (optionally wrapped) so services can translate them into domain
// errors:
//   - ErrNotFound: no record at the address
//   - ErrConflict: a record already occupies the address
//   - ErrInsufficientFunds: a debit would take a balance below zero
//   - ErrOverflow: a credit would exceed the representable amount
//   - ErrAlreadyUsed: a one-time value (token id) was already consumed
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("amount overflow")
	ErrAlreadyUsed       = errors.New("already used")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnavailable       = errors.New("unavailable")
)
