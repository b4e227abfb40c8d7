// Package errors defines the typed error used across service boundaries.
//
// Stores return sentinel errors (see pkg/platform/sentinel). Services translate
// those into a *Error carrying a Code, and the HTTP layer maps the Code to a
// status and a wire value. Callers should branch on codes with HasCode rather
// than inspecting messages.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, client-visible error kind.
type Code string

// Generic codes.
const (
	CodeInternal           Code = "internal_error"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInvalidState       Code = "invalid_state"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeRateLimited        Code = "rate_limited"
)

// Governance and token policy codes.
const (
	CodeAlreadyInitialized    Code = "already_initialized"
	CodeTokenAlreadySet       Code = "token_already_set"
	CodeTokenNotSet           Code = "token_not_set"
	CodeAlreadyExecuted       Code = "already_executed"
	CodeCooldownNotExpired    Code = "cooldown_not_expired"
	CodeInsufficientApprovals Code = "insufficient_approvals"
	CodePaused                Code = "paused"
	CodeBlacklisted           Code = "blacklisted"
	CodeSellLimitExceeded     Code = "sell_limit_exceeded"
	CodeInsufficientBalance   Code = "insufficient_balance"
)

// Error is a domain error with a code, a human readable message and an
// optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to a cause. A nil cause yields nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// GetCode returns the code of the outermost *Error in the chain, or
// CodeInternal when err carries none.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost *Error in err's chain has the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Message returns the message of the outermost *Error, or the plain error
// string.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
