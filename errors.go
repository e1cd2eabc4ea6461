package custody

import (
	"errors"
	"fmt"
)

// Code is the numeric error code carried by engine errors. The values match
// the codes clients of the historical deployment already handle.
type Code uint32

// Error codes.
const (
	CodeInvalidAmount       Code = 101
	CodeInsufficientBalance Code = 102
	CodeTokenNotSupported   Code = 103
	CodeWalletPaused        Code = 104
	CodeInvalidRecipient    Code = 105
	CodeInvalidFeeRate      Code = 107
	CodeNotOwner            Code = 110
	CodeInvalidMinDeposit   Code = 111
	CodeInvalidMaxWithdraw  Code = 112
	CodeTransferFailed      Code = 113
	CodeAlreadyPaused       Code = 124
	CodeNotPaused           Code = 125
)

// Error is an engine error with a stable numeric code.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("custody: %s (code %d)", e.msg, e.Code)
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

// Engine errors. Every failing operation returns one of these, possibly
// wrapped; compare with errors.Is.
var (
	ErrInvalidAmount       = newError(CodeInvalidAmount, "invalid amount")
	ErrInsufficientBalance = newError(CodeInsufficientBalance, "insufficient balance")
	ErrTokenNotSupported   = newError(CodeTokenNotSupported, "token not supported")
	ErrWalletPaused        = newError(CodeWalletPaused, "wallet paused")
	ErrInvalidRecipient    = newError(CodeInvalidRecipient, "invalid recipient")
	ErrInvalidFeeRate      = newError(CodeInvalidFeeRate, "invalid fee rate")
	ErrNotOwner            = newError(CodeNotOwner, "caller is not the owner")
	ErrInvalidMinDeposit   = newError(CodeInvalidMinDeposit, "invalid minimum deposit")
	ErrInvalidMaxWithdraw  = newError(CodeInvalidMaxWithdraw, "invalid maximum withdrawal")
	ErrTransferFailed      = newError(CodeTransferFailed, "transfer failed")
	ErrAlreadyPaused       = newError(CodeAlreadyPaused, "already paused")
	ErrNotPaused           = newError(CodeNotPaused, "not paused")
)

// Infrastructure errors. They carry no code.
var (
	ErrNotFound      = errors.New("custody: not found")
	ErrAlreadyExists = errors.New("custody: already exists")
	ErrStoreClosed   = errors.New("custody: store is closed")
)

// CodeOf returns the code of the first *Error in err's chain, or 0.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsAuthorization reports whether err is an owner-gate rejection.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotOwner)
}

// IsPolicyViolation reports whether err rejects a caller-supplied value.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidMinDeposit) ||
		errors.Is(err, ErrInvalidMaxWithdraw) ||
		errors.Is(err, ErrInvalidFeeRate) ||
		errors.Is(err, ErrInvalidRecipient)
}

// IsStateGuard reports whether err was caused by the pause state.
func IsStateGuard(err error) bool {
	return errors.Is(err, ErrWalletPaused) ||
		errors.Is(err, ErrAlreadyPaused) ||
		errors.Is(err, ErrNotPaused)
}

// IsIneligibleAsset reports whether err rejects a non-whitelisted asset.
func IsIneligibleAsset(err error) bool {
	return errors.Is(err, ErrTokenNotSupported)
}

// IsCapacity reports whether err is a balance shortfall.
func IsCapacity(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsExternal reports whether err is a failed transfer leg.
func IsExternal(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
