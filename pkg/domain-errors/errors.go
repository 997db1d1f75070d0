// Package domainerrors defines the coded errors the domain services return to
// callers. Codes classify failures so the presentation layer can map them to
// user-facing messages without string matching. Infrastructure packages return
// sentinel errors (pkg/platform/sentinel) instead; services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// Identity-key validation.
	CodeMalformedKey       Code = "malformed_key"
	CodeKeyTooShort        Code = "key_too_short"
	CodeCheckDigitMismatch Code = "check_digit_mismatch"

	// Directory integrity.
	CodeDuplicateKey      Code = "duplicate_key"
	CodeImmutableKey      Code = "immutable_key"
	CodeDanglingReference Code = "dangling_reference"
	CodeScopeViolation    Code = "scope_violation"
	CodeNotFound          Code = "not_found"

	// Authorization.
	CodeUnknownActor    Code = "unknown_actor"
	CodeAccountInactive Code = "account_inactive"

	// Partial failure during administrator provisioning: the identity-provider
	// account exists but the directory record does not. Reported for manual
	// reconciliation, never auto-rolled-back.
	CodeOrphanedProviderAccount Code = "orphaned_provider_account"

	// CodeTransient marks store/provider transport failures that callers may
	// retry. The core itself never retries.
	CodeTransient Code = "transient"

	CodeInvalidInput Code = "invalid_input"
	CodeInternal     Code = "internal"
)

// Error is a coded domain error. It wraps an optional cause so errors.Is and
// errors.As keep working through service boundaries.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates a cause with a code and message. A nil cause yields nil.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
