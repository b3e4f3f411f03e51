// Package dErrors provides coded domain errors. Services attach a Code when
// creating or wrapping errors; transports map codes to protocol responses and
// callers branch on HasCode instead of string matching.
//
// Stores do not use this package: they return pkg/platform/sentinel errors
// (infrastructure facts) which services translate into coded domain errors.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeNotFound signals that a referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeBadRequest signals a malformed or unusable request.
	CodeBadRequest Code = "bad_request"
	// CodeValidation signals input that fails a field-level validation rule.
	CodeValidation Code = "validation"
	// CodeConflict signals a state conflict (duplicate, already-applied change).
	CodeConflict Code = "conflict"
	// CodeInvariantViolation signals a broken domain invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable signals a temporarily unavailable dependency.
	CodeUnavailable Code = "unavailable"
	// CodeInternal signals an unexpected infrastructure failure. Details are
	// never surfaced to clients.
	CodeInternal Code = "internal_error"
)

// Error is a domain error carrying a classification code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message, preserving the cause chain.
// Wrapping nil returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// GetCode returns the code of the outermost domain error in the chain, or
// CodeInternal if err is not a domain error.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is delegates to errors.Is so callers can keep a single import.
func Is(err, target error) bool { return errors.Is(err, target) }
