// Package apperror defines the error kinds returned by the user application layer.
// Callers branch on Kind, never on message text.
package apperror

import (
	"errors"

	"github.com/oksasatya/go-user-admin/pkg/validation"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAgeRestriction
	KindDuplicateEmail
	KindNotFound
	KindInvalidTransition
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAgeRestriction:
		return "age_restriction"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindNotFound:
		return "not_found"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is a tagged application error. Err, when set, is the underlying cause.
type Error struct {
	Kind       Kind
	Message    string
	Violations []validation.Violation
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation aggregates field violations into a single error.
func Validation(violations []validation.Violation) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Violations: violations}
}

// KindOf reports the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ViolationsOf returns the field violations carried by err, if any.
func ViolationsOf(err error) []validation.Violation {
	var e *Error
	if errors.As(err, &e) {
		return e.Violations
	}
	return nil
}

// MessageOf returns the client-facing message of err without its cause.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
