package core

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure. The values double as the machine-checkable
// error codes returned to API callers.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found_error"
	KindConflict   Kind = "conflict_error"
	KindInternal   Kind = "internal_error"
)

// Error is the single error type surfaced by ledger operations.
type Error struct {
	Kind    Kind
	Field   string // first failing input field, validation only
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return e.Field + ": " + e.Message
	case e.Err != nil && e.Message != "":
		return e.Message + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or out-of-range input for field.
func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound reports an unknown id. Cross-owner access uses the same error so
// that existence never leaks between owners.
func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

// Conflict reports an operation that would break a referential invariant.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal wraps an infrastructure failure.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the kind of err. Errors not produced by this package are
// treated as internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a ledger error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// FieldOf returns the failing field of a validation error, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
