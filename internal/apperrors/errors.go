package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operational failure for callers and for HTTP mapping.
type Kind int

const (
	KindNotFound Kind = iota
	KindInvalidState
	KindForbidden
	KindDuplicate
	KindCapacityExceeded
	KindValidation
	KindUpstream
)

// Error carries a classification plus a human-readable message that is safe to
// surface directly to the UI.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Duplicate(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf(format, args...)}
}

func CapacityExceeded(format string, args ...interface{}) *Error {
	return &Error{Kind: KindCapacityExceeded, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a store or external-service failure.
func Upstream(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}

// HTTPStatus maps an error to the status code handlers should return.
// Unclassified errors are treated as upstream failures.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindDuplicate, KindCapacityExceeded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

// UserMessage returns the surfaceable message, or a generic one for
// unclassified errors so internal details never leak to the UI.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindUpstream {
		return ae.Message
	}
	return "Internal server error"
}
