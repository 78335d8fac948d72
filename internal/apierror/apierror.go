// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// Kind classifies a domain failure so handlers can map it to an HTTP status
// without inspecting error strings. Services return *Error values; everything
// else is treated as an internal error.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindInvalidState
	KindInsufficientStock
	KindValidation
)

// Error is a typed domain failure. It is always produced before any write,
// so a returned Error implies no state was mutated by the failing line.
type Error struct {
	Kind   Kind
	Detail string
	// Shortage carries the missing quantity for KindInsufficientStock,
	// or the balance delta (as a string) for finance validation failures.
	Meta map[string]interface{}
}

func (e *Error) Error() string { return e.Detail }

// HTTPStatus maps the taxonomy to response codes.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidState, KindInsufficientStock:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Detail: what + " not found"}
}

func Conflict(detail string) *Error {
	return &Error{Kind: KindConflict, Detail: detail}
}

func InvalidState(detail string) *Error {
	return &Error{Kind: KindInvalidState, Detail: detail}
}

func InsufficientStock(detail string, shortage float64) *Error {
	return &Error{
		Kind:   KindInsufficientStock,
		Detail: detail,
		Meta:   map[string]interface{}{"shortage": shortage},
	}
}

func Validation(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

// AsError extracts a typed *Error from err, or nil when err is untyped.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
