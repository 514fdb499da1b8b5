// Package apperr defines the error taxonomy surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Type classifies an application error.
type Type string

const (
	TypeValidation   Type = "validation_error"
	TypeNotFound     Type = "not_found"
	TypeConflict     Type = "conflict"
	TypeUnauthorized Type = "unauthorized"
	TypeForbidden    Type = "forbidden"
	TypeInternal     Type = "internal_error"
	TypeBadRequest   Type = "bad_request"
	TypeRateLimited  Type = "rate_limited"
	TypeUnavailable  Type = "unavailable"
)

// AppError is an error with a client-facing message and HTTP status.
type AppError struct {
	Type    Type              `json:"type"`
	Message string            `json:"message"`
	Code    int               `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.cause }

func newErr(t Type, code int, format string, args ...any) *AppError {
	return &AppError{Type: t, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *AppError {
	return newErr(TypeValidation, http.StatusBadRequest, format, args...)
}

// ValidationFields reports per-field validation failures.
func ValidationFields(fields map[string]string) *AppError {
	e := newErr(TypeValidation, http.StatusBadRequest, "validation failed")
	e.Fields = fields
	return e
}

func NotFound(format string, args ...any) *AppError {
	return newErr(TypeNotFound, http.StatusNotFound, format, args...)
}

func Conflict(format string, args ...any) *AppError {
	return newErr(TypeConflict, http.StatusConflict, format, args...)
}

func Unauthorized(format string, args ...any) *AppError {
	return newErr(TypeUnauthorized, http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *AppError {
	return newErr(TypeForbidden, http.StatusForbidden, format, args...)
}

func BadRequest(format string, args ...any) *AppError {
	return newErr(TypeBadRequest, http.StatusBadRequest, format, args...)
}

func TooManyRequests(format string, args ...any) *AppError {
	return newErr(TypeRateLimited, http.StatusTooManyRequests, format, args...)
}

func Unavailable(format string, args ...any) *AppError {
	return newErr(TypeUnavailable, http.StatusServiceUnavailable, format, args...)
}

// Internal wraps an unexpected failure; the cause is kept for logs only.
func Internal(cause error, format string, args ...any) *AppError {
	e := newErr(TypeInternal, http.StatusInternalServerError, format, args...)
	e.cause = cause
	return e
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t Type) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// From converts any error into an AppError. Record-not-found and unique
// violations map to not_found and conflict; everything else is internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e := NotFound("record not found")
		e.cause = err
		return e
	}
	if IsDuplicate(err) {
		e := Conflict("record already exists")
		e.cause = err
		return e
	}
	return Internal(err, "the data store rejected the request")
}

// IsDuplicate checks whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
