package errors

import (
	"fmt"
	"net/http"
)

// AppError is the error every audiopen operation reports to its caller.
// Message is meant for the person at the terminal; Cause keeps the
// technical chain for logs and errors.Is.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"` // upstream status, or the closest match
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError whose Retryable flag follows its code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: IsRetryableCode(code)}
}

func newWith(code ErrorCode, status int, message string, details ...any) *AppError {
	e := New(code, message, status)
	for i := 0; i+1 < len(details); i += 2 {
		e.WithDetail(details[i].(string), details[i+1])
	}
	return e
}

func ServiceUnavailable(service string) *AppError {
	return newWith(ErrCodeServiceUnavailable, http.StatusServiceUnavailable,
		fmt.Sprintf("%s is unavailable right now. Try again shortly.", service), "service", service)
}

func Timeout(operation string) *AppError {
	return newWith(ErrCodeTimeout, http.StatusGatewayTimeout,
		fmt.Sprintf("%s took too long. Try again.", operation), "operation", operation)
}

func RateLimited() *AppError {
	return newWith(ErrCodeRateLimited, http.StatusTooManyRequests, "Too many requests. Wait a moment and try again.")
}

// NotFound omits the id detail when id is empty.
func NotFound(resource, id string) *AppError {
	e := newWith(ErrCodeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found.", resource), "resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func AlreadyExists(resource string) *AppError {
	return newWith(ErrCodeAlreadyExists, http.StatusConflict,
		fmt.Sprintf("That %s already exists.", resource), "resource", resource)
}

func InvalidInput(field, reason string) *AppError {
	e := newWith(ErrCodeInvalidInput, http.StatusBadRequest, "Invalid input: "+reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation wraps an already formatted validation message.
func Validation(message string) *AppError {
	return newWith(ErrCodeInvalidInput, http.StatusBadRequest, message)
}

func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Sign in first."
	}
	return newWith(ErrCodeUnauthorized, http.StatusUnauthorized, reason)
}

func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You are not allowed to do that."
	}
	return newWith(ErrCodeForbidden, http.StatusForbidden, reason)
}

func TokenExpired() *AppError {
	return newWith(ErrCodeTokenExpired, http.StatusUnauthorized, "Your session expired. Sign in again.")
}

func InvalidToken() *AppError {
	return newWith(ErrCodeInvalidToken, http.StatusUnauthorized, "The session token is not valid. Sign in again.")
}

func Internal(cause error) *AppError {
	return newWith(ErrCodeInternal, http.StatusInternalServerError, "Something went wrong.").WithCause(cause)
}

func DatabaseError(cause error) *AppError {
	return newWith(ErrCodeDatabaseError, http.StatusInternalServerError, "The local database failed. Try again.").WithCause(cause)
}

func ExternalServiceError(service string, cause error) *AppError {
	return newWith(ErrCodeExternalService, http.StatusBadGateway,
		fmt.Sprintf("%s returned an error. Try again.", service), "service", service).WithCause(cause)
}
