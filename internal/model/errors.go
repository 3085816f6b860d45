package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels wrapped by every APIError. Match with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrPaymentFailed  = errors.New("payment failed")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")
)

// Machine-readable error codes, stable across releases.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodePayment      = "PAYMENT_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
)

// APIError is the error shape every component boundary converts failures into.
// Handlers turn it into a user-visible message; StatusCode selects the HTTP status.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func newAPIError(code string, status int, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, StatusCode: status, Err: err}
}

func (e *APIError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the caller should offer a retry affordance.
func (e *APIError) Retryable() bool {
	return errors.Is(e.Err, ErrUpstreamError) || errors.Is(e.Err, ErrRateLimited)
}

// IsRetryable reports whether err (or anything it wraps) is a transient
// network/API failure. Context cancellation is not retryable.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(resource string) *APIError {
	return newAPIError(CodeNotFound, http.StatusNotFound, resource+" not found", ErrNotFound)
}

// NewValidationError rejects input before any network call is made.
func NewValidationError(field, reason string) *APIError {
	msg := fmt.Sprintf("invalid %s: %s", field, reason)
	return newAPIError(CodeValidation, http.StatusBadRequest, msg, ErrInvalidRequest)
}

func NewUnauthorizedError(reason string) *APIError {
	return newAPIError(CodeUnauthorized, http.StatusUnauthorized, reason, ErrUnauthorized)
}

// NewConflictError rejects an operation the current workflow state does not
// allow, such as selecting payment before shipping.
func NewConflictError(reason string) *APIError {
	return newAPIError(CodeConflict, http.StatusConflict, reason, ErrConflict)
}

// NewUpstreamError wraps a failed call to the remote API.
func NewUpstreamError(service string, err error) *APIError {
	return newAPIError(CodeUpstream, http.StatusBadGateway, service+" request failed",
		fmt.Errorf("%w: %v", ErrUpstreamError, err))
}

func NewPaymentError(reason string) *APIError {
	return newAPIError(CodePayment, http.StatusPaymentRequired, reason, ErrPaymentFailed)
}

// NewInternalError hides err behind a generic message.
func NewInternalError(err error) *APIError {
	return newAPIError(CodeInternal, http.StatusInternalServerError, "an internal error occurred", err)
}

func NewRateLimitError(service string) *APIError {
	msg := service + " rate limit exceeded, please retry later"
	return newAPIError(CodeRateLimited, http.StatusTooManyRequests, msg, ErrRateLimited)
}
