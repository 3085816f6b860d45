package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "without wrapped error",
			err:  &APIError{Code: "CART_ERROR", Message: "cart unavailable"},
			want: "CART_ERROR: cart unavailable",
		},
		{
			name: "with wrapped error",
			err: &APIError{
				Code:    "CART_ERROR",
				Message: "cart unavailable",
				Err:     errors.New("connection reset"),
			},
			want: "CART_ERROR: cart unavailable (connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &APIError{Code: "TEST", Message: "test", Err: underlying}

	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), underlying)
	}

	errNoWrap := &APIError{Code: "TEST", Message: "test"}
	if errNoWrap.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no wrapped error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		code       string
		message    string
		statusCode int
		sentinel   error
	}{
		{"not found", NewNotFoundError("cart"), "NOT_FOUND", "cart not found", 404, ErrNotFound},
		{"validation", NewValidationError("quantity", "must be at least 1"), "VALIDATION_ERROR", "invalid quantity: must be at least 1", 400, ErrInvalidRequest},
		{"unauthorized", NewUnauthorizedError("login required"), "UNAUTHORIZED", "login required", 401, ErrUnauthorized},
		{"conflict", NewConflictError("shipping not selected"), "CONFLICT", "shipping not selected", 409, ErrConflict},
		{"upstream", NewUpstreamError("GraphQL", errors.New("EOF")), "UPSTREAM_ERROR", "GraphQL request failed", 502, ErrUpstreamError},
		{"payment", NewPaymentError("payment declined"), "PAYMENT_ERROR", "payment declined", 402, ErrPaymentFailed},
		{"rate limit", NewRateLimitError("GraphQL"), "RATE_LIMITED", "GraphQL rate limit exceeded, please retry later", 429, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.message)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.statusCode)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v) = false, want true", tt.sentinel)
			}
		})
	}
}

func TestNewInternalError(t *testing.T) {
	underlying := errors.New("nil map")
	err := NewInternalError(underlying)

	if err.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", err.StatusCode)
	}
	if err.Err != underlying {
		t.Error("wrapped error should be preserved")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"upstream", NewUpstreamError("GraphQL", errors.New("timeout")), true},
		{"rate limited", NewRateLimitError("GraphQL"), true},
		{"wrapped upstream", fmt.Errorf("fetching cart: %w", NewUpstreamError("GraphQL", nil)), true},
		{"validation", NewValidationError("quantity", "too low"), false},
		{"not found", NewNotFoundError("cart"), false},
		{"plain error", errors.New("boom"), false},
		{"context canceled", context.Canceled, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAPIErrorImplementsError verifies errors.As finds APIError through wrapping,
// which handlers rely on to pick response codes.
func TestAPIErrorImplementsError(t *testing.T) {
	var err error = &APIError{Code: "TEST", Message: "test"}

	wrapped := fmt.Errorf("outer: %w", err)
	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Error("errors.As should find *APIError in wrapped error")
	}
}
