// Package handler provides the HTTP and MCP surfaces of the storefront
// service.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/negotiation"
	"storefront/internal/storefront"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	registry *storefront.Registry
	gate     *negotiation.Gate
	logger   *slog.Logger
}

// New creates a Handler. gate may be nil to admit every client version.
func New(registry *storefront.Registry, gate *negotiation.Gate, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		gate:     gate,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /.well-known/storefront", h.handleWellKnown)

	// Cart
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("POST /cart/items", h.handleAddItem)
	mux.HandleFunc("PATCH /cart/items/{id}", h.handleUpdateQuantity)
	mux.HandleFunc("DELETE /cart/items/{id}", h.handleRemoveItem)

	// Account
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.HandleFunc("GET /wishlist", h.handleWishlist)
	mux.HandleFunc("POST /wishlist", h.handleAddToWishlist)
	mux.HandleFunc("DELETE /wishlist/{productId}", h.handleRemoveFromWishlist)
	mux.HandleFunc("GET /notifications", h.handleNotifications)
	mux.HandleFunc("POST /notifications/{id}/read", h.handleMarkNotificationRead)

	// Catalog
	mux.HandleFunc("GET /products", h.handleListProducts)
	mux.HandleFunc("GET /products/recent", h.handleRecentlyViewed)
	mux.HandleFunc("GET /products/{id}", h.handleGetProduct)

	// Checkout
	mux.HandleFunc("POST /checkout", h.handleBeginCheckout)
	mux.HandleFunc("GET /checkout", h.handleGetCheckout)
	mux.HandleFunc("DELETE /checkout", h.handleAbandonCheckout)
	mux.HandleFunc("PUT /checkout/destination", h.handleSetDestination)
	mux.HandleFunc("PUT /checkout/shipping", h.handleSelectShipping)
	mux.HandleFunc("PUT /checkout/payment", h.handleSelectPayment)
	mux.HandleFunc("PUT /checkout/coupon", h.handleApplyCoupon)
	mux.HandleFunc("DELETE /checkout/coupon", h.handleRemoveCoupon)
	mux.HandleFunc("POST /checkout/back", h.handleCheckoutBack)
	mux.HandleFunc("POST /checkout/retry", h.handleCheckoutRetry)
	mux.HandleFunc("POST /checkout/place", h.handlePlaceOrder)
	mux.HandleFunc("POST /checkout/cancel", h.handleCancelPayment)
	mux.HandleFunc("GET /checkout/return", h.handleCheckoutReturn)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// app returns the App of the client identified by the negotiation
// middleware.
func (h *Handler) app(r *http.Request) (*storefront.App, error) {
	info, ok := negotiation.FromContext(r.Context())
	if !ok {
		return nil, model.NewValidationError(negotiation.Header, "header is required")
	}
	return h.registry.Get(info.Profile)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeErrorWithCheckout(w, err, nil)
}

// writeErrorWithCheckout is writeError plus the checkout snapshot, so a
// failed placement still shows the wizard state next to the message.
func (h *Handler) writeErrorWithCheckout(w http.ResponseWriter, err error, snap *checkout.Snapshot) {
	apiErr := h.toAPIError(err)
	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:      apiErr.Code,
			Message:   apiErr.Message,
			Retryable: apiErr.Retryable(),
		},
		Checkout: snap,
	})
}

// toAPIError finds the APIError in err's chain or wraps err as an internal
// error without leaking details.
func (h *Handler) toAPIError(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	h.logger.Error("internal error", slog.String("error", err.Error()))
	return &model.APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error    errorBody          `json:"error"`
	Checkout *checkout.Snapshot `json:"checkout,omitempty"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
