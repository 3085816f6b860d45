package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/checkout"
	"storefront/internal/model"
)

type destinationRequest struct {
	Country string `json:"country"`
}

type shippingRequest struct {
	Type model.ShippingType `json:"type"`
}

type paymentRequest struct {
	Method model.PaymentMethod `json:"method"`
}

type couponRequest struct {
	Code string `json:"code"`
}

// writeSnapshot writes snap, or the error together with the snapshot when
// the step failed after the wizard state changed.
func (h *Handler) writeSnapshot(w http.ResponseWriter, status int, snap *checkout.Snapshot, err error) {
	if err != nil {
		h.writeErrorWithCheckout(w, err, snap)
		return
	}
	h.writeJSON(w, status, snap)
}

// handleBeginCheckout starts the wizard for a non-empty cart.
// POST /checkout
func (h *Handler) handleBeginCheckout(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.BeginCheckout(r.Context())
	h.writeSnapshot(w, http.StatusCreated, snap, err)
}

// GET /checkout
func (h *Handler) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, app.Checkout())
}

// handleAbandonCheckout leaves the wizard. Refused while an order is being
// placed.
// DELETE /checkout
func (h *Handler) handleAbandonCheckout(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := app.AbandonCheckout(); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /checkout/destination
func (h *Handler) handleSetDestination(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req destinationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.SetDestination(r.Context(), req.Country)
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// PUT /checkout/shipping
func (h *Handler) handleSelectShipping(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req shippingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.SelectShipping(req.Type)
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// PUT /checkout/payment
func (h *Handler) handleSelectPayment(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.SelectPayment(req.Method)
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// PUT /checkout/coupon
func (h *Handler) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.ApplyCoupon(r.Context(), req.Code)
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// DELETE /checkout/coupon
func (h *Handler) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.RemoveCoupon()
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// POST /checkout/back
func (h *Handler) handleCheckoutBack(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.CheckoutBack()
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// POST /checkout/retry
func (h *Handler) handleCheckoutRetry(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.CheckoutRetry()
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// handleCancelPayment gives up on a gateway payment the shopper has not
// completed. The session moves to order_failed and can be retried.
// POST /checkout/cancel
func (h *Handler) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.CancelPayment()
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// handlePlaceOrder creates the order. Gateway payments answer with the
// redirect URL and stay in placing_order until the return call.
// POST /checkout/place
func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.PlaceOrder(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "order placement failed",
			slog.String("profile", app.Profile()),
			slog.String("error", err.Error()),
		)
	}
	h.writeSnapshot(w, http.StatusOK, snap, err)
}

// handleCheckoutReturn verifies a gateway payment. The gateway redirects
// the browser here, so the profile comes from the query instead of the
// client header.
// GET /checkout/return?profile=&reference=
func (h *Handler) handleCheckoutReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	reference := q.Get("reference")
	if reference == "" {
		h.writeError(w, model.NewValidationError("reference", "is required"))
		return
	}

	app, err := h.registry.Get(q.Get("profile"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := app.VerifyPayment(ctx, reference)
	h.logger.InfoContext(ctx, "payment return",
		slog.String("profile", app.Profile()),
		slog.String("reference", reference),
		slog.Bool("ok", err == nil),
	)
	h.writeSnapshot(w, http.StatusOK, snap, err)
}
