package handler

import (
	"log/slog"
	"net/http"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// handleGetCart returns the current cart view.
// GET /cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := app.Cart(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// handleAddItem adds a product to the cart.
// POST /cart/items
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "adding item",
		slog.String("product_id", req.ProductID),
		slog.Int("quantity", req.Quantity),
	)

	view, err := app.AddItem(ctx, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// handleUpdateQuantity sets a line item's quantity.
// PATCH /cart/items/{id}
func (h *Handler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	view, err := app.UpdateQuantity(r.Context(), r.PathValue("id"), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// handleRemoveItem deletes a line item. Unknown ids are a no-op.
// DELETE /cart/items/{id}
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := app.RemoveItem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}
