package handler

import (
	"net/http"

	"storefront/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type wishlistRequest struct {
	ProductID string `json:"product_id"`
}

// handleLogin signs in and merges the guest cart.
// POST /auth/login
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	out, err := app.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleRegister creates an account and signs in.
// POST /auth/register
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req model.Registration
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	out, err := app.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, out)
}

// handleLogout ends the session and drops the profile's in-process state.
// The profile continues as a new guest.
// POST /auth/logout
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := app.Logout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.registry.Evict(app.Profile())
	w.WriteHeader(http.StatusNoContent)
}

// GET /wishlist
func (h *Handler) handleWishlist(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items, err := app.Wishlist(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listResponse[model.WishlistItem]{Items: nonNil(items)})
}

// POST /wishlist
func (h *Handler) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req wishlistRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := app.AddToWishlist(r.Context(), req.ProductID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /wishlist/{productId}
func (h *Handler) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := app.RemoveFromWishlist(r.Context(), r.PathValue("productId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /notifications
func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	notes, err := app.Notifications(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listResponse[model.Notification]{Items: nonNil(notes)})
}

// POST /notifications/{id}/read
func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := app.MarkNotificationRead(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listResponse wraps collections so the top level stays an object.
type listResponse[T any] struct {
	Items []T `json:"items"`
}

// nonNil keeps empty lists serialized as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
