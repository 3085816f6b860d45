package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
)

// handleListProducts returns a catalog page.
// GET /products?category=&search=&limit=&offset=
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	q := r.URL.Query()
	query := model.ProductQuery{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if query.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		h.writeError(w, err)
		return
	}
	if query.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		h.writeError(w, err)
		return
	}

	page, err := app.Products(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	page.Products = nonNil(page.Products)
	h.writeJSON(w, http.StatusOK, page)
}

// handleGetProduct returns one product and records the view.
// GET /products/{id}
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	p, err := app.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// handleRecentlyViewed returns recently viewed products, newest first.
// GET /products/recent
func (h *Handler) handleRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	app, err := h.app(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	products, err := app.RecentlyViewed(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listResponse[model.Product]{Items: nonNil(products)})
}

// intParam parses an optional integer query parameter.
func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(name, "must be an integer")
	}
	return n, nil
}
