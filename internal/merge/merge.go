// Package merge moves a guest cart onto the user cart after sign-in.
package merge

import (
	"context"
	"log/slog"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/storage"
)

// ItemResult is the outcome for one guest line.
type ItemResult struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	OK        bool   `json:"ok"`
	Err       error  `json:"-"`
}

// Result summarizes a merge.
type Result struct {
	CartID  string       `json:"cart_id,omitempty"`
	Items   []ItemResult `json:"items"`
	Skipped bool         `json:"skipped"` // guest cart was empty
}

// Failed returns the items that could not be merged.
func (r *Result) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if !it.OK {
			out = append(out, it)
		}
	}
	return out
}

// Merger performs the guest-to-user merge for one profile.
type Merger struct {
	accessor *cart.Accessor
	backend  backend.Backend
	local    *storage.Local
	logger   *slog.Logger
}

// NewMerger creates a merger.
func NewMerger(accessor *cart.Accessor, b backend.Backend, local *storage.Local, logger *slog.Logger) *Merger {
	return &Merger{accessor: accessor, backend: b, local: local, logger: logger}
}

// Merge adds every guest line to the user's cart, one item at a time.
//
// Each item is priced from the product's current server price, not the
// guest snapshot. A failed item is logged and recorded but never stops the
// loop, and the guest cart and guest id are cleared afterwards whatever
// happened. Merge itself only fails when clearing guest state fails; the
// caller must not run it twice for one sign-in.
func (m *Merger) Merge(ctx context.Context, user model.Identity) (*Result, error) {
	log := m.logger.With("profile", m.local.Profile(), "user_id", user.ID)
	res := &Result{Items: []ItemResult{}}

	items, err := m.local.GuestCart(ctx)
	if err != nil {
		log.Warn("reading guest cart failed, skipping merge", "error", err)
		res.Skipped = true
		return res, m.clear(ctx)
	}
	if len(items) == 0 {
		res.Skipped = true
		return res, m.clear(ctx)
	}

	c, err := m.accessor.GetCart(ctx, user)
	if err != nil {
		log.Error("resolving user cart failed, guest items dropped", "items", len(items), "error", err)
		for _, it := range items {
			res.Items = append(res.Items, ItemResult{ProductID: it.ProductID, Quantity: it.Quantity, Err: err})
		}
		return res, m.clear(ctx)
	}
	res.CartID = c.ID

	for _, it := range items {
		r := ItemResult{ProductID: it.ProductID, Quantity: it.Quantity}
		r.Err = m.mergeItem(ctx, c.ID, it)
		r.OK = r.Err == nil
		if !r.OK {
			log.Warn("merge item failed", "product_id", it.ProductID, "quantity", it.Quantity, "error", r.Err)
		}
		res.Items = append(res.Items, r)
	}

	log.Info("guest cart merged", "cart_id", c.ID, "items", len(res.Items), "failed", len(res.Failed()))
	return res, m.clear(ctx)
}

func (m *Merger) mergeItem(ctx context.Context, cartID string, it model.LineItem) error {
	if it.Quantity < 1 {
		return model.NewValidationError("quantity", "must be at least 1")
	}
	p, err := m.backend.GetProduct(ctx, it.ProductID)
	if err != nil {
		return err
	}
	return m.backend.AddLineItem(ctx, cartID, model.LineItemInput{
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		UnitPrice: p.Price,
	})
}

func (m *Merger) clear(ctx context.Context) error {
	if err := m.local.ClearGuest(ctx); err != nil {
		m.logger.Error("clearing guest state failed", "profile", m.local.Profile(), "error", err)
		return err
	}
	return nil
}
