// Package cart reads and edits the remote cart owned by the current identity.
//
// Accessor fetches or lazily creates the single cart of an identity.
// Mutator layers optimistic edits on top, keyed by line-item id.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"storefront/internal/backend"
	"storefront/internal/model"
)

// Accessor returns exactly one cart per identity.
type Accessor struct {
	backend backend.Backend
	logger  *slog.Logger
	group   singleflight.Group
}

// NewAccessor creates an accessor over the commerce backend.
func NewAccessor(b backend.Backend, logger *slog.Logger) *Accessor {
	return &Accessor{backend: b, logger: logger}
}

// GetCart returns the identity's cart, creating an empty one when none
// exists. Concurrent calls for the same identity share one round trip, so
// a first visit never creates two carts.
//
// Errors are returned as-is; a failed load is never reported as an empty cart.
func (a *Accessor) GetCart(ctx context.Context, id model.Identity) (*model.Cart, error) {
	if id.IsZero() {
		return nil, model.NewValidationError("identity", "cart owner is required")
	}

	v, err, _ := a.group.Do(id.ID, func() (any, error) {
		return a.fetchOrCreate(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return cloneCart(v.(*model.Cart)), nil
}

// Refetch reads the cart without creating one.
func (a *Accessor) Refetch(ctx context.Context, id model.Identity) (*model.Cart, error) {
	c, err := a.backend.GetCart(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	return normalize(c, id), nil
}

func (a *Accessor) fetchOrCreate(ctx context.Context, id model.Identity) (*model.Cart, error) {
	c, err := a.backend.GetCart(ctx, id.ID)
	if err == nil {
		return normalize(c, id), nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	c, err = a.backend.CreateCart(ctx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}
	a.logger.Info("cart created", "owner_kind", id.Kind, "owner_id", id.ID, "cart_id", c.ID)
	return normalize(c, id), nil
}

// normalize guarantees the invariants downstream code relies on: a non-nil
// line list and quantities of at least one. The server subtotal is kept
// unless lines had to be dropped or it is missing.
func normalize(c *model.Cart, id model.Identity) *model.Cart {
	out := &model.Cart{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Currency:  c.Currency,
		LineItems: make([]model.LineItem, 0, len(c.LineItems)),
	}
	if out.OwnerID == "" {
		out.OwnerID = id.ID
	}
	for _, li := range c.LineItems {
		if li.Quantity < 1 || li.ID == "" {
			continue
		}
		out.LineItems = append(out.LineItems, li)
	}
	if c.Subtotal != 0 && len(out.LineItems) == len(c.LineItems) {
		out.Subtotal = c.Subtotal
	} else {
		out.Subtotal = out.ComputeSubtotal()
	}
	return out
}

func cloneCart(c *model.Cart) *model.Cart {
	out := *c
	out.LineItems = append([]model.LineItem(nil), c.LineItems...)
	if out.LineItems == nil {
		out.LineItems = []model.LineItem{}
	}
	return &out
}
