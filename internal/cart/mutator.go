package cart

import (
	"context"
	"log/slog"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/reconcile"
	"storefront/internal/storage"
)

// IdentitySource resolves the current cart owner.
type IdentitySource interface {
	Resolve(ctx context.Context) (model.Identity, error)
}

// View is the cart as the shopper should see it right now, optimistic
// edits included.
type View struct {
	CartID    string         `json:"cart_id"`
	Owner     model.Identity `json:"owner"`
	Lines     []LineView     `json:"lines"`
	Subtotal  int64          `json:"subtotal"`
	ItemCount int            `json:"item_count"`
}

// LineView is one displayed line with its sync state.
type LineView struct {
	model.LineItem
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Items returns the displayed line items.
func (v *View) Items() []model.LineItem {
	items := make([]model.LineItem, 0, len(v.Lines))
	for _, l := range v.Lines {
		items = append(items, l.LineItem)
	}
	return items
}

// Mutator applies cart edits for one profile. Safe for concurrent use;
// the lock is never held across a network call.
type Mutator struct {
	ids      IdentitySource
	accessor *Accessor
	backend  backend.Backend
	local    *storage.Local
	logger   *slog.Logger

	mu       sync.Mutex
	owner    model.Identity
	cartID   string
	lines    []reconcile.Line
	subtotal int64 // as of the last server read
}

// NewMutator wires a mutator. local receives the guest cart snapshot.
func NewMutator(ids IdentitySource, accessor *Accessor, b backend.Backend, local *storage.Local, logger *slog.Logger) *Mutator {
	return &Mutator{
		ids:      ids,
		accessor: accessor,
		backend:  b,
		local:    local,
		logger:   logger,
	}
}

// Load fetches (or creates) the current identity's cart and merges it into
// the local view.
func (m *Mutator) Load(ctx context.Context) (*View, error) {
	id, err := m.ids.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	c, err := m.accessor.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	view := m.apply(id, c)
	m.saveGuestSnapshot(ctx, id, view)
	return view, nil
}

// View returns the current local view without a network call.
func (m *Mutator) View() *View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Reset drops the local view, e.g. after logout or a placed order.
func (m *Mutator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner = model.Identity{}
	m.cartID = ""
	m.lines = nil
	m.subtotal = 0
}

// AddItem adds qty of a product and re-reads the cart so totals come from
// the server.
func (m *Mutator) AddItem(ctx context.Context, productID string, qty int, unitPrice int64) (*View, error) {
	if productID == "" {
		return nil, model.NewValidationError("product_id", "is required")
	}
	if qty < 1 {
		return nil, model.NewValidationError("quantity", "must be at least 1")
	}

	id, err := m.ids.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	c, err := m.accessor.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	err = m.backend.AddLineItem(ctx, c.ID, model.LineItemInput{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: unitPrice,
	})
	if err != nil {
		m.logger.Warn("add item failed", "cart_id", c.ID, "product_id", productID, "error", err)
		return nil, err
	}

	fresh, err := m.accessor.Refetch(ctx, id)
	if err != nil {
		return nil, err
	}
	view := m.apply(id, fresh)
	m.saveGuestSnapshot(ctx, id, view)
	return view, nil
}

// UpdateQuantity sets a line's quantity. Quantities below one are rejected
// before any call is made and leave the view unchanged. The new quantity is
// shown immediately and rolled back if the server rejects it.
func (m *Mutator) UpdateQuantity(ctx context.Context, lineID string, qty int) (*View, error) {
	if qty < 1 {
		return nil, model.NewValidationError("quantity", "must be at least 1")
	}
	id, err := m.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	idx := m.indexLocked(lineID)
	if idx < 0 || m.lines[idx].Removed {
		m.mu.Unlock()
		return nil, model.NewNotFoundError("line item")
	}
	m.lines[idx] = reconcile.BeginQuantity(m.lines[idx], qty)
	seq, cartID := m.lines[idx].Seq, m.cartID
	m.mu.Unlock()

	callErr := m.backend.UpdateLineItem(ctx, cartID, lineID, qty)
	return m.finish(ctx, id, lineID, seq, callErr)
}

// RemoveItem deletes a line. Unknown ids are a no-op. The line is hidden
// immediately and restored if the call fails.
func (m *Mutator) RemoveItem(ctx context.Context, lineID string) (*View, error) {
	id, err := m.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	idx := m.indexLocked(lineID)
	if idx < 0 || m.lines[idx].Removed {
		view := m.viewLocked()
		m.mu.Unlock()
		return view, nil
	}
	m.lines[idx] = reconcile.BeginRemoval(m.lines[idx])
	seq, cartID := m.lines[idx].Seq, m.cartID
	m.mu.Unlock()

	callErr := m.backend.RemoveLineItem(ctx, cartID, lineID)
	return m.finish(ctx, id, lineID, seq, callErr)
}

// finish settles one optimistic edit, then re-reads the cart. A failed
// re-read keeps the settled local state.
func (m *Mutator) finish(ctx context.Context, id model.Identity, lineID string, seq uint64, callErr error) (*View, error) {
	m.mu.Lock()
	if m.owner == id {
		if idx := m.indexLocked(lineID); idx >= 0 {
			if callErr != nil {
				m.lines[idx] = reconcile.Rollback(m.lines[idx], seq, callErr)
			} else if l, keep := reconcile.Commit(m.lines[idx], seq); keep {
				m.lines[idx] = l
			} else {
				m.lines = append(m.lines[:idx], m.lines[idx+1:]...)
			}
		}
		// Stale until the re-read below.
		m.subtotal = 0
	}
	m.mu.Unlock()

	if callErr != nil {
		m.logger.Warn("cart edit rolled back", "line_id", lineID, "error", callErr)
	}

	var view *View
	if fresh, err := m.accessor.Refetch(ctx, id); err == nil {
		view = m.apply(id, fresh)
	} else {
		m.logger.Debug("cart refetch failed", "error", err)
		view = m.View()
	}

	if callErr != nil {
		return view, callErr
	}
	m.saveGuestSnapshot(ctx, id, view)
	return view, nil
}

// ensureLoaded loads the cart when the view is empty or belongs to another
// identity.
func (m *Mutator) ensureLoaded(ctx context.Context) (model.Identity, error) {
	id, err := m.ids.Resolve(ctx)
	if err != nil {
		return model.Identity{}, err
	}
	m.mu.Lock()
	loaded := m.owner == id && m.cartID != ""
	m.mu.Unlock()
	if loaded {
		return id, nil
	}

	c, err := m.accessor.GetCart(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}
	m.apply(id, c)
	return id, nil
}

// apply merges a server read into the view and returns the new view.
func (m *Mutator) apply(id model.Identity, c *model.Cart) *View {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owner != id || m.cartID != c.ID {
		m.owner = id
		m.cartID = c.ID
		m.lines = reconcile.FromItems(c.LineItems)
	} else {
		m.lines = reconcile.Settle(m.lines, c.LineItems)
	}
	m.subtotal = c.Subtotal
	return m.viewLocked()
}

func (m *Mutator) indexLocked(lineID string) int {
	for i, l := range m.lines {
		if l.Item.ID == lineID {
			return i
		}
	}
	return -1
}

func (m *Mutator) viewLocked() *View {
	v := &View{CartID: m.cartID, Owner: m.owner, Lines: make([]LineView, 0, len(m.lines))}
	settled := true
	for _, l := range m.lines {
		if l.Status != reconcile.Synced {
			settled = false
		}
		if l.Removed {
			continue
		}
		lv := LineView{LineItem: l.Item, Status: l.Status.String()}
		if l.Err != nil {
			lv.Error = l.Err.Error()
		}
		v.Lines = append(v.Lines, lv)
		v.Subtotal += l.Item.Total()
		v.ItemCount += l.Item.Quantity
	}
	// Local edits in flight are priced from the lines.
	if settled && m.subtotal != 0 {
		v.Subtotal = m.subtotal
	}
	return v
}

// saveGuestSnapshot writes the guest cart cache. Nothing is written once the
// stored identity is no longer this guest, so a merge cannot be undone by a
// late write.
func (m *Mutator) saveGuestSnapshot(ctx context.Context, id model.Identity, view *View) {
	if !id.IsGuest() || m.local == nil {
		return
	}
	current, ok, err := m.local.Identity(ctx)
	if err != nil || !ok || current != id {
		return
	}
	if err := m.local.SetGuestCart(ctx, view.Items()); err != nil {
		m.logger.Warn("saving guest cart snapshot failed", "error", err)
	}
}
