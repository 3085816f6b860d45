// Package storefront assembles the per-profile application state: identity,
// cart, merge and checkout over one local store and one backend.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/identity"
	"storefront/internal/merge"
	"storefront/internal/model"
	"storefront/internal/storage"
)

// Deps are shared by every App.
type Deps struct {
	Backend     backend.Backend
	Store       storage.Store
	Logger      *slog.Logger
	ReturnURL   string // gateway return address
	RecentLimit int
	// PaymentTimeout bounds an unresolved gateway payment; zero uses
	// checkout.DefaultPaymentTimeout.
	PaymentTimeout time.Duration
}

// App is the application state of one browser profile. It is created on
// first use and cleared on logout.
type App struct {
	profile string
	backend backend.Backend
	local   *storage.Local
	logger  *slog.Logger
	recent  int

	resolver *identity.Resolver
	mutator  *cart.Mutator
	merger   *merge.Merger
	checkout *checkout.Orchestrator

	authMu sync.Mutex // one sign-in or sign-out at a time
}

// AuthOutcome is returned by Login and Register.
type AuthOutcome struct {
	User     model.User     `json:"user"`
	Identity model.Identity `json:"identity"`
	Merge    *merge.Result  `json:"merge"`
}

// NewApp wires the components for one profile.
func NewApp(profile string, deps Deps) *App {
	logger := deps.Logger.With("profile", profile)
	local := storage.NewLocal(deps.Store, profile)
	resolver := identity.NewResolver(local, logger)
	accessor := cart.NewAccessor(deps.Backend, logger)
	mutator := cart.NewMutator(resolver, accessor, deps.Backend, local, logger)

	recent := deps.RecentLimit
	if recent <= 0 {
		recent = storage.DefaultRecentLimit
	}

	a := &App{
		profile:  profile,
		backend:  deps.Backend,
		local:    local,
		logger:   logger,
		recent:   recent,
		resolver: resolver,
		mutator:  mutator,
		merger:   merge.NewMerger(accessor, deps.Backend, local, logger),
		checkout: checkout.New(deps.Backend, mutator, returnURLFor(deps.ReturnURL, profile), logger),
	}
	a.checkout.OnConfirmed = a.orderConfirmed
	if deps.PaymentTimeout > 0 {
		a.checkout.PaymentTimeout = deps.PaymentTimeout
	}
	return a
}

// returnURLFor tags the gateway return address with the profile so the
// return request can be routed without the client header.
func returnURLFor(base, profile string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("profile", profile)
	u.RawQuery = q.Encode()
	return u.String()
}

// Profile returns the profile id.
func (a *App) Profile() string { return a.profile }

// session attaches the stored session token to ctx.
func (a *App) session(ctx context.Context) context.Context {
	token, err := a.resolver.Token(ctx)
	if err != nil {
		a.logger.Warn("reading session token failed", "error", err)
		return ctx
	}
	return backend.WithAuthToken(ctx, token)
}

// Identity resolves the current cart owner.
func (a *App) Identity(ctx context.Context) (model.Identity, error) {
	return a.resolver.Resolve(ctx)
}

// === Cart ===

func (a *App) Cart(ctx context.Context) (*cart.View, error) {
	return a.mutator.Load(a.session(ctx))
}

// AddItem adds a product at its catalog price.
func (a *App) AddItem(ctx context.Context, productID string, qty int) (*cart.View, error) {
	ctx = a.session(ctx)
	if productID == "" {
		return nil, model.NewValidationError("product_id", "is required")
	}
	if qty < 1 {
		return nil, model.NewValidationError("quantity", "must be at least 1")
	}
	p, err := a.backend.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return a.mutator.AddItem(ctx, p.ID, qty, p.Price)
}

func (a *App) UpdateQuantity(ctx context.Context, lineID string, qty int) (*cart.View, error) {
	return a.mutator.UpdateQuantity(a.session(ctx), lineID, qty)
}

func (a *App) RemoveItem(ctx context.Context, lineID string) (*cart.View, error) {
	return a.mutator.RemoveItem(a.session(ctx), lineID)
}

// === Auth ===

// Login signs in and merges the guest cart.
func (a *App) Login(ctx context.Context, email, password string) (*AuthOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.NewValidationError("email", "is required")
	}
	if password == "" {
		return nil, model.NewValidationError("password", "is required")
	}

	res, err := a.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return a.signIn(ctx, res)
}

// Register creates an account, signs in and merges the guest cart.
func (a *App) Register(ctx context.Context, reg model.Registration) (*AuthOutcome, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Email == "" {
		return nil, model.NewValidationError("email", "is required")
	}
	if reg.Password == "" {
		return nil, model.NewValidationError("password", "is required")
	}

	res, err := a.backend.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return a.signIn(ctx, res)
}

// signIn switches the profile to the user and runs the merge exactly once
// for this sign-in. Merge problems are logged and never fail the login.
func (a *App) signIn(ctx context.Context, res *model.AuthResult) (*AuthOutcome, error) {
	a.authMu.Lock()
	defer a.authMu.Unlock()

	id, err := a.resolver.SignIn(ctx, res.Token, res.User)
	if err != nil {
		return nil, err
	}
	a.mutator.Reset()
	if _, err := a.checkout.Cancel(); err == nil {
		a.logger.Info("pending payment cancelled by sign-in")
	}
	if err := a.checkout.Abandon(); err != nil {
		a.logger.Warn("checkout left in progress across sign-in", "error", err)
	}

	result, err := a.merger.Merge(backend.WithAuthToken(ctx, res.Token), id)
	if err != nil {
		a.logger.Error("guest cleanup after merge failed", "error", err)
	}
	a.logger.Info("signed in", "user_id", id.ID)
	return &AuthOutcome{User: res.User, Identity: id, Merge: result}, nil
}

// Logout clears the session and the local cart view. The next request
// starts a fresh guest. A gateway payment still awaiting the shopper is
// cancelled; only an order creation call in flight blocks sign-out.
func (a *App) Logout(ctx context.Context) error {
	a.authMu.Lock()
	defer a.authMu.Unlock()

	if _, err := a.checkout.Cancel(); err != nil && !errors.Is(err, model.ErrConflict) {
		return err
	}
	if err := a.checkout.Abandon(); err != nil {
		return err
	}
	if err := a.resolver.SignOut(ctx); err != nil {
		return err
	}
	a.mutator.Reset()
	a.logger.Info("signed out")
	return nil
}

// === Catalog ===

// Product returns a catalog entry and records it as recently viewed.
func (a *App) Product(ctx context.Context, productID string) (*model.Product, error) {
	p, err := a.backend.GetProduct(a.session(ctx), productID)
	if err != nil {
		return nil, err
	}
	if _, err := a.local.PushRecentlyViewed(ctx, p.ID, a.recent); err != nil {
		a.logger.Warn("recording recently viewed failed", "product_id", p.ID, "error", err)
	}
	return p, nil
}

func (a *App) Products(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error) {
	if q.Limit < 0 || q.Offset < 0 {
		return nil, model.NewValidationError("pagination", "limit and offset must not be negative")
	}
	return a.backend.ListProducts(a.session(ctx), q)
}

// RecentlyViewed returns recently viewed products, most recent first.
// Products that no longer exist are skipped.
func (a *App) RecentlyViewed(ctx context.Context) ([]model.Product, error) {
	ids, err := a.local.RecentlyViewed(ctx)
	if err != nil {
		return nil, err
	}
	ctx = a.session(ctx)
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		p, err := a.backend.GetProduct(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// === Wishlist & notifications ===

// requireUser returns a context carrying the user's session, or an
// unauthorized error for guests.
func (a *App) requireUser(ctx context.Context) (context.Context, error) {
	id, err := a.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsUser() {
		return nil, model.NewUnauthorizedError("login required")
	}
	return a.session(ctx), nil
}

func (a *App) Wishlist(ctx context.Context) ([]model.WishlistItem, error) {
	ctx, err := a.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return a.backend.Wishlist(ctx)
}

func (a *App) AddToWishlist(ctx context.Context, productID string) error {
	if productID == "" {
		return model.NewValidationError("product_id", "is required")
	}
	ctx, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	return a.backend.AddToWishlist(ctx, productID)
}

func (a *App) RemoveFromWishlist(ctx context.Context, productID string) error {
	ctx, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	return a.backend.RemoveFromWishlist(ctx, productID)
}

func (a *App) Notifications(ctx context.Context) ([]model.Notification, error) {
	ctx, err := a.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return a.backend.Notifications(ctx)
}

func (a *App) MarkNotificationRead(ctx context.Context, id string) error {
	ctx, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	return a.backend.MarkNotificationRead(ctx, id)
}

// === Checkout ===

func (a *App) BeginCheckout(ctx context.Context) (*checkout.Snapshot, error) {
	return a.checkout.Begin(a.session(ctx))
}

func (a *App) SetDestination(ctx context.Context, country string) (*checkout.Snapshot, error) {
	return a.checkout.SetDestination(a.session(ctx), country)
}

func (a *App) SelectShipping(t model.ShippingType) (*checkout.Snapshot, error) {
	return a.checkout.SelectShipping(t)
}

func (a *App) SelectPayment(m model.PaymentMethod) (*checkout.Snapshot, error) {
	return a.checkout.SelectPayment(m)
}

func (a *App) ApplyCoupon(ctx context.Context, code string) (*checkout.Snapshot, error) {
	return a.checkout.ApplyCoupon(a.session(ctx), code)
}

func (a *App) RemoveCoupon() (*checkout.Snapshot, error) {
	return a.checkout.RemoveCoupon()
}

func (a *App) CheckoutBack() (*checkout.Snapshot, error) {
	return a.checkout.Back()
}

func (a *App) CheckoutRetry() (*checkout.Snapshot, error) {
	return a.checkout.Retry()
}

func (a *App) PlaceOrder(ctx context.Context) (*checkout.Snapshot, error) {
	return a.checkout.PlaceOrder(a.session(ctx))
}

func (a *App) VerifyPayment(ctx context.Context, reference string) (*checkout.Snapshot, error) {
	return a.checkout.VerifyPayment(a.session(ctx), reference)
}

// CancelPayment gives up on a gateway payment the shopper never completed.
func (a *App) CancelPayment() (*checkout.Snapshot, error) {
	return a.checkout.Cancel()
}

func (a *App) Checkout() *checkout.Snapshot {
	return a.checkout.Snapshot()
}

func (a *App) AbandonCheckout() error {
	return a.checkout.Abandon()
}

// orderConfirmed drops the consumed cart from the local view and the guest
// snapshot.
func (a *App) orderConfirmed(ctx context.Context, order model.Order) {
	a.mutator.Reset()
	id, err := a.resolver.Resolve(ctx)
	if err == nil && id.IsGuest() {
		if err := a.local.SetGuestCart(ctx, nil); err != nil {
			a.logger.Warn("clearing guest cart snapshot failed", "error", err)
		}
	}
	a.logger.Info("cart reset after order", "order_number", order.Number)
}
