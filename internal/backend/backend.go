// Package backend defines the contract the storefront consumes from the remote
// commerce API. The GraphQL client implements it against the real API;
// Memory implements it in-process for development and tests.
package backend

import (
	"context"

	"storefront/internal/model"
)

// Backend abstracts the remote commerce API. It is the system of record for
// carts, prices, orders and payments.
//
// All methods return *model.APIError (possibly wrapped) on failure so callers
// can tell transient failures from validation and not-found cases.
type Backend interface {
	// GetCart returns the cart owned by ownerID, or a not-found error.
	GetCart(ctx context.Context, ownerID string) (*model.Cart, error)

	// CreateCart creates an empty cart with zeroed totals for ownerID.
	CreateCart(ctx context.Context, ownerID string) (*model.Cart, error)

	// AddLineItem adds a product to the cart. Adding a product already in the
	// cart increases that line's quantity.
	AddLineItem(ctx context.Context, cartID string, item model.LineItemInput) error

	// UpdateLineItem sets the quantity of an existing line.
	UpdateLineItem(ctx context.Context, cartID, lineID string, quantity int) error

	// RemoveLineItem deletes a line.
	RemoveLineItem(ctx context.Context, cartID, lineID string) error

	// GetProduct returns a catalog entry with its current price.
	GetProduct(ctx context.Context, productID string) (*model.Product, error)

	// ListProducts returns one page of the catalog.
	ListProducts(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error)

	// GetShippingQuote returns the tax rate and shipping tiers for a country.
	GetShippingQuote(ctx context.Context, country string) (*model.ShippingQuote, error)

	// ValidateCoupon resolves a discount code.
	ValidateCoupon(ctx context.Context, code string) (*model.Coupon, error)

	// CreateOrder turns the cart into an order. Repeating a call with the same
	// reference must not create a second order.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error)

	// VerifyPayment checks the gateway payment for an order reference.
	VerifyPayment(ctx context.Context, reference string) (*model.PaymentVerification, error)

	// Login exchanges credentials for a session token.
	Login(ctx context.Context, email, password string) (*model.AuthResult, error)

	// Register creates an account and returns a session token.
	Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error)

	// Wishlist, notifications: require the session token on ctx.
	Wishlist(ctx context.Context) ([]model.WishlistItem, error)
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
	Notifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

type tokenKey struct{}

// WithAuthToken attaches the visitor's session token to ctx. Implementations
// send it with every call made under ctx.
func WithAuthToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// AuthToken returns the session token attached to ctx, if any.
func AuthToken(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey{}).(string); ok {
		return v
	}
	return ""
}
