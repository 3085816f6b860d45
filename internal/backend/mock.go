package backend

import (
	"context"

	"storefront/internal/model"
)

// Mock implements Backend for testing.
// Each method can be overridden via its function field. Methods without an
// override delegate to Fallback when set, and otherwise fail.
type Mock struct {
	Fallback Backend

	GetCartFunc              func(ctx context.Context, ownerID string) (*model.Cart, error)
	CreateCartFunc           func(ctx context.Context, ownerID string) (*model.Cart, error)
	AddLineItemFunc          func(ctx context.Context, cartID string, item model.LineItemInput) error
	UpdateLineItemFunc       func(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLineItemFunc       func(ctx context.Context, cartID, lineID string) error
	GetProductFunc           func(ctx context.Context, productID string) (*model.Product, error)
	ListProductsFunc         func(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error)
	GetShippingQuoteFunc     func(ctx context.Context, country string) (*model.ShippingQuote, error)
	ValidateCouponFunc       func(ctx context.Context, code string) (*model.Coupon, error)
	CreateOrderFunc          func(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error)
	VerifyPaymentFunc        func(ctx context.Context, reference string) (*model.PaymentVerification, error)
	LoginFunc                func(ctx context.Context, email, password string) (*model.AuthResult, error)
	RegisterFunc             func(ctx context.Context, reg model.Registration) (*model.AuthResult, error)
	WishlistFunc             func(ctx context.Context) ([]model.WishlistItem, error)
	AddToWishlistFunc        func(ctx context.Context, productID string) error
	RemoveFromWishlistFunc   func(ctx context.Context, productID string) error
	NotificationsFunc        func(ctx context.Context) ([]model.Notification, error)
	MarkNotificationReadFunc func(ctx context.Context, notificationID string) error
}

func (m *Mock) unconfigured(what string) error {
	return model.NewNotFoundError(what)
}

func (m *Mock) GetCart(ctx context.Context, ownerID string) (*model.Cart, error) {
	switch {
	case m.GetCartFunc != nil:
		return m.GetCartFunc(ctx, ownerID)
	case m.Fallback != nil:
		return m.Fallback.GetCart(ctx, ownerID)
	}
	return nil, m.unconfigured("cart")
}

func (m *Mock) CreateCart(ctx context.Context, ownerID string) (*model.Cart, error) {
	switch {
	case m.CreateCartFunc != nil:
		return m.CreateCartFunc(ctx, ownerID)
	case m.Fallback != nil:
		return m.Fallback.CreateCart(ctx, ownerID)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) AddLineItem(ctx context.Context, cartID string, item model.LineItemInput) error {
	switch {
	case m.AddLineItemFunc != nil:
		return m.AddLineItemFunc(ctx, cartID, item)
	case m.Fallback != nil:
		return m.Fallback.AddLineItem(ctx, cartID, item)
	}
	return m.unconfigured("cart")
}

func (m *Mock) UpdateLineItem(ctx context.Context, cartID, lineID string, quantity int) error {
	switch {
	case m.UpdateLineItemFunc != nil:
		return m.UpdateLineItemFunc(ctx, cartID, lineID, quantity)
	case m.Fallback != nil:
		return m.Fallback.UpdateLineItem(ctx, cartID, lineID, quantity)
	}
	return m.unconfigured("line item")
}

func (m *Mock) RemoveLineItem(ctx context.Context, cartID, lineID string) error {
	switch {
	case m.RemoveLineItemFunc != nil:
		return m.RemoveLineItemFunc(ctx, cartID, lineID)
	case m.Fallback != nil:
		return m.Fallback.RemoveLineItem(ctx, cartID, lineID)
	}
	return m.unconfigured("line item")
}

func (m *Mock) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	switch {
	case m.GetProductFunc != nil:
		return m.GetProductFunc(ctx, productID)
	case m.Fallback != nil:
		return m.Fallback.GetProduct(ctx, productID)
	}
	return nil, m.unconfigured("product")
}

func (m *Mock) ListProducts(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error) {
	switch {
	case m.ListProductsFunc != nil:
		return m.ListProductsFunc(ctx, q)
	case m.Fallback != nil:
		return m.Fallback.ListProducts(ctx, q)
	}
	return &model.ProductPage{Products: []model.Product{}}, nil
}

func (m *Mock) GetShippingQuote(ctx context.Context, country string) (*model.ShippingQuote, error) {
	switch {
	case m.GetShippingQuoteFunc != nil:
		return m.GetShippingQuoteFunc(ctx, country)
	case m.Fallback != nil:
		return m.Fallback.GetShippingQuote(ctx, country)
	}
	return nil, m.unconfigured("shipping quote")
}

func (m *Mock) ValidateCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	switch {
	case m.ValidateCouponFunc != nil:
		return m.ValidateCouponFunc(ctx, code)
	case m.Fallback != nil:
		return m.Fallback.ValidateCoupon(ctx, code)
	}
	return nil, m.unconfigured("coupon")
}

func (m *Mock) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error) {
	switch {
	case m.CreateOrderFunc != nil:
		return m.CreateOrderFunc(ctx, req)
	case m.Fallback != nil:
		return m.Fallback.CreateOrder(ctx, req)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) VerifyPayment(ctx context.Context, reference string) (*model.PaymentVerification, error) {
	switch {
	case m.VerifyPaymentFunc != nil:
		return m.VerifyPaymentFunc(ctx, reference)
	case m.Fallback != nil:
		return m.Fallback.VerifyPayment(ctx, reference)
	}
	return nil, m.unconfigured("order")
}

func (m *Mock) Login(ctx context.Context, email, password string) (*model.AuthResult, error) {
	switch {
	case m.LoginFunc != nil:
		return m.LoginFunc(ctx, email, password)
	case m.Fallback != nil:
		return m.Fallback.Login(ctx, email, password)
	}
	return nil, model.NewUnauthorizedError("invalid credentials")
}

func (m *Mock) Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error) {
	switch {
	case m.RegisterFunc != nil:
		return m.RegisterFunc(ctx, reg)
	case m.Fallback != nil:
		return m.Fallback.Register(ctx, reg)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) Wishlist(ctx context.Context) ([]model.WishlistItem, error) {
	switch {
	case m.WishlistFunc != nil:
		return m.WishlistFunc(ctx)
	case m.Fallback != nil:
		return m.Fallback.Wishlist(ctx)
	}
	return []model.WishlistItem{}, nil
}

func (m *Mock) AddToWishlist(ctx context.Context, productID string) error {
	switch {
	case m.AddToWishlistFunc != nil:
		return m.AddToWishlistFunc(ctx, productID)
	case m.Fallback != nil:
		return m.Fallback.AddToWishlist(ctx, productID)
	}
	return nil
}

func (m *Mock) RemoveFromWishlist(ctx context.Context, productID string) error {
	switch {
	case m.RemoveFromWishlistFunc != nil:
		return m.RemoveFromWishlistFunc(ctx, productID)
	case m.Fallback != nil:
		return m.Fallback.RemoveFromWishlist(ctx, productID)
	}
	return nil
}

func (m *Mock) Notifications(ctx context.Context) ([]model.Notification, error) {
	switch {
	case m.NotificationsFunc != nil:
		return m.NotificationsFunc(ctx)
	case m.Fallback != nil:
		return m.Fallback.Notifications(ctx)
	}
	return []model.Notification{}, nil
}

func (m *Mock) MarkNotificationRead(ctx context.Context, notificationID string) error {
	switch {
	case m.MarkNotificationReadFunc != nil:
		return m.MarkNotificationReadFunc(ctx, notificationID)
	case m.Fallback != nil:
		return m.Fallback.MarkNotificationRead(ctx, notificationID)
	}
	return nil
}

// Verify Mock implements Backend interface at compile time.
var _ Backend = (*Mock)(nil)
