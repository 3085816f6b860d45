package graphql

import (
	"context"
	"fmt"

	"storefront/internal/backend"
	"storefront/internal/model"
)

// === Cart ===

func (c *Client) GetCart(ctx context.Context, ownerID string) (*model.Cart, error) {
	var data struct {
		Cart *gqlCart `json:"cartByOwner"`
	}
	if err := c.execute(ctx, opCartByOwner, qCartByOwner, map[string]any{"ownerId": ownerID}, &data); err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, model.NewNotFoundError("cart")
	}
	return toCart(data.Cart), nil
}

func (c *Client) CreateCart(ctx context.Context, ownerID string) (*model.Cart, error) {
	input := map[string]any{
		"ownerId":  ownerID,
		"subtotal": Money(0),
		"total":    Money(0),
	}
	var data struct {
		Cart *gqlCart `json:"createCart"`
	}
	if err := c.execute(ctx, opCreateCart, qCreateCart, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	if data.Cart == nil || data.Cart.ID == "" {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("createCart returned no cart"))
	}
	return toCart(data.Cart), nil
}

func (c *Client) AddLineItem(ctx context.Context, cartID string, item model.LineItemInput) error {
	vars := map[string]any{
		"cartId": cartID,
		"input": map[string]any{
			"productId": item.ProductID,
			"quantity":  item.Quantity,
			"unitPrice": Money(item.UnitPrice),
		},
	}
	return c.execute(ctx, opAddCartItem, qAddCartItem, vars, nil)
}

func (c *Client) UpdateLineItem(ctx context.Context, cartID, lineID string, quantity int) error {
	vars := map[string]any{"cartId": cartID, "itemId": lineID, "quantity": quantity}
	return c.execute(ctx, opUpdateCartItem, qUpdateCartItem, vars, nil)
}

func (c *Client) RemoveLineItem(ctx context.Context, cartID, lineID string) error {
	vars := map[string]any{"cartId": cartID, "itemId": lineID}
	return c.execute(ctx, opRemoveCartItem, qRemoveCartItem, vars, nil)
}

// === Catalog ===

func (c *Client) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var data struct {
		Product *gqlProduct `json:"product"`
	}
	if err := c.execute(ctx, opProduct, qProduct, map[string]any{"id": productID}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, model.NewNotFoundError("product")
	}
	p := toProduct(data.Product)
	return &p, nil
}

func (c *Client) ListProducts(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error) {
	filter := map[string]any{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Search != "" {
		filter["search"] = q.Search
	}
	vars := map[string]any{"filter": filter, "offset": q.Offset}
	if q.Limit > 0 {
		vars["limit"] = q.Limit
	}

	var data struct {
		Products gqlProductPage `json:"products"`
	}
	if err := c.execute(ctx, opProducts, qProducts, vars, &data); err != nil {
		return nil, err
	}

	page := &model.ProductPage{Total: data.Products.Total, Products: make([]model.Product, 0, len(data.Products.Items))}
	for i := range data.Products.Items {
		page.Products = append(page.Products, toProduct(&data.Products.Items[i]))
	}
	return page, nil
}

// === Checkout ===

func (c *Client) GetShippingQuote(ctx context.Context, country string) (*model.ShippingQuote, error) {
	var data struct {
		Quote *gqlShippingQuote `json:"shippingQuote"`
	}
	if err := c.execute(ctx, opShippingQuote, qShippingQuote, map[string]any{"country": country}, &data); err != nil {
		return nil, err
	}
	if data.Quote == nil {
		return nil, model.NewNotFoundError("shipping destination")
	}
	return toQuote(data.Quote), nil
}

func (c *Client) ValidateCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	var data struct {
		Coupon *gqlCoupon `json:"validateCoupon"`
	}
	if err := c.execute(ctx, opValidateCoupon, qValidateCoupon, map[string]any{"code": code}, &data); err != nil {
		return nil, err
	}
	if data.Coupon == nil {
		return nil, model.NewValidationError("coupon", "code is not valid")
	}
	return toCoupon(data.Coupon), nil
}

func (c *Client) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error) {
	input := map[string]any{
		"cartId":        req.CartID,
		"country":       req.Country,
		"shippingType":  string(req.ShippingType),
		"paymentMethod": string(req.PaymentMethod),
		"reference":     req.Reference,
	}
	if req.CouponCode != "" {
		input["couponCode"] = req.CouponCode
	}
	if req.ReturnURL != "" {
		input["returnUrl"] = req.ReturnURL
	}

	var data struct {
		Result *gqlOrderResult `json:"createOrder"`
	}
	if err := c.execute(ctx, opCreateOrder, qCreateOrder, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	if data.Result == nil || data.Result.Order.Number == "" {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("createOrder returned no order"))
	}
	return toOrderResult(data.Result), nil
}

func (c *Client) VerifyPayment(ctx context.Context, reference string) (*model.PaymentVerification, error) {
	var data struct {
		Result *gqlPaymentVerification `json:"verifyPayment"`
	}
	if err := c.execute(ctx, opVerifyPayment, qVerifyPayment, map[string]any{"reference": reference}, &data); err != nil {
		return nil, err
	}
	if data.Result == nil {
		return nil, model.NewNotFoundError("order")
	}
	return &model.PaymentVerification{
		Reference:   data.Result.Reference,
		OrderNumber: data.Result.OrderNumber,
		Status:      toPaymentStatus(data.Result.Status),
	}, nil
}

// === Account ===

func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResult, error) {
	var data struct {
		Auth *gqlAuthPayload `json:"login"`
	}
	vars := map[string]any{"email": email, "password": password}
	if err := c.execute(ctx, opLogin, qLogin, vars, &data); err != nil {
		return nil, err
	}
	if data.Auth == nil || data.Auth.Token == "" {
		return nil, model.NewUnauthorizedError("invalid email or password")
	}
	return &model.AuthResult{Token: data.Auth.Token, User: toUser(data.Auth.User)}, nil
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error) {
	input := map[string]any{"name": reg.Name, "email": reg.Email, "password": reg.Password}
	var data struct {
		Auth *gqlAuthPayload `json:"register"`
	}
	if err := c.execute(ctx, opRegister, qRegister, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	if data.Auth == nil || data.Auth.Token == "" {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("register returned no session"))
	}
	return &model.AuthResult{Token: data.Auth.Token, User: toUser(data.Auth.User)}, nil
}

func (c *Client) Wishlist(ctx context.Context) ([]model.WishlistItem, error) {
	var data struct {
		Items []gqlWishlistItem `json:"wishlist"`
	}
	if err := c.execute(ctx, opWishlist, qWishlist, nil, &data); err != nil {
		return nil, err
	}

	items := make([]model.WishlistItem, 0, len(data.Items))
	for _, w := range data.Items {
		item := model.WishlistItem{ProductID: w.ProductID, AddedAt: w.AddedAt}
		if w.Product != nil {
			p := toProduct(w.Product)
			item.Product = &p
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	return c.execute(ctx, opAddToWishlist, qAddToWishlist, map[string]any{"productId": productID}, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.execute(ctx, opRemoveFromWishlist, qRemoveFromWishlist, map[string]any{"productId": productID}, nil)
}

func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var data struct {
		Items []gqlNotification `json:"notifications"`
	}
	if err := c.execute(ctx, opNotifications, qNotifications, nil, &data); err != nil {
		return nil, err
	}

	out := make([]model.Notification, 0, len(data.Items))
	for _, n := range data.Items {
		out = append(out, model.Notification{ID: n.ID, Title: n.Title, Body: n.Body, Read: n.Read, CreatedAt: n.CreatedAt})
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return c.execute(ctx, opMarkNotificationRead, qMarkNotificationRead, map[string]any{"id": notificationID}, nil)
}

// Verify Client implements Backend interface at compile time.
var _ backend.Backend = (*Client)(nil)
