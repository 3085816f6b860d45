package backend

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
)

// Memory is an in-process Backend with a seeded catalog, country table and
// coupon list. It backs BACKEND_TYPE=memory and the package tests.
type Memory struct {
	mu  sync.Mutex
	now func() time.Time
	seq int

	secret     []byte
	gatewayURL string
	decline    bool

	carts       map[string]*model.Cart // by cart id
	cartByOwner map[string]string
	products    map[string]model.Product
	quotes      map[string]model.ShippingQuote // by lower-cased country
	coupons     map[string]model.Coupon        // by upper-cased code
	users       map[string]memUser             // by lower-cased email
	orders      map[string]*memOrder           // by reference
	wishlists   map[string][]model.WishlistItem
	notices     map[string][]model.Notification
}

type memUser struct {
	user         model.User
	passwordHash string
}

// memOrder keeps the cart until a gateway payment is captured.
type memOrder struct {
	result  model.OrderResult
	ownerID string
	cartID  string
}

// NewMemory creates a seeded in-memory backend. secret signs session tokens.
func NewMemory(secret []byte) *Memory {
	m := &Memory{
		now:         time.Now,
		secret:      secret,
		gatewayURL:  "https://pay.example.test/checkout",
		carts:       make(map[string]*model.Cart),
		cartByOwner: make(map[string]string),
		products:    make(map[string]model.Product),
		quotes:      make(map[string]model.ShippingQuote),
		coupons:     make(map[string]model.Coupon),
		users:       make(map[string]memUser),
		orders:      make(map[string]*memOrder),
		wishlists:   make(map[string][]model.WishlistItem),
		notices:     make(map[string][]model.Notification),
	}
	m.seed()
	return m
}

func (m *Memory) seed() {
	for _, p := range []model.Product{
		{ID: "P1", Name: "Oud Perfume 50ml", Category: "perfume", Price: 1000, Currency: "SAR", InStock: true},
		{ID: "P2", Name: "Musk Body Mist", Category: "perfume", Price: 4550, Currency: "SAR", InStock: true},
		{ID: "P3", Name: "Incense Burner", Category: "home", Price: 12000, Currency: "SAR", InStock: true},
		{ID: "P4", Name: "Gift Box", Category: "gifts", Price: 2500, Currency: "SAR", InStock: false},
	} {
		m.products[p.ID] = p
	}
	for _, q := range []model.ShippingQuote{
		{Country: "Saudi Arabia", TaxRate: 1500, Options: []model.ShippingOption{
			{Type: model.ShippingNormal, Label: "Normal shipping", Cost: 1500, EstimatedDays: 5},
			{Type: model.ShippingFast, Label: "Fast shipping", Cost: 3000, EstimatedDays: 2},
		}},
		{Country: "United Arab Emirates", TaxRate: 500, Options: []model.ShippingOption{
			{Type: model.ShippingNormal, Label: "Normal shipping", Cost: 2000, EstimatedDays: 7},
			{Type: model.ShippingFast, Label: "Fast shipping", Cost: 4500, EstimatedDays: 3},
		}},
		{Country: "Kuwait", TaxRate: 0, Options: []model.ShippingOption{
			{Type: model.ShippingNormal, Label: "Normal shipping", Cost: 2500, EstimatedDays: 7},
			{Type: model.ShippingFast, Label: "Fast shipping", Cost: 5000, EstimatedDays: 3},
		}},
	} {
		m.quotes[strings.ToLower(q.Country)] = q
	}
	m.coupons["WELCOME10"] = model.Coupon{Code: "WELCOME10", PercentOff: 1000}
	m.coupons["SAVE5"] = model.Coupon{Code: "SAVE5", AmountOff: 500}
}

// AddProduct adds or replaces a catalog entry.
func (m *Memory) AddProduct(p model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// SetQuote adds or replaces a country configuration.
func (m *Memory) SetQuote(q model.ShippingQuote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[strings.ToLower(q.Country)] = q
}

// SetDeclinePayments makes gateway verification report failure.
func (m *Memory) SetDeclinePayments(decline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decline = decline
}

func (m *Memory) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

// === Cart ===

func (m *Memory) GetCart(_ context.Context, ownerID string) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.cartByOwner[ownerID]
	if !ok {
		return nil, model.NewNotFoundError("cart")
	}
	return cloneCart(m.carts[id]), nil
}

func (m *Memory) CreateCart(_ context.Context, ownerID string) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.cartByOwner[ownerID]; ok {
		return cloneCart(m.carts[id]), nil
	}
	c := &model.Cart{
		ID:        m.nextID("cart_"),
		OwnerID:   ownerID,
		Currency:  "SAR",
		LineItems: []model.LineItem{},
	}
	m.carts[c.ID] = c
	m.cartByOwner[ownerID] = c.ID
	return cloneCart(c), nil
}

func (m *Memory) AddLineItem(_ context.Context, cartID string, item model.LineItemInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[cartID]
	if !ok {
		return model.NewNotFoundError("cart")
	}
	if item.Quantity < 1 {
		return model.NewValidationError("quantity", "must be at least 1")
	}
	p, ok := m.products[item.ProductID]
	if !ok {
		return model.NewNotFoundError("product")
	}

	for i := range c.LineItems {
		if c.LineItems[i].ProductID == item.ProductID {
			c.LineItems[i].Quantity += item.Quantity
			return nil
		}
	}
	c.LineItems = append(c.LineItems, model.LineItem{
		ID:        m.nextID("line_"),
		ProductID: p.ID,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		Quantity:  item.Quantity,
		UnitPrice: p.Price,
	})
	return nil
}

func (m *Memory) UpdateLineItem(_ context.Context, cartID, lineID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[cartID]
	if !ok {
		return model.NewNotFoundError("cart")
	}
	if quantity < 1 {
		return model.NewValidationError("quantity", "must be at least 1")
	}
	for i := range c.LineItems {
		if c.LineItems[i].ID == lineID {
			c.LineItems[i].Quantity = quantity
			return nil
		}
	}
	return model.NewNotFoundError("line item")
}

func (m *Memory) RemoveLineItem(_ context.Context, cartID, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[cartID]
	if !ok {
		return model.NewNotFoundError("cart")
	}
	for i := range c.LineItems {
		if c.LineItems[i].ID == lineID {
			c.LineItems = append(c.LineItems[:i], c.LineItems[i+1:]...)
			return nil
		}
	}
	return model.NewNotFoundError("line item")
}

func cloneCart(c *model.Cart) *model.Cart {
	out := *c
	out.LineItems = append([]model.LineItem{}, c.LineItems...)
	out.Subtotal = out.ComputeSubtotal()
	return &out
}

// === Catalog ===

func (m *Memory) GetProduct(_ context.Context, productID string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return nil, model.NewNotFoundError("product")
	}
	return &p, nil
}

func (m *Memory) ListProducts(_ context.Context, q model.ProductQuery) (*model.ProductPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []model.Product
	search := strings.ToLower(q.Search)
	for _, p := range m.products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	page := &model.ProductPage{Total: len(matched), Products: []model.Product{}}
	if q.Offset >= len(matched) {
		return page, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	page.Products = append(page.Products, matched[q.Offset:end]...)
	return page, nil
}

// === Checkout ===

func (m *Memory) GetShippingQuote(_ context.Context, country string) (*model.ShippingQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotes[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		return nil, model.NewNotFoundError("shipping destination")
	}
	q.Options = append([]model.ShippingOption{}, q.Options...)
	return &q, nil
}

func (m *Memory) ValidateCoupon(_ context.Context, code string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, model.NewValidationError("coupon", "code is not valid")
	}
	return &c, nil
}

func (m *Memory) CreateOrder(_ context.Context, req *model.OrderRequest) (*model.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.orders[req.Reference]; ok {
		res := existing.result
		return &res, nil
	}

	c, ok := m.carts[req.CartID]
	if !ok {
		return nil, model.NewNotFoundError("cart")
	}
	if len(c.LineItems) == 0 {
		return nil, model.NewValidationError("cart", "cart is empty")
	}
	q, ok := m.quotes[strings.ToLower(req.Country)]
	if !ok {
		return nil, model.NewValidationError("country", "shipping not available")
	}
	opt, ok := q.Option(req.ShippingType)
	if !ok {
		return nil, model.NewValidationError("shipping_type", "not offered for destination")
	}
	if !req.PaymentMethod.Valid() {
		return nil, model.NewValidationError("payment_method", "unsupported")
	}
	var coupon *model.Coupon
	if req.CouponCode != "" {
		cp, ok := m.coupons[strings.ToUpper(req.CouponCode)]
		if !ok {
			return nil, model.NewValidationError("coupon", "code is not valid")
		}
		coupon = &cp
	}

	order := model.Order{
		ID:            m.nextID("order_"),
		Number:        fmt.Sprintf("ORD-%06d", m.seq),
		Reference:     req.Reference,
		ShippingType:  req.ShippingType,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: model.PaymentPending,
		Totals:        model.ComputeTotals(c.ComputeSubtotal(), coupon, q.TaxRate, opt.Cost),
		CreatedAt:     m.now(),
	}
	res := model.OrderResult{Order: order}
	if req.PaymentMethod.RequiresCapture() {
		v := url.Values{"reference": {req.Reference}}
		if req.ReturnURL != "" {
			v.Set("return_url", req.ReturnURL)
		}
		res.RedirectURL = m.gatewayURL + "?" + v.Encode()
	}

	m.orders[req.Reference] = &memOrder{result: res, ownerID: c.OwnerID, cartID: c.ID}
	if !req.PaymentMethod.RequiresCapture() {
		c.LineItems = []model.LineItem{}
	}
	m.notify(c.OwnerID, "Order placed", fmt.Sprintf("Your order %s has been received.", order.Number))

	out := res
	return &out, nil
}

func (m *Memory) VerifyPayment(_ context.Context, reference string) (*model.PaymentVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[reference]
	if !ok {
		return nil, model.NewNotFoundError("order")
	}
	if o.result.Order.PaymentMethod.RequiresCapture() && o.result.Order.PaymentStatus == model.PaymentPending {
		if m.decline {
			o.result.Order.PaymentStatus = model.PaymentFailed
		} else {
			o.result.Order.PaymentStatus = model.PaymentPaid
			if c, ok := m.carts[o.cartID]; ok {
				c.LineItems = []model.LineItem{}
			}
		}
	}
	return &model.PaymentVerification{
		Reference:   reference,
		OrderNumber: o.result.Order.Number,
		Status:      o.result.Order.PaymentStatus,
	}, nil
}

// === Account ===

func (m *Memory) Login(_ context.Context, email, password string) (*model.AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[strings.ToLower(email)]
	if !ok || !auth.CheckPassword(u.passwordHash, password) {
		return nil, model.NewUnauthorizedError("invalid email or password")
	}
	return m.session(u.user)
}

func (m *Memory) Register(_ context.Context, reg model.Registration) (*model.AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewValidationError("email", "must be a valid email address")
	}
	if len(reg.Password) < 6 {
		return nil, model.NewValidationError("password", "must be at least 6 characters")
	}
	if _, exists := m.users[email]; exists {
		return nil, model.NewValidationError("email", "already registered")
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	u := model.User{ID: m.nextID("U"), Email: email, Name: reg.Name}
	m.users[email] = memUser{user: u, passwordHash: hash}
	m.notify(u.ID, "Welcome", "Thanks for creating an account.")
	return m.session(u)
}

func (m *Memory) session(u model.User) (*model.AuthResult, error) {
	token, err := auth.Issue(m.secret, u, 24*time.Hour, m.now())
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	return &model.AuthResult{Token: token, User: u}, nil
}

// userID authenticates the session token on ctx.
func (m *Memory) userID(ctx context.Context) (string, error) {
	token := AuthToken(ctx)
	if token == "" {
		return "", model.NewUnauthorizedError("login required")
	}
	claims, err := auth.Verify(token, m.secret)
	if err != nil {
		return "", err
	}
	return claims.UserID(), nil
}

func (m *Memory) Wishlist(ctx context.Context) ([]model.WishlistItem, error) {
	uid, err := m.userID(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]model.WishlistItem, 0, len(m.wishlists[uid]))
	for _, w := range m.wishlists[uid] {
		if p, ok := m.products[w.ProductID]; ok {
			w.Product = &p
		}
		items = append(items, w)
	}
	return items, nil
}

func (m *Memory) AddToWishlist(ctx context.Context, productID string) error {
	uid, err := m.userID(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[productID]; !ok {
		return model.NewNotFoundError("product")
	}
	for _, w := range m.wishlists[uid] {
		if w.ProductID == productID {
			return nil
		}
	}
	m.wishlists[uid] = append(m.wishlists[uid], model.WishlistItem{ProductID: productID, AddedAt: m.now()})
	return nil
}

func (m *Memory) RemoveFromWishlist(ctx context.Context, productID string) error {
	uid, err := m.userID(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.wishlists[uid]
	for i, w := range list {
		if w.ProductID == productID {
			m.wishlists[uid] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) Notifications(ctx context.Context) ([]model.Notification, error) {
	uid, err := m.userID(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]model.Notification{}, m.notices[uid]...), nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, notificationID string) error {
	uid, err := m.userID(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.notices[uid] {
		if m.notices[uid][i].ID == notificationID {
			m.notices[uid][i].Read = true
			return nil
		}
	}
	return model.NewNotFoundError("notification")
}

// notify must be called with mu held. Guest owners have no inbox.
func (m *Memory) notify(ownerID, title, body string) {
	if strings.HasPrefix(ownerID, "guest_") {
		return
	}
	m.notices[ownerID] = append(m.notices[ownerID], model.Notification{
		ID:        m.nextID("n_"),
		Title:     title,
		Body:      body,
		CreatedAt: m.now(),
	})
}

var _ Backend = (*Memory)(nil)
