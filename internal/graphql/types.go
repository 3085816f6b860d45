// Package graphql implements backend.Backend against the remote GraphQL
// commerce API.
//
// The API reports money as decimal strings ("10.00") on some fields and JSON
// numbers on others, and returns cart items in two shapes: a nested
// items{product{...}} shape from the cart query and a flat lineItems shape
// from older mutations. Both are normalized into model.LineItem here.
package graphql

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"storefront/internal/model"
)

// Money is a major-unit amount decoded from either a JSON number or a decimal
// string, held in minor units.
type Money int64

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	cents, err := model.ParseCents(s)
	if err != nil {
		return err
	}
	*m = Money(cents)
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(model.FormatCents(int64(m))), nil
}

// === Catalog ===

type gqlProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Price       Money  `json:"price"`
	Currency    string `json:"currency"`
	Stock       *int   `json:"stock"`
}

type gqlProductPage struct {
	Total int          `json:"total"`
	Items []gqlProduct `json:"items"`
}

// === Cart ===

type gqlCart struct {
	ID       string `json:"id"`
	OwnerID  string `json:"ownerId"`
	Currency string `json:"currency"`
	// Subtotal is absent from older mutation payloads.
	Subtotal *Money `json:"subtotal"`

	// Nested shape: cart query.
	Items []gqlCartItem `json:"items"`
	// Flat shape: legacy mutations.
	LineItems []gqlFlatLineItem `json:"lineItems"`
}

type gqlCartItem struct {
	ID       string      `json:"id"`
	Quantity int         `json:"quantity"`
	Price    Money       `json:"price"`
	Product  *gqlProduct `json:"product"`
}

type gqlFlatLineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unitPrice"`
}

// === Checkout ===

type gqlShippingQuote struct {
	Country string              `json:"country"`
	TaxRate Money               `json:"taxRate"` // percent, e.g. 15 or "15.00"
	Options []gqlShippingOption `json:"options"`
}

type gqlShippingOption struct {
	Type          string `json:"type"`
	Label         string `json:"label"`
	Cost          Money  `json:"cost"`
	EstimatedDays int    `json:"estimatedDays"`
}

type gqlCoupon struct {
	Code       string `json:"code"`
	PercentOff Money  `json:"percentOff"` // percent
	AmountOff  Money  `json:"amountOff"`
}

type gqlOrder struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	Reference     string    `json:"reference"`
	ShippingType  string    `json:"shippingType"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentStatus string    `json:"paymentStatus"`
	Subtotal      Money     `json:"subtotal"`
	Discount      Money     `json:"discount"`
	Tax           Money     `json:"tax"`
	Shipping      Money     `json:"shipping"`
	Total         Money     `json:"total"`
	CreatedAt     time.Time `json:"createdAt"`
}

type gqlOrderResult struct {
	Order       gqlOrder `json:"order"`
	RedirectURL string   `json:"redirectUrl"`
}

type gqlPaymentVerification struct {
	Reference   string `json:"reference"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}

// === Account ===

type gqlUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type gqlAuthPayload struct {
	Token string  `json:"token"`
	User  gqlUser `json:"user"`
}

type gqlWishlistItem struct {
	ProductID string      `json:"productId"`
	AddedAt   time.Time   `json:"addedAt"`
	Product   *gqlProduct `json:"product"`
}

type gqlNotification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
