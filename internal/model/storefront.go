// Package model defines the storefront domain types shared by every component:
// identities, carts, catalog entries, checkout quotes and orders.
// All monetary amounts are int64 minor units (cents).
package model

import "time"

// IdentityKind distinguishes authenticated users from anonymous guests.
type IdentityKind string

const (
	IdentityGuest IdentityKind = "guest"
	IdentityUser  IdentityKind = "user"
)

// Identity is the key a cart is owned by. Exactly one is active per profile.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	ID   string       `json:"id"`
}

// IsUser reports whether the identity belongs to an authenticated user.
func (i Identity) IsUser() bool { return i.Kind == IdentityUser && i.ID != "" }

// IsGuest reports whether the identity is a locally generated guest id.
func (i Identity) IsGuest() bool { return i.Kind == IdentityGuest && i.ID != "" }

// IsZero reports whether no identity has been resolved.
func (i Identity) IsZero() bool { return i.ID == "" }

// Cart is the read-through copy of the remote cart owned by one identity.
// The remote API is the system of record.
type Cart struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Currency  string     `json:"currency,omitempty"`
	LineItems []LineItem `json:"line_items"`
	Subtotal  int64      `json:"subtotal"`
}

// ComputeSubtotal sums quantity × unit price over all line items.
func (c *Cart) ComputeSubtotal() int64 {
	var total int64
	for _, li := range c.LineItems {
		total += li.Total()
	}
	return total
}

// Find returns the line item with the given id.
func (c *Cart) Find(lineID string) (LineItem, bool) {
	for _, li := range c.LineItems {
		if li.ID == lineID {
			return li, true
		}
	}
	return LineItem{}, false
}

// LineItem is one product-quantity entry within a cart.
// Quantity is never below 1; removal deletes the line item.
type LineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"` // price snapshot at add time
}

// Total returns quantity × unit price.
func (li LineItem) Total() int64 {
	return int64(li.Quantity) * li.UnitPrice
}

// LineItemInput is the payload of an add-item call.
type LineItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// === Catalog ===

// Product is a catalog entry. Price is the current server-side price.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency,omitempty"`
	InStock     bool   `json:"in_stock"`
}

// ProductQuery filters a catalog listing.
type ProductQuery struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// === Account ===

// User is an authenticated customer.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Registration is the payload of a sign-up call.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// WishlistItem is a saved product.
type WishlistItem struct {
	ProductID string    `json:"product_id"`
	AddedAt   time.Time `json:"added_at"`
	Product   *Product  `json:"product,omitempty"`
}

// Notification is a message addressed to a user.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
