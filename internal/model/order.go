package model

import "time"

// ShippingType identifies a shipping tier.
type ShippingType string

const (
	ShippingNormal ShippingType = "normal"
	ShippingFast   ShippingType = "fast"
)

// ShippingOption is one tier offered for a destination.
type ShippingOption struct {
	Type          ShippingType `json:"type"`
	Label         string       `json:"label,omitempty"`
	Cost          int64        `json:"cost"`
	EstimatedDays int          `json:"estimated_days"`
}

// ShippingQuote is the backend's country configuration: tax rate plus
// available shipping tiers.
type ShippingQuote struct {
	Country string           `json:"country"`
	TaxRate int              `json:"tax_rate_bp"` // basis points, 1500 = 15%
	Options []ShippingOption `json:"options"`
}

// Option returns the shipping tier with the given type.
func (q *ShippingQuote) Option(t ShippingType) (ShippingOption, bool) {
	if q == nil {
		return ShippingOption{}, false
	}
	for _, o := range q.Options {
		if o.Type == t {
			return o, true
		}
	}
	return ShippingOption{}, false
}

// PaymentMethod is how the buyer pays.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentGateway        PaymentMethod = "gateway"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentGateway
}

// RequiresCapture reports whether the method redirects to the external
// gateway and needs a verification step on return.
func (m PaymentMethod) RequiresCapture() bool {
	return m == PaymentGateway
}

// PaymentStatus tracks the gateway-driven payment state of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Coupon is a validated discount code. At most one of PercentOff
// (basis points) and AmountOff applies.
type Coupon struct {
	Code       string `json:"code"`
	PercentOff int    `json:"percent_off_bp,omitempty"`
	AmountOff  int64  `json:"amount_off,omitempty"`
}

// Discount returns the amount the coupon takes off subtotal, never more
// than the subtotal itself.
func (c *Coupon) Discount(subtotal int64) int64 {
	if c == nil || subtotal <= 0 {
		return 0
	}
	d := c.AmountOff
	if c.PercentOff > 0 {
		d = PercentOf(subtotal, c.PercentOff)
	}
	if d > subtotal {
		d = subtotal
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Totals is a price breakdown.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// ComputeTotals estimates totals for display. Tax applies to the discounted
// subtotal; shipping is untaxed. The authoritative totals are the ones the
// backend returns with the created order.
func ComputeTotals(subtotal int64, coupon *Coupon, taxRate int, shipping int64) Totals {
	discount := coupon.Discount(subtotal)
	tax := PercentOf(subtotal-discount, taxRate)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal - discount + tax + shipping,
	}
}

// OrderRequest bundles everything the order-creation call needs.
// Reference is a fresh idempotency token per placement attempt.
type OrderRequest struct {
	CartID        string        `json:"cart_id"`
	Country       string        `json:"country"`
	ShippingType  ShippingType  `json:"shipping_type"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CouponCode    string        `json:"coupon_code,omitempty"`
	Reference     string        `json:"reference"`
	ReturnURL     string        `json:"return_url,omitempty"`
}

// Order is created from a cart at checkout completion. Immutable except for
// PaymentStatus, which the gateway callback drives.
type Order struct {
	ID            string        `json:"id"`
	Number        string        `json:"number"`
	Reference     string        `json:"reference"`
	ShippingType  ShippingType  `json:"shipping_type"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Totals        Totals        `json:"totals"`
	CreatedAt     time.Time     `json:"created_at"`
}

// OrderResult is the order-creation response. RedirectURL is set when the
// payment method requires external capture.
type OrderResult struct {
	Order       Order  `json:"order"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// PaymentVerification is the result of checking a gateway payment on return.
type PaymentVerification struct {
	Reference   string        `json:"reference"`
	OrderNumber string        `json:"order_number,omitempty"`
	Status      PaymentStatus `json:"status"`
}
