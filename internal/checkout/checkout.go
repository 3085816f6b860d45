// Package checkout runs the order-placement wizard for one profile.
//
// The wizard is strictly linear:
//
//	SelectingDestination → SelectingShipping → SelectingPayment → PlacingOrder → {OrderConfirmed | OrderFailed}
//
// Each step requires the previous one, Back moves exactly one step, and an
// order in flight can only end confirmed or failed. A gateway payment the
// shopper never completes fails on Cancel or once PaymentTimeout passes.
// Tax rates and shipping
// costs come from the backend; the estimate shown along the way is replaced
// by the totals of the created order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/model"
)

// State is a wizard step.
type State string

const (
	Inactive             State = "inactive"
	SelectingDestination State = "selecting_destination"
	SelectingShipping    State = "selecting_shipping"
	SelectingPayment     State = "selecting_payment"
	PlacingOrder         State = "placing_order"
	OrderConfirmed       State = "order_confirmed"
	OrderFailed          State = "order_failed"
)

// DefaultPaymentTimeout bounds how long a gateway payment may stay
// unresolved.
const DefaultPaymentTimeout = 30 * time.Minute

// CartLoader provides the cart being checked out.
type CartLoader interface {
	Load(ctx context.Context) (*cart.View, error)
}

// Snapshot is the session as shown to the shopper.
type Snapshot struct {
	State           State                  `json:"state"`
	Country         string                 `json:"country,omitempty"`
	TaxRate         int                    `json:"tax_rate_bp"`
	ShippingOptions []model.ShippingOption `json:"shipping_options,omitempty"`
	Shipping        model.ShippingType     `json:"shipping_type,omitempty"`
	Payment         model.PaymentMethod    `json:"payment_method,omitempty"`
	Coupon          *model.Coupon          `json:"coupon,omitempty"`
	Estimate        model.Totals           `json:"estimate"`
	Reference       string                 `json:"reference,omitempty"`
	Order           *model.Order           `json:"order,omitempty"`
	RedirectURL     string                 `json:"redirect_url,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// session is the ephemeral, client-only checkout state.
type session struct {
	state    State
	cartID   string
	subtotal int64
	country  string
	quote    *model.ShippingQuote
	shipping model.ShippingType
	payment  model.PaymentMethod
	coupon   *model.Coupon

	reference   string
	order       *model.Order
	redirectURL string
	placedAt    time.Time
	err         error
}

// Orchestrator owns one checkout session. Safe for concurrent use; the
// lock is never held across a backend call.
type Orchestrator struct {
	backend   backend.Backend
	cart      CartLoader
	logger    *slog.Logger
	returnURL string

	// OnConfirmed runs once per confirmed order, outside the lock.
	OnConfirmed func(ctx context.Context, order model.Order)

	// PaymentTimeout is how long a gateway order may await payment before
	// it fails. Zero or negative disables the deadline.
	PaymentTimeout time.Duration

	newReference func() string
	now          func() time.Time

	mu sync.Mutex
	s  session
}

// New creates an orchestrator. returnURL is where the payment gateway sends
// the shopper back; the order reference is appended by the gateway.
func New(b backend.Backend, c CartLoader, returnURL string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		backend:      b,
		cart:         c,
		logger:       logger,
		returnURL:    returnURL,
		newReference:   uuid.NewString,
		now:            time.Now,
		PaymentTimeout: DefaultPaymentTimeout,
		s:              session{state: Inactive},
	}
}

// === Steps ===

// Begin starts a new session over the current cart. A session with an
// order in flight cannot be replaced.
func (o *Orchestrator) Begin(ctx context.Context) (*Snapshot, error) {
	o.mu.Lock()
	o.expireLocked()
	if o.s.state == PlacingOrder {
		o.mu.Unlock()
		return nil, model.NewConflictError("an order is being placed")
	}
	o.mu.Unlock()

	view, err := o.cart.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, model.NewValidationError("cart", "cart is empty")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.expireLocked()
	if o.s.state == PlacingOrder {
		return nil, model.NewConflictError("an order is being placed")
	}
	o.s = session{state: SelectingDestination, cartID: view.CartID, subtotal: view.Subtotal}
	return o.snapshotLocked(), nil
}

// SetDestination fetches the country's tax rate and shipping tiers and
// moves on to shipping selection.
func (o *Orchestrator) SetDestination(ctx context.Context, country string) (*Snapshot, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, model.NewValidationError("country", "is required")
	}
	if err := o.expect(SelectingDestination); err != nil {
		return nil, err
	}

	quote, err := o.backend.GetShippingQuote(ctx, country)
	if err != nil {
		return nil, err
	}
	if len(quote.Options) == 0 {
		return nil, model.NewValidationError("country", "no shipping available to "+country)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.expectLocked(SelectingDestination); err != nil {
		return nil, err
	}
	o.s.country = country
	o.s.quote = quote
	o.s.shipping = ""
	o.s.payment = ""
	o.s.state = SelectingShipping
	return o.snapshotLocked(), nil
}

// SelectShipping picks one of the destination's shipping tiers.
func (o *Orchestrator) SelectShipping(t model.ShippingType) (*Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.expectLocked(SelectingShipping); err != nil {
		return nil, err
	}
	if _, ok := o.s.quote.Option(t); !ok {
		return nil, model.NewValidationError("shipping_type", fmt.Sprintf("%q is not offered for %s", t, o.s.country))
	}
	o.s.shipping = t
	o.s.state = SelectingPayment
	return o.snapshotLocked(), nil
}

// SelectPayment records the payment method. PlaceOrder makes the
// transition out of payment selection.
func (o *Orchestrator) SelectPayment(m model.PaymentMethod) (*Snapshot, error) {
	if !m.Valid() {
		return nil, model.NewValidationError("payment_method", fmt.Sprintf("%q is not supported", m))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.expectLocked(SelectingPayment); err != nil {
		return nil, err
	}
	o.s.payment = m
	return o.snapshotLocked(), nil
}

// PlaceOrder creates the order with a fresh reference token.
//
// Cash on delivery confirms immediately. Gateway payments stay in
// PlacingOrder with a redirect URL until VerifyPayment resolves them.
func (o *Orchestrator) PlaceOrder(ctx context.Context) (*Snapshot, error) {
	o.mu.Lock()
	if err := o.expectLocked(SelectingPayment); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	if o.s.shipping == "" {
		o.mu.Unlock()
		return nil, model.NewConflictError("shipping has not been selected")
	}
	if o.s.payment == "" {
		o.mu.Unlock()
		return nil, model.NewValidationError("payment_method", "is required")
	}
	o.s.state = PlacingOrder
	o.s.reference = o.newReference()
	o.s.order = nil
	o.s.redirectURL = ""
	o.s.placedAt = time.Time{}
	o.s.err = nil

	req := &model.OrderRequest{
		CartID:        o.s.cartID,
		Country:       o.s.country,
		ShippingType:  o.s.shipping,
		PaymentMethod: o.s.payment,
		Reference:     o.s.reference,
		ReturnURL:     o.returnURL,
	}
	if o.s.coupon != nil {
		req.CouponCode = o.s.coupon.Code
	}
	o.mu.Unlock()

	log := o.logger.With("reference", req.Reference, "cart_id", req.CartID)
	log.Info("placing order", "country", req.Country, "shipping_type", req.ShippingType, "payment_method", req.PaymentMethod)

	res, err := o.backend.CreateOrder(ctx, req)

	o.mu.Lock()
	if err != nil {
		o.s.state = OrderFailed
		o.s.err = err
		snap := o.snapshotLocked()
		o.mu.Unlock()
		log.Warn("order creation failed", "error", err)
		return snap, err
	}

	order := res.Order
	o.s.order = &order
	if req.PaymentMethod.RequiresCapture() && order.PaymentStatus != model.PaymentPaid {
		o.s.redirectURL = res.RedirectURL
		o.s.placedAt = o.now()
		snap := o.snapshotLocked()
		o.mu.Unlock()
		log.Info("order awaiting payment", "order_number", order.Number)
		return snap, nil
	}
	o.s.state = OrderConfirmed
	snap := o.snapshotLocked()
	o.mu.Unlock()

	log.Info("order confirmed", "order_number", order.Number, "total", order.Totals.Total)
	o.confirmed(ctx, order)
	return snap, nil
}

// VerifyPayment checks the gateway result for the order in flight, as
// triggered by the shopper returning from the gateway. A failed payment is
// terminal for this attempt; capture is never retried automatically. A
// payment still pending after PaymentTimeout fails the attempt.
func (o *Orchestrator) VerifyPayment(ctx context.Context, reference string) (*Snapshot, error) {
	o.mu.Lock()
	if err := o.expectLocked(PlacingOrder); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	if o.s.order == nil {
		o.mu.Unlock()
		return nil, model.NewConflictError("order has not been created yet")
	}
	if reference == "" {
		reference = o.s.reference
	}
	if reference != o.s.reference {
		o.mu.Unlock()
		return nil, model.NewValidationError("reference", "does not match the order in progress")
	}
	o.mu.Unlock()

	v, err := o.backend.VerifyPayment(ctx, reference)
	if err != nil {
		// Still in flight; the shopper can verify again.
		return nil, err
	}

	o.mu.Lock()
	if o.s.state != PlacingOrder || o.s.reference != reference {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, nil
	}
	o.s.order.PaymentStatus = v.Status
	switch v.Status {
	case model.PaymentPaid:
		o.s.state = OrderConfirmed
		o.s.redirectURL = ""
		order := *o.s.order
		snap := o.snapshotLocked()
		o.mu.Unlock()
		o.logger.Info("payment verified", "reference", reference, "order_number", order.Number)
		o.confirmed(ctx, order)
		return snap, nil
	case model.PaymentFailed:
		payErr := model.NewPaymentError("payment was not completed")
		o.failPaymentLocked(payErr)
		snap := o.snapshotLocked()
		o.mu.Unlock()
		o.logger.Warn("payment failed", "reference", reference)
		return snap, payErr
	default:
		expired := o.expireLocked()
		snap := o.snapshotLocked()
		o.mu.Unlock()
		if expired {
			return snap, o.paymentTimeoutError()
		}
		return snap, nil
	}
}

// Cancel fails a gateway order that is still awaiting payment, so the
// shopper can retry with another method or walk away. An order whose
// creation call has not returned yet cannot be cancelled.
func (o *Orchestrator) Cancel() (*Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.expectLocked(PlacingOrder); err != nil {
		return nil, err
	}
	if o.s.order == nil {
		return nil, model.NewConflictError("order has not been created yet")
	}
	o.failPaymentLocked(model.NewPaymentError("payment was cancelled"))
	o.logger.Info("payment cancelled", "reference", o.s.reference)
	return o.snapshotLocked(), nil
}

// Back returns to the immediately preceding selection step.
func (o *Orchestrator) Back() (*Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.s.state {
	case SelectingShipping:
		o.s.state = SelectingDestination
		o.s.quote = nil
		o.s.shipping = ""
	case SelectingPayment:
		o.s.state = SelectingShipping
		o.s.shipping = ""
		o.s.payment = ""
	default:
		return nil, model.NewConflictError(fmt.Sprintf("cannot go back from %s", o.s.state))
	}
	return o.snapshotLocked(), nil
}

// Retry returns a failed attempt to payment selection, keeping destination
// and shipping.
func (o *Orchestrator) Retry() (*Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.expireLocked()
	if err := o.expectLocked(OrderFailed); err != nil {
		return nil, err
	}
	o.s.state = SelectingPayment
	o.s.reference = ""
	o.s.order = nil
	o.s.redirectURL = ""
	o.s.placedAt = time.Time{}
	o.s.err = nil
	return o.snapshotLocked(), nil
}

// ApplyCoupon validates a code with the backend and updates the estimate.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, code string) (*Snapshot, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, model.NewValidationError("coupon", "code is required")
	}
	if err := o.expect(SelectingDestination, SelectingShipping, SelectingPayment); err != nil {
		return nil, err
	}

	coupon, err := o.backend.ValidateCoupon(ctx, code)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.expectLocked(SelectingDestination, SelectingShipping, SelectingPayment); err != nil {
		return nil, err
	}
	o.s.coupon = coupon
	return o.snapshotLocked(), nil
}

// RemoveCoupon drops the applied coupon.
func (o *Orchestrator) RemoveCoupon() (*Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.expectLocked(SelectingDestination, SelectingShipping, SelectingPayment); err != nil {
		return nil, err
	}
	o.s.coupon = nil
	return o.snapshotLocked(), nil
}

// Abandon discards the session. Nothing is reserved server-side before an
// order is placed, so there is nothing to clean up; an order in flight must
// be resolved, cancelled or expired first.
func (o *Orchestrator) Abandon() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.expireLocked()
	if o.s.state == PlacingOrder {
		return model.NewConflictError("an order is being placed")
	}
	o.s = session{state: Inactive}
	return nil
}

// Snapshot returns the current session.
func (o *Orchestrator) Snapshot() *Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expireLocked()
	return o.snapshotLocked()
}

// Estimate returns the displayed totals for the current selections.
func (o *Orchestrator) Estimate() model.Totals {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.estimateLocked()
}

// === Internals ===

func (o *Orchestrator) confirmed(ctx context.Context, order model.Order) {
	if o.OnConfirmed != nil {
		o.OnConfirmed(ctx, order)
	}
}

// expireLocked fails an awaiting gateway order whose deadline has passed.
// It reports whether it did.
func (o *Orchestrator) expireLocked() bool {
	if o.s.state != PlacingOrder || o.s.order == nil || o.PaymentTimeout <= 0 {
		return false
	}
	if o.now().Sub(o.s.placedAt) < o.PaymentTimeout {
		return false
	}
	o.failPaymentLocked(o.paymentTimeoutError())
	o.logger.Warn("payment timed out", "reference", o.s.reference, "placed_at", o.s.placedAt)
	return true
}

func (o *Orchestrator) paymentTimeoutError() *model.APIError {
	return model.NewPaymentError("payment timed out")
}

func (o *Orchestrator) failPaymentLocked(err error) {
	o.s.state = OrderFailed
	o.s.redirectURL = ""
	o.s.err = err
}

func (o *Orchestrator) expect(states ...State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.expectLocked(states...)
}

func (o *Orchestrator) expectLocked(states ...State) error {
	for _, s := range states {
		if o.s.state == s {
			return nil
		}
	}
	if o.s.state == Inactive {
		return model.NewConflictError("checkout has not been started")
	}
	return model.NewConflictError(fmt.Sprintf("not allowed while %s", o.s.state))
}

func (o *Orchestrator) estimateLocked() model.Totals {
	var shipping int64
	if opt, ok := o.s.quote.Option(o.s.shipping); ok {
		shipping = opt.Cost
	}
	var taxRate int
	if o.s.quote != nil {
		taxRate = o.s.quote.TaxRate
	}
	return model.ComputeTotals(o.s.subtotal, o.s.coupon, taxRate, shipping)
}

func (o *Orchestrator) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		State:       o.s.state,
		Country:     o.s.country,
		Shipping:    o.s.shipping,
		Payment:     o.s.payment,
		Reference:   o.s.reference,
		RedirectURL: o.s.redirectURL,
	}
	if o.s.state == Inactive {
		return snap
	}
	if o.s.quote != nil {
		snap.TaxRate = o.s.quote.TaxRate
		snap.ShippingOptions = append([]model.ShippingOption(nil), o.s.quote.Options...)
	}
	if o.s.coupon != nil {
		c := *o.s.coupon
		snap.Coupon = &c
	}
	if o.s.order != nil {
		ord := *o.s.order
		snap.Order = &ord
		snap.Estimate = ord.Totals
	} else {
		snap.Estimate = o.estimateLocked()
	}
	if o.s.err != nil {
		snap.Error = userMessage(o.s.err)
	}
	return snap
}

// userMessage renders err for display without internal detail.
func userMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "something went wrong, please try again"
}
