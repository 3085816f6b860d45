package graphql

import (
	"strings"

	"storefront/internal/model"
)

// toCart flattens either cart shape into model.Cart. The nested shape wins
// when the API returns both. The subtotal is recomputed from the lines only
// when the API omits it.
func toCart(c *gqlCart) *model.Cart {
	cart := &model.Cart{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Currency:  c.Currency,
		LineItems: make([]model.LineItem, 0, len(c.Items)+len(c.LineItems)),
	}

	switch {
	case len(c.Items) > 0:
		for _, it := range c.Items {
			li := model.LineItem{ID: it.ID, Quantity: it.Quantity, UnitPrice: int64(it.Price)}
			if it.Product != nil {
				li.ProductID = it.Product.ID
				li.Name = it.Product.Name
				li.ImageURL = it.Product.Image
				if li.UnitPrice == 0 {
					li.UnitPrice = int64(it.Product.Price)
				}
			}
			cart.LineItems = append(cart.LineItems, li)
		}
	default:
		for _, it := range c.LineItems {
			cart.LineItems = append(cart.LineItems, model.LineItem{
				ID:        it.ID,
				ProductID: it.ProductID,
				Name:      it.Name,
				ImageURL:  it.Image,
				Quantity:  it.Quantity,
				UnitPrice: int64(it.UnitPrice),
			})
		}
	}

	if c.Subtotal != nil {
		cart.Subtotal = int64(*c.Subtotal)
	} else {
		cart.Subtotal = cart.ComputeSubtotal()
	}
	return cart
}

func toProduct(p *gqlProduct) model.Product {
	return model.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.Image,
		Price:       int64(p.Price),
		Currency:    p.Currency,
		InStock:     p.Stock == nil || *p.Stock > 0,
	}
}

// toQuote converts the percent tax rate to basis points.
func toQuote(q *gqlShippingQuote) *model.ShippingQuote {
	quote := &model.ShippingQuote{
		Country: q.Country,
		TaxRate: int(q.TaxRate),
		Options: make([]model.ShippingOption, 0, len(q.Options)),
	}
	for _, o := range q.Options {
		quote.Options = append(quote.Options, model.ShippingOption{
			Type:          model.ShippingType(strings.ToLower(o.Type)),
			Label:         o.Label,
			Cost:          int64(o.Cost),
			EstimatedDays: o.EstimatedDays,
		})
	}
	return quote
}

func toCoupon(c *gqlCoupon) *model.Coupon {
	return &model.Coupon{
		Code:       c.Code,
		PercentOff: int(c.PercentOff),
		AmountOff:  int64(c.AmountOff),
	}
}

func toOrderResult(r *gqlOrderResult) *model.OrderResult {
	o := r.Order
	return &model.OrderResult{
		Order: model.Order{
			ID:            o.ID,
			Number:        o.Number,
			Reference:     o.Reference,
			ShippingType:  model.ShippingType(strings.ToLower(o.ShippingType)),
			PaymentMethod: model.PaymentMethod(strings.ToLower(o.PaymentMethod)),
			PaymentStatus: toPaymentStatus(o.PaymentStatus),
			Totals: model.Totals{
				Subtotal: int64(o.Subtotal),
				Discount: int64(o.Discount),
				Tax:      int64(o.Tax),
				Shipping: int64(o.Shipping),
				Total:    int64(o.Total),
			},
			CreatedAt: o.CreatedAt,
		},
		RedirectURL: r.RedirectURL,
	}
}

// toPaymentStatus maps the gateway's status vocabulary. Anything not
// recognized as settled is still pending.
func toPaymentStatus(s string) model.PaymentStatus {
	switch strings.ToLower(s) {
	case "paid", "captured", "completed", "success":
		return model.PaymentPaid
	case "failed", "declined", "cancelled", "canceled", "expired":
		return model.PaymentFailed
	default:
		return model.PaymentPending
	}
}

func toUser(u gqlUser) model.User {
	return model.User{ID: u.ID, Email: u.Email, Name: u.Name}
}
