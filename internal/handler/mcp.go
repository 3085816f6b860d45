// MCP transport handler using the official MCP Go SDK.
// Exposes cart and checkout operations as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/negotiation"
	"storefront/internal/storefront"
)

// === MCP Meta Types ===
// meta carries what REST sends in the Storefront-Client header.

// MCPMeta represents request metadata in MCP requests.
type MCPMeta struct {
	Client *ClientMeta `json:"storefront-client"`
}

// ClientMeta identifies the browser profile and client build.
type ClientMeta struct {
	Profile string `json:"profile"`
	Version string `json:"version,omitempty"`
}

// === MCP Tool Input Types ===

// MetaInput is the input of tools that take no arguments besides meta.
type MetaInput struct {
	Meta MCPMeta `json:"meta" jsonschema:"request metadata"`
}

// AddItemInput is the input schema for add_item.
type AddItemInput struct {
	Meta      MCPMeta `json:"meta" jsonschema:"request metadata"`
	ProductID string  `json:"product_id" jsonschema:"catalog product ID"`
	Quantity  int     `json:"quantity" jsonschema:"units to add, at least 1"`
}

// UpdateQuantityInput is the input schema for update_quantity.
type UpdateQuantityInput struct {
	Meta     MCPMeta `json:"meta" jsonschema:"request metadata"`
	LineID   string  `json:"line_id" jsonschema:"cart line item ID"`
	Quantity int     `json:"quantity" jsonschema:"new quantity, at least 1"`
}

// RemoveItemInput is the input schema for remove_item.
type RemoveItemInput struct {
	Meta   MCPMeta `json:"meta" jsonschema:"request metadata"`
	LineID string  `json:"line_id" jsonschema:"cart line item ID"`
}

// SetDestinationInput is the input schema for set_destination.
type SetDestinationInput struct {
	Meta    MCPMeta `json:"meta" jsonschema:"request metadata"`
	Country string  `json:"country" jsonschema:"destination country name"`
}

// SelectShippingInput is the input schema for select_shipping.
type SelectShippingInput struct {
	Meta MCPMeta `json:"meta" jsonschema:"request metadata"`
	Type string  `json:"type" jsonschema:"shipping tier: normal or fast"`
}

// SelectPaymentInput is the input schema for select_payment.
type SelectPaymentInput struct {
	Meta   MCPMeta `json:"meta" jsonschema:"request metadata"`
	Method string  `json:"method" jsonschema:"payment method: cod or gateway"`
}

// === MCP Tool Output Types ===
// Flat projections of the cart view and checkout snapshot so the inferred
// output schemas stay simple.

// CartOutput is the result of the cart tools.
type CartOutput struct {
	CartID    string           `json:"cart_id"`
	OwnerKind string           `json:"owner_kind"`
	OwnerID   string           `json:"owner_id"`
	Lines     []CartLineOutput `json:"lines"`
	Subtotal  int64            `json:"subtotal"`
	ItemCount int              `json:"item_count"`
}

// CartLineOutput is one line of CartOutput.
type CartLineOutput struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// CheckoutOutput is the result of the checkout tools.
type CheckoutOutput struct {
	State         string `json:"state"`
	Country       string `json:"country,omitempty"`
	Shipping      string `json:"shipping_type,omitempty"`
	Payment       string `json:"payment_method,omitempty"`
	Coupon        string `json:"coupon,omitempty"`
	Subtotal      int64  `json:"subtotal"`
	Discount      int64  `json:"discount"`
	Tax           int64  `json:"tax"`
	ShippingCost  int64  `json:"shipping_cost"`
	Total         int64  `json:"total"`
	Reference     string `json:"reference,omitempty"`
	OrderNumber   string `json:"order_number,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewMCPServer creates an MCP server with cart and checkout tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront cart and checkout. Every call carries meta.storefront-client.profile; " +
				"checkout runs begin_checkout, set_destination, select_shipping, select_payment, place_order.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the cart of the current identity, creating it if needed.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_item",
		Description: "Add a product to the cart.",
	}, h.mcpAddItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_quantity",
		Description: "Set the quantity of a cart line item.",
	}, h.mcpUpdateQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove a cart line item.",
	}, h.mcpRemoveItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "begin_checkout",
		Description: "Start checkout for the current cart.",
	}, h.mcpBeginCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_destination",
		Description: "Choose the destination country and load its shipping options.",
	}, h.mcpSetDestination)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_shipping",
		Description: "Choose a shipping tier offered for the destination.",
	}, h.mcpSelectShipping)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_payment",
		Description: "Choose the payment method.",
	}, h.mcpSelectPayment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "place_order",
		Description: "Place the order. Gateway payments return a redirect URL.",
	}, h.mcpPlaceOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_payment",
		Description: "Cancel a gateway payment that was not completed.",
	}, h.mcpCancelPayment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_checkout",
		Description: "Get the current checkout state and estimate.",
	}, h.mcpGetCheckout)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetCart(ctx context.Context, req *mcp.CallToolRequest, input MetaInput) (*mcp.CallToolResult, *CartOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	view, err := app.Cart(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCartOutput(view), nil
}

func (h *Handler) mcpAddItem(ctx context.Context, req *mcp.CallToolRequest, input AddItemInput) (*mcp.CallToolResult, *CartOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	view, err := app.AddItem(ctx, input.ProductID, input.Quantity)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCartOutput(view), nil
}

func (h *Handler) mcpUpdateQuantity(ctx context.Context, req *mcp.CallToolRequest, input UpdateQuantityInput) (*mcp.CallToolResult, *CartOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if input.LineID == "" {
		return nil, nil, fmt.Errorf("line_id is required")
	}
	view, err := app.UpdateQuantity(ctx, input.LineID, input.Quantity)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCartOutput(view), nil
}

func (h *Handler) mcpRemoveItem(ctx context.Context, req *mcp.CallToolRequest, input RemoveItemInput) (*mcp.CallToolResult, *CartOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if input.LineID == "" {
		return nil, nil, fmt.Errorf("line_id is required")
	}
	view, err := app.RemoveItem(ctx, input.LineID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCartOutput(view), nil
}

func (h *Handler) mcpBeginCheckout(ctx context.Context, req *mcp.CallToolRequest, input MetaInput) (*mcp.CallToolResult, *CheckoutOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	snap, err := app.BeginCheckout(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCheckoutOutput(snap), nil
}

func (h *Handler) mcpSetDestination(ctx context.Context, req *mcp.CallToolRequest, input SetDestinationInput) (*mcp.CallToolResult, *CheckoutOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	snap, err := app.SetDestination(ctx, input.Country)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCheckoutOutput(snap), nil
}

func (h *Handler) mcpSelectShipping(ctx context.Context, req *mcp.CallToolRequest, input SelectShippingInput) (*mcp.CallToolResult, *CheckoutOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	snap, err := app.SelectShipping(model.ShippingType(input.Type))
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCheckoutOutput(snap), nil
}

func (h *Handler) mcpSelectPayment(ctx context.Context, req *mcp.CallToolRequest, input SelectPaymentInput) (*mcp.CallToolResult, *CheckoutOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	snap, err := app.SelectPayment(model.PaymentMethod(input.Method))
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCheckoutOutput(snap), nil
}

func (h *Handler) mcpPlaceOrder(ctx context.Context, req *mcp.CallToolRequest, input MetaInput) (*mcp.CallToolResult, *CheckoutOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	snap, err := app.PlaceOrder(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCheckoutOutput(snap), nil
}

func (h *Handler) mcpCancelPayment(ctx context.Context, req *mcp.CallToolRequest, input MetaInput) (*mcp.CallToolResult, *CheckoutOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	snap, err := app.CancelPayment()
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCheckoutOutput(snap), nil
}

func (h *Handler) mcpGetCheckout(ctx context.Context, req *mcp.CallToolRequest, input MetaInput) (*mcp.CallToolResult, *CheckoutOutput, error) {
	app, err := h.mcpApp(&input.Meta)
	if err != nil {
		return nil, nil, err
	}
	return nil, toCheckoutOutput(app.Checkout()), nil
}

// mcpError converts component errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

// mcpApp admits the client named in meta and returns its App.
func (h *Handler) mcpApp(meta *MCPMeta) (*storefront.App, error) {
	var info negotiation.ClientInfo
	if meta != nil && meta.Client != nil {
		info = negotiation.ClientInfo{Profile: meta.Client.Profile, Version: meta.Client.Version}
	}
	if err := h.gate.Admit(info); err != nil {
		var verErr *negotiation.VersionError
		if errors.As(err, &verErr) {
			return nil, fmt.Errorf("%s: %s", verErr.Code, verErr.Message)
		}
		return nil, err
	}
	app, err := h.registry.Get(info.Profile)
	if err != nil {
		return nil, h.mcpError(err)
	}
	return app, nil
}

func toCartOutput(v *cart.View) *CartOutput {
	out := &CartOutput{
		CartID:    v.CartID,
		OwnerKind: string(v.Owner.Kind),
		OwnerID:   v.Owner.ID,
		Lines:     make([]CartLineOutput, 0, len(v.Lines)),
		Subtotal:  v.Subtotal,
		ItemCount: v.ItemCount,
	}
	for _, l := range v.Lines {
		out.Lines = append(out.Lines, CartLineOutput{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Status:    l.Status,
			Error:     l.Error,
		})
	}
	return out
}

func toCheckoutOutput(s *checkout.Snapshot) *CheckoutOutput {
	out := &CheckoutOutput{
		State:        string(s.State),
		Country:      s.Country,
		Shipping:     string(s.Shipping),
		Payment:      string(s.Payment),
		Subtotal:     s.Estimate.Subtotal,
		Discount:     s.Estimate.Discount,
		Tax:          s.Estimate.Tax,
		ShippingCost: s.Estimate.Shipping,
		Total:        s.Estimate.Total,
		Reference:    s.Reference,
		RedirectURL:  s.RedirectURL,
		Error:        s.Error,
	}
	if s.Coupon != nil {
		out.Coupon = s.Coupon.Code
	}
	if s.Order != nil {
		out.OrderNumber = s.Order.Number
		out.PaymentStatus = string(s.Order.PaymentStatus)
		// Authoritative totals once the order exists.
		out.Subtotal = s.Order.Totals.Subtotal
		out.Discount = s.Order.Totals.Discount
		out.Tax = s.Order.Totals.Tax
		out.ShippingCost = s.Order.Totals.Shipping
		out.Total = s.Order.Totals.Total
	}
	return out
}
