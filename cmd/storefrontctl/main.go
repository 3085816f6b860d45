// storefrontctl is a CLI tool for exercising storefront cart and checkout flows.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	storefrontctl cart -server URL -profile NAME
//	storefrontctl add -server URL -profile NAME -product ID [-qty N]
//	storefrontctl qty -server URL -profile NAME -line ID -qty N
//	storefrontctl rm -server URL -profile NAME -line ID
//	storefrontctl login -server URL -profile NAME -email E -password P
//	storefrontctl products -server URL -profile NAME [-category C] [-search Q]
//	storefrontctl checkout -server URL -profile NAME -country C -shipping T -payment M [-coupon CODE]
//	storefrontctl cancel -server URL -profile NAME
//
// Examples:
//
//	storefrontctl add -profile demo -product P1 -qty 2
//	LINE=$(storefrontctl cart -profile demo -q | head -1)
//	storefrontctl qty -profile demo -line $LINE -qty 3
//	storefrontctl checkout -profile demo -country "Saudi Arabia" -shipping fast -payment cod
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/negotiation"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL     string
	profile       string
	clientVersion string
	quiet         bool
	noColor       bool
	verbose       bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorBlue, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "cart":
		runCart(args)
	case "add":
		runAdd(args)
	case "qty":
		runQty(args)
	case "rm":
		runRemove(args)
	case "login":
		runLogin(args)
	case "products":
		runProducts(args)
	case "checkout":
		runCheckout(args)
	case "cancel":
		runCancel(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `storefrontctl - storefront cart and checkout tool

Usage:
  storefrontctl <command> [options]

Commands:
  cart      Show the cart for a profile
  add       Add a product to the cart
  qty       Change the quantity of a cart line
  rm        Remove a cart line
  login     Sign in (merges the guest cart into the account)
  products  List catalog products
  checkout  Run the whole checkout and place the order
  cancel    Cancel a gateway payment that was not completed

Examples:
  # Fill a guest cart
  storefrontctl add -server http://localhost:8080 -profile demo -product P1 -qty 2

  # Sign in; the guest cart moves to the account
  storefrontctl login -profile demo -email shopper@example.com -password secret

  # Check out with cash on delivery
  storefrontctl checkout -profile demo -country "Saudi Arabia" -shipping fast -payment cod

Run 'storefrontctl <command> -h' for command-specific options.
`)
}

// newFlagSet registers the flags shared by every command.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&serverURL, "server", envOr("STOREFRONT_URL", "http://localhost:8080"), "Storefront base URL")
	fs.StringVar(&profile, "profile", envOr("STOREFRONT_PROFILE", "cli"), "Client profile (one shopper per profile)")
	fs.StringVar(&clientVersion, "version", "1.0.0", "Client version sent to the server")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output identifiers")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
}

// =============================================================================
// CART COMMANDS
// =============================================================================

type cartView struct {
	CartID string `json:"cart_id"`
	Owner  struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	} `json:"owner"`
	Lines []struct {
		ID        string `json:"id"`
		ProductID string `json:"product_id"`
		Name      string `json:"name"`
		Quantity  int    `json:"quantity"`
		UnitPrice int64  `json:"unit_price"`
		Status    string `json:"status"`
		Error     string `json:"error"`
	} `json:"lines"`
	Subtotal  int64 `json:"subtotal"`
	ItemCount int   `json:"item_count"`
}

func runCart(args []string) {
	fs := newFlagSet("cart")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl cart [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	var view cartView
	if err := doRequest("GET", "/cart", nil, &view); err != nil {
		fatal("Failed to get cart: %v", err)
	}
	printCart(&view)
}

func runAdd(args []string) {
	fs := newFlagSet("add")
	var productID string
	var quantity int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl add -product ID [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	reqBody := map[string]interface{}{
		"product_id": productID,
		"quantity":   quantity,
	}

	var view cartView
	if err := doRequest("POST", "/cart/items", reqBody, &view); err != nil {
		fatal("Failed to add item: %v", err)
	}
	printSuccess("Added %d x %s", quantity, productID)
	printCart(&view)
}

func runQty(args []string) {
	fs := newFlagSet("qty")
	var lineID string
	var quantity int
	fs.StringVar(&lineID, "line", "", "Cart line ID (required)")
	fs.IntVar(&quantity, "qty", 0, "New quantity (required, at least 1)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl qty -line ID -qty N [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	if lineID == "" || quantity < 1 {
		fs.Usage()
		os.Exit(1)
	}

	var view cartView
	if err := doRequest("PATCH", "/cart/items/"+url.PathEscape(lineID), map[string]int{"quantity": quantity}, &view); err != nil {
		fatal("Failed to update quantity: %v", err)
	}
	printSuccess("Quantity updated")
	printCart(&view)
}

func runRemove(args []string) {
	fs := newFlagSet("rm")
	var lineID string
	fs.StringVar(&lineID, "line", "", "Cart line ID (required)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl rm -line ID [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	if lineID == "" {
		fs.Usage()
		os.Exit(1)
	}

	var view cartView
	if err := doRequest("DELETE", "/cart/items/"+url.PathEscape(lineID), nil, &view); err != nil {
		fatal("Failed to remove item: %v", err)
	}
	printSuccess("Line removed")
	printCart(&view)
}

func printCart(view *cartView) {
	if quiet {
		for _, l := range view.Lines {
			fmt.Println(l.ID)
		}
		return
	}

	fmt.Printf("  Cart: %s%s%s (%s %s)\n", colorCyan, view.CartID, colorReset, view.Owner.Kind, view.Owner.ID)
	if len(view.Lines) == 0 {
		fmt.Printf("  %s(empty)%s\n", colorGray, colorReset)
	}
	for _, l := range view.Lines {
		name := l.Name
		if name == "" {
			name = l.ProductID
		}
		fmt.Printf("    - %s%s%s  %s x%d  %s  %s\n",
			colorBold, l.ID, colorReset, name, l.Quantity,
			formatCents(l.UnitPrice*int64(l.Quantity)), lineStatus(l.Status, l.Error))
	}
	fmt.Printf("  Subtotal: %s%s%s (%d items)\n", colorGreen, formatCents(view.Subtotal), colorReset, view.ItemCount)
}

func lineStatus(status, errMsg string) string {
	switch status {
	case "pending":
		return colorYellow + "pending" + colorReset
	case "failed":
		return colorRed + "failed: " + errMsg + colorReset
	default:
		return colorGray + status + colorReset
	}
}

// =============================================================================
// ACCOUNT COMMANDS
// =============================================================================

func runLogin(args []string) {
	fs := newFlagSet("login")
	var email, password string
	var register bool
	fs.StringVar(&email, "email", "", "Account email (required)")
	fs.StringVar(&password, "password", "", "Account password (required)")
	fs.BoolVar(&register, "register", false, "Create the account instead of signing in")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl login -email E -password P [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	if email == "" || password == "" {
		fs.Usage()
		os.Exit(1)
	}

	path := "/auth/login"
	reqBody := map[string]string{"email": email, "password": password}
	if register {
		path = "/auth/register"
		reqBody["name"] = strings.Split(email, "@")[0]
	}

	var outcome struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Merge *struct {
			CartID  string `json:"cart_id"`
			Skipped bool   `json:"skipped"`
			Items   []struct {
				ProductID string `json:"product_id"`
				Quantity  int    `json:"quantity"`
				OK        bool   `json:"ok"`
			} `json:"items"`
		} `json:"merge"`
	}
	if err := doRequest("POST", path, reqBody, &outcome); err != nil {
		fatal("Failed to sign in: %v", err)
	}

	if quiet {
		fmt.Println(outcome.User.ID)
		return
	}
	printSuccess("Signed in as %s", outcome.User.Email)
	if outcome.Merge == nil || outcome.Merge.Skipped {
		printInfo("No guest items to merge")
		return
	}
	for _, it := range outcome.Merge.Items {
		if it.OK {
			fmt.Printf("    %s✓%s %s x%d\n", colorGreen, colorReset, it.ProductID, it.Quantity)
		} else {
			fmt.Printf("    %s✗%s %s x%d\n", colorRed, colorReset, it.ProductID, it.Quantity)
		}
	}
}

// =============================================================================
// CATALOG COMMAND
// =============================================================================

func runProducts(args []string) {
	fs := newFlagSet("products")
	var category, search string
	var limit int
	fs.StringVar(&category, "category", "", "Filter by category")
	fs.StringVar(&search, "search", "", "Search term")
	fs.IntVar(&limit, "limit", 20, "Maximum number of products")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl products [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if search != "" {
		q.Set("search", search)
	}
	q.Set("limit", fmt.Sprint(limit))

	var resp struct {
		Items []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Price int64  `json:"price"`
		} `json:"items"`
	}
	if err := doRequest("GET", "/products?"+q.Encode(), nil, &resp); err != nil {
		fatal("Failed to list products: %v", err)
	}

	for _, p := range resp.Items {
		if quiet {
			fmt.Println(p.ID)
			continue
		}
		fmt.Printf("  %s%-10s%s %-30s %s\n", colorCyan, p.ID, colorReset, p.Name, formatCents(p.Price))
	}
}

// =============================================================================
// CHECKOUT COMMAND
// =============================================================================

type checkoutSnapshot struct {
	State    string `json:"state"`
	Estimate struct {
		Subtotal int64 `json:"subtotal"`
		Discount int64 `json:"discount"`
		Tax      int64 `json:"tax"`
		Shipping int64 `json:"shipping"`
		Total    int64 `json:"total"`
	} `json:"estimate"`
	Order *struct {
		Number        string `json:"number"`
		PaymentStatus string `json:"payment_status"`
		Totals        struct {
			Total int64 `json:"total"`
		} `json:"totals"`
	} `json:"order"`
	RedirectURL string `json:"redirect_url"`
	Error       string `json:"error"`
}

func runCheckout(args []string) {
	fs := newFlagSet("checkout")
	var country, shipping, payment, coupon string
	fs.StringVar(&country, "country", "", "Destination country (required)")
	fs.StringVar(&shipping, "shipping", "normal", "Shipping type: normal or fast")
	fs.StringVar(&payment, "payment", "cod", "Payment method: cod or gateway")
	fs.StringVar(&coupon, "coupon", "", "Coupon code")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl checkout -country C [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	if country == "" {
		fs.Usage()
		os.Exit(1)
	}

	steps := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"begin", "POST", "/checkout", nil},
		{"destination", "PUT", "/checkout/destination", map[string]string{"country": country}},
		{"shipping", "PUT", "/checkout/shipping", map[string]string{"type": shipping}},
		{"payment", "PUT", "/checkout/payment", map[string]string{"method": payment}},
	}
	if coupon != "" {
		steps = append(steps, struct {
			name   string
			method string
			path   string
			body   interface{}
		}{"coupon", "PUT", "/checkout/coupon", map[string]string{"code": coupon}})
	}

	var snap checkoutSnapshot
	for _, s := range steps {
		if err := doRequest(s.method, s.path, s.body, &snap); err != nil {
			fatal("Checkout %s failed: %v", s.name, err)
		}
		printInfo("%s → %s", s.name, snap.State)
	}

	if !quiet {
		fmt.Printf("  Estimate: subtotal %s, discount %s, tax %s, shipping %s\n",
			formatCents(snap.Estimate.Subtotal), formatCents(snap.Estimate.Discount),
			formatCents(snap.Estimate.Tax), formatCents(snap.Estimate.Shipping))
		fmt.Printf("  Total: %s%s%s\n", colorGreen, formatCents(snap.Estimate.Total), colorReset)
	}

	if err := doRequest("POST", "/checkout/place", nil, &snap); err != nil {
		fatal("Failed to place order: %v", err)
	}

	switch {
	case snap.State == "order_confirmed" && snap.Order != nil:
		if quiet {
			fmt.Println(snap.Order.Number)
			return
		}
		printSuccess("Order placed!")
		fmt.Printf("  Order: %s%s%s\n", colorGreen, snap.Order.Number, colorReset)
		fmt.Printf("  Payment: %s\n", snap.Order.PaymentStatus)
		fmt.Printf("  Total: %s\n", formatCents(snap.Order.Totals.Total))
	case snap.RedirectURL != "":
		if quiet {
			fmt.Println(snap.RedirectURL)
			return
		}
		printWarning("Payment requires the gateway")
		fmt.Printf("  Continue URL: %s%s%s\n", colorBlue, snap.RedirectURL, colorReset)
	default:
		printWarning("State: %s %s", snap.State, snap.Error)
	}
}

func runCancel(args []string) {
	fs := newFlagSet("cancel")
	parseFlags(fs, args)

	var snap checkoutSnapshot
	if err := doRequest("POST", "/checkout/cancel", nil, &snap); err != nil {
		fatal("Failed to cancel payment: %v", err)
	}
	printSuccess("Payment cancelled")
	printInfo("State: %s", snap.State)
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func doRequest(method, path string, body, out interface{}) error {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, serverURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	header, err := negotiation.FormatClientHeader(negotiation.ClientInfo{
		Profile: profile,
		Version: clientVersion,
	})
	if err != nil {
		return fmt.Errorf("building %s header: %w", negotiation.Header, err)
	}
	req.Header.Set(negotiation.Header, header)

	if verbose {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if verbose {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return responseError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// responseError turns an error body into a readable error.
func responseError(status int, body []byte) error {
	var e struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Code != "" {
		return fmt.Errorf("HTTP %d %s: %s", status, e.Error.Code, e.Error.Message)
	}
	return fmt.Errorf("HTTP %d: %s", status, string(body))
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	if len(data) == 0 {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}
	fmt.Println(prefix + pretty.String())
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func formatCents(cents int64) string {
	return model.FormatCents(cents)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
