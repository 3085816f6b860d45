package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// jsonrpcRequest is a JSON-RPC 2.0 request structure for testing.
type jsonrpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response structure for testing.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolCallParams represents the params for tools/call method.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callToolResult is the expected result structure from a tool call.
type callToolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	IsError bool `json:"isError,omitempty"`
}

func testMCPMux(t *testing.T) *http.ServeMux {
	t.Helper()
	h, _, _ := testHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

// testMeta returns the meta block for profile.
func testMeta(profile, version string) map[string]interface{} {
	return map[string]interface{}{
		"storefront-client": map[string]interface{}{
			"profile": profile,
			"version": version,
		},
	}
}

func TestMCPServerCreation(t *testing.T) {
	h, _, _ := testHandler(t)
	if h.NewMCPServer() == nil {
		t.Fatal("NewMCPServer returned nil")
	}
	if h.NewMCPHandler() == nil {
		t.Fatal("NewMCPHandler returned nil")
	}
}

func TestMCPToolsList(t *testing.T) {
	mux := testMCPMux(t)
	sessionID := initMCPSession(t, mux)

	resp := rpc(t, mux, sessionID, jsonrpcRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}

	var toolsResult struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &toolsResult); err != nil {
		t.Fatalf("Failed to parse tools result: %v", err)
	}

	expected := map[string]bool{
		"get_cart": false, "add_item": false, "update_quantity": false, "remove_item": false,
		"begin_checkout": false, "set_destination": false, "select_shipping": false,
		"select_payment": false, "place_order": false, "cancel_payment": false,
		"get_checkout": false,
	}
	for _, tool := range toolsResult.Tools {
		if _, ok := expected[tool.Name]; ok {
			expected[tool.Name] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("Expected tool %q not found in tools list", name)
		}
	}
}

func TestMCPCartTools(t *testing.T) {
	mux := testMCPMux(t)
	sessionID := initMCPSession(t, mux)
	meta := testMeta("agent-1", "1.2.0")

	var cart CartOutput
	res := callTool(t, mux, sessionID, "add_item", map[string]interface{}{
		"meta": meta, "product_id": "P1", "quantity": 2,
	})
	toolOutput(t, res, &cart)
	if len(cart.Lines) != 1 || cart.Subtotal != 2000 || cart.OwnerKind != "guest" {
		t.Fatalf("cart after add = %+v", cart)
	}
	lineID := cart.Lines[0].ID

	res = callTool(t, mux, sessionID, "update_quantity", map[string]interface{}{
		"meta": meta, "line_id": lineID, "quantity": 4,
	})
	toolOutput(t, res, &cart)
	if cart.Subtotal != 4000 {
		t.Errorf("Subtotal = %d, want 4000", cart.Subtotal)
	}

	res = callTool(t, mux, sessionID, "update_quantity", map[string]interface{}{
		"meta": meta, "line_id": lineID, "quantity": 0,
	})
	if !res.IsError {
		t.Error("quantity 0 should be a tool error")
	}

	res = callTool(t, mux, sessionID, "remove_item", map[string]interface{}{
		"meta": meta, "line_id": lineID,
	})
	toolOutput(t, res, &cart)
	if len(cart.Lines) != 0 {
		t.Errorf("Lines = %d after remove, want 0", len(cart.Lines))
	}

	res = callTool(t, mux, sessionID, "get_cart", map[string]interface{}{"meta": meta})
	toolOutput(t, res, &cart)
	if cart.CartID == "" {
		t.Error("get_cart returned no cart id")
	}
}

func TestMCPCheckoutTools(t *testing.T) {
	mux := testMCPMux(t)
	sessionID := initMCPSession(t, mux)
	meta := testMeta("agent-2", "1.2.0")

	callTool(t, mux, sessionID, "add_item", map[string]interface{}{
		"meta": meta, "product_id": "P1", "quantity": 2,
	})

	steps := []struct {
		tool string
		args map[string]interface{}
		want string
	}{
		{"begin_checkout", map[string]interface{}{"meta": meta}, "selecting_destination"},
		{"set_destination", map[string]interface{}{"meta": meta, "country": "Saudi Arabia"}, "selecting_shipping"},
		{"select_shipping", map[string]interface{}{"meta": meta, "type": "fast"}, "selecting_payment"},
		{"select_payment", map[string]interface{}{"meta": meta, "method": "cod"}, "selecting_payment"},
		{"place_order", map[string]interface{}{"meta": meta}, "order_confirmed"},
	}

	var out CheckoutOutput
	for _, s := range steps {
		res := callTool(t, mux, sessionID, s.tool, s.args)
		toolOutput(t, res, &out)
		if out.State != s.want {
			t.Fatalf("%s: State = %s, want %s", s.tool, out.State, s.want)
		}
	}
	if out.Total != 5300 || out.OrderNumber == "" {
		t.Errorf("order = %+v, want total 5300 with a number", out)
	}

	res := callTool(t, mux, sessionID, "get_checkout", map[string]interface{}{"meta": meta})
	toolOutput(t, res, &out)
	if out.State != "order_confirmed" {
		t.Errorf("get_checkout State = %s, want order_confirmed", out.State)
	}
}

func TestMCPClientRejected(t *testing.T) {
	mux := testMCPMux(t)
	sessionID := initMCPSession(t, mux)

	tests := []struct {
		name string
		meta map[string]interface{}
	}{
		{"empty profile", testMeta("", "1.2.0")},
		{"old version", testMeta("agent-3", "0.9.0")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, mux, sessionID, "get_cart", map[string]interface{}{"meta": tt.meta})
			if !res.IsError {
				t.Error("expected tool error")
			}
		})
	}
}

func TestMCPMissingRequiredField(t *testing.T) {
	mux := testMCPMux(t)
	sessionID := initMCPSession(t, mux)

	// get_cart without required 'meta' field
	args, _ := json.Marshal(map[string]interface{}{})
	body, _ := json.Marshal(jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/call",
		Params:  toolCallParams{Name: "get_cart", Arguments: args},
	})
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, sessionID)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	// Should still return 200, with error in the result
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

// setMCPHeaders sets the required headers for MCP Streamable HTTP requests.
func setMCPHeaders(req *http.Request, sessionID string) {
	req.Header.Set("Content-Type", "application/json")
	// MCP Streamable HTTP requires Accept header with both json and event-stream
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
}

// parseSSEResponse extracts JSON data from SSE formatted response.
// SSE format: "event: message\ndata: {json}\n\n"
func parseSSEResponse(body string) []byte {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			return []byte(strings.TrimPrefix(line, "data: "))
		}
	}
	// If no SSE format found, assume plain JSON
	return []byte(body)
}

// initMCPSession initializes an MCP session and returns the session ID.
func initMCPSession(t *testing.T, mux *http.ServeMux) string {
	t.Helper()

	body, _ := json.Marshal(jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params: map[string]interface{}{
			"protocolVersion": "2025-06-18",
			"clientInfo":      map[string]string{"name": "test", "version": "1.0"},
			"capabilities":    map[string]interface{}{},
		},
	})
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, "")
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Failed to initialize MCP session: %s", w.Body.String())
	}

	return w.Header().Get("Mcp-Session-Id")
}

// rpc posts one JSON-RPC request and decodes the response.
func rpc(t *testing.T, mux *http.ServeMux, sessionID string, req jsonrpcRequest) jsonrpcResponse {
	t.Helper()

	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, sessionID)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(parseSSEResponse(w.Body.String()), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

// callTool invokes a tool and returns its result. Tool errors are reported
// in the result, not as JSON-RPC errors.
func callTool(t *testing.T, mux *http.ServeMux, sessionID, name string, args map[string]interface{}) callToolResult {
	t.Helper()

	raw, _ := json.Marshal(args)
	resp := rpc(t, mux, sessionID, jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      3,
		Method:  "tools/call",
		Params:  toolCallParams{Name: name, Arguments: raw},
	})
	if resp.Error != nil {
		t.Fatalf("%s: unexpected JSON-RPC error: %+v", name, resp.Error)
	}

	var result callToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("%s: failed to parse result: %v", name, err)
	}
	return result
}

// toolOutput decodes the JSON text content of a successful tool result.
func toolOutput(t *testing.T, res callToolResult, v interface{}) {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if len(res.Content) == 0 || res.Content[0].Type != "text" {
		t.Fatalf("expected text content, got %+v", res.Content)
	}
	if err := json.Unmarshal([]byte(res.Content[0].Text), v); err != nil {
		t.Fatalf("decode tool output: %v", err)
	}
}
