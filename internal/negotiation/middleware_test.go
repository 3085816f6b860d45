package negotiation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error.Code
}

func TestMiddleware_MissingHeader(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Middleware(nil, testLogger())(handler)

	req := httptest.NewRequest("GET", "/cart", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := decodeErrorCode(t, w); code != ClientRequired {
		t.Errorf("Error code = %s, want %s", code, ClientRequired)
	}
}

func TestMiddleware_ValidHeader(t *testing.T) {
	gate, _ := NewGate("1.0.0")

	var got ClientInfo
	var found bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Middleware(gate, testLogger())(handler)

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set(Header, `profile="browser-1", version="1.2.0"`)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if !found {
		t.Fatal("ClientInfo not stored in context")
	}
	if got.Profile != "browser-1" || got.Version != "1.2.0" {
		t.Errorf("ClientInfo = %+v", got)
	}
}

func TestMiddleware_InvalidHeader(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	wrapped := Middleware(nil, testLogger())(handler)

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set(Header, `profile=unquoted`)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if called {
		t.Error("handler should not run")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestMiddleware_VersionTooOld(t *testing.T) {
	gate, _ := NewGate("2.0.0")
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Middleware(gate, testLogger())(handler)

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set(Header, `profile="browser-1", version="1.9.9"`)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusUpgradeRequired {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusUpgradeRequired)
	}
	if code := decodeErrorCode(t, w); code != ClientVersionUnsupported {
		t.Errorf("Error code = %s, want %s", code, ClientVersionUnsupported)
	}
}

func TestMiddleware_ExemptPaths(t *testing.T) {
	gate, _ := NewGate("1.0.0")
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Middleware(gate, testLogger())(handler)

	for _, path := range []string{"/health", "/healthz", "/.well-known/storefront", "/checkout/return", "/mcp"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
			}
		})
	}
}

func TestIsExemptPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/healthz", true},
		{"/.well-known/storefront", true},
		{"/checkout/return", true},
		{"/mcp", true},
		{"/cart", false},
		{"/checkout", false},
		{"/checkout/returns", false},
		{"/mcpx", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isExemptPath(tt.path); got != tt.want {
				t.Errorf("isExemptPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFromContext_NotSet(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext() on empty context should report not found")
	}
}
