package negotiation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware creates HTTP middleware that identifies the client.
// Parses the Storefront-Client header, applies the version gate and stores
// the ClientInfo in the request context for handlers.
//
// Requests without the header are rejected with 400 Bad Request, except on
// exempt paths.
func Middleware(gate *Gate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(Header)
			if header == "" {
				writeNegotiationError(w, http.StatusBadRequest, ClientRequired,
					"Storefront-Client header is required for all requests")
				return
			}

			info, err := ParseClientHeader(header)
			if err != nil {
				logger.Warn("invalid Storefront-Client header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeNegotiationError(w, http.StatusBadRequest, ClientRequired,
					"Invalid Storefront-Client header: "+err.Error())
				return
			}

			if err := gate.Admit(info); err != nil {
				status, code := http.StatusBadRequest, ClientRequired
				var verErr *VersionError
				if errors.As(err, &verErr) && verErr.Code == ClientVersionUnsupported {
					status, code = http.StatusUpgradeRequired, verErr.Code
				}
				logger.Debug("client rejected",
					slog.String("profile", info.Profile),
					slog.String("version", info.Version),
					slog.String("minimum", gate.Minimum()))
				writeNegotiationError(w, status, code, errorMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), info)))
		})
	}
}

// isExemptPath returns true for paths that don't require the client header.
// The payment gateway redirects the browser to the return path without it,
// and MCP carries the client in the tool call meta.
func isExemptPath(path string) bool {
	switch {
	case path == "/health" || path == "/healthz":
		return true
	case path == "/.well-known/storefront":
		return true
	case path == "/checkout/return":
		return true
	case path == "/mcp" || strings.HasPrefix(path, "/mcp/"):
		return true
	default:
		return false
	}
}

type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorMessage(err error) string {
	var verErr *VersionError
	if errors.As(err, &verErr) {
		return verErr.Message
	}
	return err.Error()
}

// writeNegotiationError writes the same envelope the handlers use.
func writeNegotiationError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorEnvelope{Error: errorDetail{Code: code, Message: message}})
}
