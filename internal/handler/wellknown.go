package handler

import (
	"net/http"

	"storefront/internal/negotiation"
)

// discoveryResponse tells clients how to identify themselves.
type discoveryResponse struct {
	Service          string `json:"service"`
	ClientHeader     string `json:"client_header"`
	MinClientVersion string `json:"min_client_version,omitempty"`
	MCPEndpoint      string `json:"mcp_endpoint"`
}

// handleWellKnown returns the client requirements.
// GET /.well-known/storefront
func (h *Handler) handleWellKnown(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, discoveryResponse{
		Service:          "storefront",
		ClientHeader:     negotiation.Header,
		MinClientVersion: h.gate.Minimum(),
		MCPEndpoint:      "/mcp",
	})
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Profiles: h.registry.Len()})
}

type healthResponse struct {
	Status   string `json:"status"`
	Profiles int    `json:"profiles"`
}
