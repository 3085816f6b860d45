// Package negotiation identifies the calling storefront client.
// REST middleware reads the Storefront-Client header; MCP handlers read the
// same fields from the tool call meta. Both paths go through the same
// minimum version gate.
package negotiation

import "context"

// ClientInfo identifies the browser profile and the client build making a
// request.
type ClientInfo struct {
	// Profile scopes identity, session and guest cart state.
	Profile string `json:"profile"`

	// Version is the client build, semver with or without the "v" prefix.
	Version string `json:"version,omitempty"`
}

// contextKey is the type for context values to avoid collisions
type contextKey string

const clientContextKey contextKey = "storefront.client"

// ClientRequired is the error code when the client header is missing or
// malformed.
const ClientRequired = "client_header_required"

// ClientVersionUnsupported is the error code when the client build is older
// than the configured minimum.
const ClientVersionUnsupported = "client_version_unsupported"

// VersionError is returned by Gate.Check.
type VersionError struct {
	Code    string
	Message string
}

func (e *VersionError) Error() string {
	return e.Message
}

// WithClient stores info in ctx.
func WithClient(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientContextKey, info)
}

// FromContext returns the client stored by the middleware. ok is false on
// exempt paths.
func FromContext(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientContextKey).(ClientInfo)
	return info, ok
}
