package negotiation

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Gate rejects clients older than a minimum version. A nil Gate, or one
// built from an empty minimum, admits every client.
type Gate struct {
	min string
}

// NewGate parses min ("1.4.0" or "v1.4.0"). An empty min disables gating.
func NewGate(min string) (*Gate, error) {
	if strings.TrimSpace(min) == "" {
		return &Gate{}, nil
	}
	v := normalizeVersion(min)
	if !semver.IsValid(v) {
		return nil, fmt.Errorf("invalid minimum client version %q", min)
	}
	return &Gate{min: semver.Canonical(v)}, nil
}

// Minimum returns the canonical minimum version, or "" when gating is off.
func (g *Gate) Minimum() string {
	if g == nil {
		return ""
	}
	return g.min
}

// Check validates a client version against the minimum.
func (g *Gate) Check(version string) error {
	if g == nil || g.min == "" {
		return nil
	}
	if strings.TrimSpace(version) == "" {
		return &VersionError{
			Code:    ClientVersionUnsupported,
			Message: fmt.Sprintf("client version is required (minimum %s)", g.min),
		}
	}

	v := normalizeVersion(version)
	if !semver.IsValid(v) {
		return &VersionError{
			Code:    ClientVersionUnsupported,
			Message: fmt.Sprintf("client version %q is not a valid semantic version", version),
		}
	}
	if semver.Compare(v, g.min) < 0 {
		return &VersionError{
			Code:    ClientVersionUnsupported,
			Message: fmt.Sprintf("client version %s is older than the minimum %s", version, g.min),
		}
	}
	return nil
}

// Admit checks a client identified outside the header path (MCP meta).
func (g *Gate) Admit(info ClientInfo) error {
	if strings.TrimSpace(info.Profile) == "" {
		return &VersionError{
			Code:    ClientRequired,
			Message: "client profile is required",
		}
	}
	return g.Check(info.Version)
}

// normalizeVersion adds "v" prefix if needed for semver parsing.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
