package negotiation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// Header is the request header carrying the client identification.
const Header = "Storefront-Client"

// ParseClientHeader reads a Storefront-Client header (RFC 8941 Dictionary).
//
// Examples:
//   - profile="browser-1"                     → {browser-1, ""}
//   - profile="browser-1", version="1.4.0"   → {browser-1, 1.4.0}
//   - profile="browser-1", version=2         → error (version must be a string)
//
// profile is required, version is optional here and enforced by the Gate.
func ParseClientHeader(header string) (ClientInfo, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return ClientInfo{}, errors.New("empty Storefront-Client header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return ClientInfo{}, fmt.Errorf("invalid Storefront-Client header: %w", err)
	}

	profile, err := stringMember(dict, "profile")
	if err != nil {
		return ClientInfo{}, err
	}
	if profile == "" {
		return ClientInfo{}, errors.New("profile key not found in Storefront-Client header")
	}

	version, err := stringMember(dict, "version")
	if err != nil {
		return ClientInfo{}, err
	}

	return ClientInfo{Profile: profile, Version: version}, nil
}

// FormatClientHeader renders info as a Storefront-Client header value.
func FormatClientHeader(info ClientInfo) (string, error) {
	if info.Profile == "" {
		return "", errors.New("profile is required")
	}
	dict := httpsfv.NewDictionary()
	dict.Add("profile", httpsfv.NewItem(info.Profile))
	if info.Version != "" {
		dict.Add("version", httpsfv.NewItem(info.Version))
	}
	return httpsfv.Marshal(dict)
}

// stringMember returns the string item stored under key, or "" when absent.
func stringMember(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", nil
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s value must be an item", key)
	}

	s, ok := item.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s value must be a string", key)
	}

	return strings.TrimSpace(s), nil
}
