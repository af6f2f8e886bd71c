package extractor

import (
	"fmt"
	"net/url"
)

// ResolveURL takes a raw reference and a base URL and returns an absolute
// URL as a string.
func ResolveURL(raw string, base *url.URL) (string, error) {
	link, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	// If the link is already absolute, return it.
	if link.IsAbs() {
		return link.String(), nil
	}

	// Resolve the relative URL against the base.
	// The net/url.ResolveReference method follows RFC 3986, handling
	// relative paths (including those starting with "/" or "../").
	return base.ResolveReference(link).String(), nil
}
