// url.go — Origin helpers for CSP frame sources and external links.
package util

import (
	"net/url"
	"strings"
)

// ExtractOrigin extracts the origin (scheme://host[:port]) from a URL.
// Returns empty string for data: URLs, blob: URLs (after extracting nested origin),
// and malformed URLs.
func ExtractOrigin(rawURL string) string {
	if strings.HasPrefix(rawURL, "data:") {
		return ""
	}

	// blob:https://example.com/uuid -> https://example.com
	rawURL = strings.TrimPrefix(rawURL, "blob:")

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// IsHTTPURL reports whether rawURL is an absolute http or https URL.
func IsHTTPURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
