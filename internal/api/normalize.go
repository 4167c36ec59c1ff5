package api

import (
	"net/url"
	"strings"
)

// NormalizeURL prepares user input for submission: trims whitespace, defaults
// the scheme to https, and rejects anything that does not parse as an
// absolute URL with a host. Returns a *ValidationError before any network
// call would happen.
func NormalizeURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", &ValidationError{Input: raw, Reason: "empty URL"}
	}

	lower := strings.ToLower(candidate)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		candidate = "https://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", &ValidationError{Input: raw, Reason: "not a parseable URL"}
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", &ValidationError{Input: raw, Reason: "not an absolute URL"}
	}
	return candidate, nil
}
