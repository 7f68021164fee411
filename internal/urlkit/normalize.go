// Package urlkit normalizes user-supplied URLs into their canonical identity.
package urlkit

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when the input cannot be normalized.
var ErrInvalidURL = errors.New("invalid url")

// Normalize reduces a raw URL string to its scheme://host[:port] identity.
// The scheme and host are lowercased, the port is kept only when it differs
// from the scheme's default, and the path, query, fragment and userinfo are
// discarded. Only absolute http and https URLs are accepted.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q is not http or https", ErrInvalidURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	port := u.Port()
	if port == defaultPort(scheme) {
		port = ""
	}
	if port != "" {
		return fmt.Sprintf("%s://%s:%s", scheme, host, port), nil
	}
	return fmt.Sprintf("%s://%s", scheme, host), nil
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}
