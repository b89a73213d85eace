package utils

import (
	"net/url"
	"strings"
)

// MakeMap creates and returns a map[string]string containing a single key-value pair.
func MakeMap(key, value string) map[string]string {
	return map[string]string{key: value}
}

// secretQueryParams lists query parameters that must never reach logs or Sentry.
var secretQueryParams = []string{"api_key", "key"}

// RedactURL replaces the values of secret query parameters with "REDACTED".
// Strings that do not parse as URLs are returned with everything after '?' removed.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		base, _, _ := strings.Cut(rawURL, "?")
		return base
	}

	q := u.Query()
	changed := false
	for _, param := range secretQueryParams {
		if q.Has(param) {
			q.Set(param, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
