package vitals

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// hostPortPrefix matches a scheme-less "host:port" start, which url.Parse
// would otherwise read as a scheme.
var hostPortPrefix = regexp.MustCompile(`^[^/:@?#]+:[0-9]+(?:[/?#]|$)`)

// StandardizeURL reduces a page URL to its identity form,
// scheme://host/path/. The scheme defaults to https, the query string,
// fragment and userinfo are dropped, scheme and host are lowercased, and
// the path always ends in exactly one slash. The result is stable under
// repeated application.
func StandardizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	if hostPortPrefix.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimPrefix(raw, "//"))
		if err != nil {
			return "", fmt.Errorf("parse url: %w", err)
		}
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + path + "/", nil
}

// HostOf returns the host (without port) of a standardized URL.
func HostOf(standardized string) string {
	u, err := url.Parse(standardized)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
