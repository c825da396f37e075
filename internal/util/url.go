package util

import (
	"net/url"
	"strings"
)

// trackingParams are stripped during normalization so the same offer linked
// through different campaigns still shares one cache key.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"ref", "fbclid", "gclid",
}

// IsAbsoluteURL reports whether raw parses as an absolute http(s) URL with a
// host. This is the well-formedness check the quality filter relies on.
func IsAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// NormalizeURL canonicalizes a deal URL: https scheme, lower-cased host, no
// trailing slash, tracking parameters removed. Malformed input is returned
// unchanged along with the parse error.
func NormalizeURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw, err
	}
	if parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}
	parsed.Host = strings.ToLower(parsed.Host)
	if len(parsed.Path) > 1 && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = parsed.Path[:len(parsed.Path)-1]
		// Clear RawPath so String() regenerates the path without the slash.
		parsed.RawPath = ""
	}
	queryParams := parsed.Query()
	for _, param := range trackingParams {
		if queryParams.Has(param) {
			queryParams.Del(param)
		}
	}
	parsed.RawQuery = queryParams.Encode()
	return parsed.String(), nil
}
