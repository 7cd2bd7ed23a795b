package urlutil

import (
	"fmt"
	"net/url"
)

// ValidateURL checks that urlStr is an absolute http(s) URL
func ValidateURL(urlStr string) error {
	return validate(urlStr, "http", "https")
}

// ValidateProxyURL checks a proxy address; SOCKS5 is accepted as well
func ValidateProxyURL(urlStr string) error {
	return validate(urlStr, "http", "https", "socks5")
}

func validate(urlStr string, schemes ...string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	ok := false
	for _, s := range schemes {
		if parsed.Scheme == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("invalid URL scheme: must be one of %v, got %q", schemes, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL. The
// href is returned unchanged when either side does not parse.
func ResolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}
