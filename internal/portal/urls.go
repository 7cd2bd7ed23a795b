package portal

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultBaseURL is the portal host used by most schools. The server number
// in the host ("sms5") varies between schools and over time.
const DefaultBaseURL = "https://sms5.schoolsoft.se"

const (
	loginPath         = "/jsp/Login.jsp"
	loginRedirectPath = "/html/redirect_login.htm"
)

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		raw = DefaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: missing host")
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// loginPagePattern builds the pattern identifying the portal's login redirect
// page for a school. Trailing digits of the first host label are the server
// number and may differ from the configured base host.
func loginPagePattern(base *url.URL, school string) *regexp.Regexp {
	label, rest, hasRest := strings.Cut(base.Host, ".")

	var b strings.Builder
	b.WriteString(`^https?://`)
	b.WriteString(regexp.QuoteMeta(strings.TrimRight(label, "0123456789")))
	b.WriteString(`\d*`)
	if hasRest {
		b.WriteString(`\.`)
		b.WriteString(regexp.QuoteMeta(rest))
	}
	b.WriteString(regexp.QuoteMeta(base.Path + "/" + school + loginRedirectPath))

	return regexp.MustCompile(b.String())
}
