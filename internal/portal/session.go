// Package portal implements the authenticated transport to a SchoolSoft
// portal: a cookie-carrying fetch that transparently logs in again when the
// portal bounces a request to its login page.
package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/law-makers/schoolsoft/internal/reqctx"
	"github.com/rs/zerolog/log"
)

// UserType selects which login form the portal authenticates against
type UserType int

const (
	UserTypeTeacher UserType = 0
	UserTypeStudent UserType = 1
)

// maxLoginAttempts bounds re-authentication per FetchAuthenticated call
const maxLoginAttempts = 1

// DefaultTimeout is applied when no HTTP client is supplied
const DefaultTimeout = 30 * time.Second

// Credentials identify one portal account
type Credentials struct {
	School   string
	Username string
	Password string
	UserType UserType
}

// Options configures a Session beyond its credentials
type Options struct {
	// BaseURL of the portal host, DefaultBaseURL when empty
	BaseURL string
	// UserAgent sent with every request
	UserAgent string
	// Headers added to every request
	Headers map[string]string
	// Cookies seeds the jar, e.g. from a persisted profile
	Cookies map[string]string
}

// FetchResult is a fetched page after all redirects were followed
type FetchResult struct {
	URL        string
	StatusCode int
	Body       string
}

// Session owns the cookie jar of one logged-in identity. All portal traffic
// goes through FetchAuthenticated.
type Session struct {
	creds      Credentials
	base       *url.URL
	client     *http.Client
	noRedirect *http.Client
	loginPage  *regexp.Regexp
	userAgent  string
	headers    map[string]string

	mu      sync.Mutex
	cookies map[string]string
}

// New creates a Session. The client's own cookie jar, if any, is ignored:
// the session carries its cookies explicitly.
func New(client *http.Client, creds Credentials, opts Options) (*Session, error) {
	if creds.School == "" {
		return nil, fmt.Errorf("school is required")
	}
	if creds.UserType != UserTypeTeacher && creds.UserType != UserTypeStudent {
		return nil, fmt.Errorf("invalid user type: %d", creds.UserType)
	}

	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	following := *client
	following.Jar = nil

	noRedirect := following
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	cookies := make(map[string]string, len(opts.Cookies))
	for name, value := range opts.Cookies {
		cookies[name] = value
	}

	return &Session{
		creds:      creds,
		base:       base,
		client:     &following,
		noRedirect: &noRedirect,
		loginPage:  loginPagePattern(base, creds.School),
		userAgent:  opts.UserAgent,
		headers:    opts.Headers,
		cookies:    cookies,
	}, nil
}

// School returns the school identifier of this session
func (s *Session) School() string {
	return s.creds.School
}

// BaseURL returns the portal host URL without the school segment
func (s *Session) BaseURL() string {
	return s.base.String()
}

// PageURL builds an absolute URL for a path below the school's root,
// e.g. "/jsp/student/right_student_news.jsp?menu=news".
func (s *Session) PageURL(path string) string {
	return s.base.String() + "/" + s.creds.School + path
}

// LoginURL returns the login form endpoint
func (s *Session) LoginURL() string {
	return s.PageURL(loginPath)
}

// IsLoginRedirect reports whether a resolved URL is the portal's login page
func (s *Session) IsLoginRedirect(resolvedURL string) bool {
	return s.loginPage.MatchString(resolvedURL)
}

// Cookies returns a copy of the current cookie jar
func (s *Session) Cookies() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.cookies))
	for name, value := range s.cookies {
		out[name] = value
	}
	return out
}

// FetchAuthenticated fetches rawURL with the session cookies. If the portal
// redirects to its login page, the session logs in once and retries; a
// second redirect fails with ErrAuthFailure.
func (s *Session) FetchAuthenticated(ctx context.Context, rawURL string) (*FetchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := log.With().
		Str("url", rawURL).
		Str("school", s.creds.School).
		Str("request_id", reqctx.GetRequestContext(ctx).RequestID).
		Logger()

	for attempt := 0; ; attempt++ {
		res, err := s.get(ctx, rawURL)
		if err != nil {
			return nil, err
		}

		if !s.IsLoginRedirect(res.URL) {
			logger.Debug().
				Int("status", res.StatusCode).
				Int("attempt", attempt+1).
				Msg("Fetch completed")
			return res, nil
		}

		if attempt >= maxLoginAttempts {
			logger.Warn().Msg("Still redirected to login after re-authentication")
			return nil, NewError(CodeAuthFailure, ErrAuthFailure.Message, nil).
				WithDetail("school", s.creds.School).
				WithDetail("username", s.creds.Username)
		}

		logger.Debug().
			Str("login_page", res.URL).
			Msg("Redirected to login page, re-authenticating")

		if err := s.login(ctx); err != nil {
			return nil, err
		}
	}
}

func (s *Session) get(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, NewError(CodeTransport, "failed to create request", err)
	}
	s.prepare(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transportError("failed to fetch URL", err).WithDetail("url", rawURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("failed to read response body", err).WithDetail("url", rawURL)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		log.Warn().
			Str("url", rawURL).
			Int("status", resp.StatusCode).
			Msg("Portal returned an error status")
	}

	return &FetchResult{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}

// login posts the login form without following redirects and replaces the
// cookie jar with whatever cookies the response sets.
func (s *Session) login(ctx context.Context) error {
	form := url.Values{
		"action":     {"login"},
		"usertype":   {strconv.Itoa(int(s.creds.UserType))},
		"ssusername": {s.creds.Username},
		"sspassword": {s.creds.Password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.LoginURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return NewError(CodeTransport, "failed to create login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.prepare(req)

	resp, err := s.noRedirect.Do(req)
	if err != nil {
		return transportError("failed to post login form", err).WithDetail("url", s.LoginURL())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	jar := make(map[string]string)
	for _, c := range resp.Cookies() {
		jar[c.Name] = c.Value
	}

	s.mu.Lock()
	s.cookies = jar
	s.mu.Unlock()

	log.Debug().
		Str("school", s.creds.School).
		Int("status", resp.StatusCode).
		Int("cookies", len(jar)).
		Msg("Login form submitted")

	return nil
}

func (s *Session) prepare(req *http.Request) {
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")

	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	s.mu.Lock()
	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: s.cookies[name]})
	}
	s.mu.Unlock()
}
