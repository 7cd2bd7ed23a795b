// internal/auth/login.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/law-makers/schoolsoft/internal/portal"
	"github.com/rs/zerolog/log"
)

// StartPagePath is fetched to verify a login. Any authenticated page would
// do; the start page is the cheapest.
const StartPagePath = "/jsp/student/right_student_startpage.jsp"

// LoginOptions configures a credential check
type LoginOptions struct {
	// ProfileName is the name to save the profile as
	ProfileName string
	Credentials portal.Credentials
	// Session options; BaseURL defaults to portal.DefaultBaseURL
	Session portal.Options
	// Client used for the check, a client with Timeout when nil
	Client *http.Client
	// Timeout for the whole check
	Timeout time.Duration
}

// Login verifies the credentials with one authenticated fetch and returns a
// profile carrying the resulting session cookies. Nothing is saved.
func Login(ctx context.Context, opts LoginOptions) (*Profile, error) {
	if opts.ProfileName == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = portal.DefaultTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}

	// Stale cookies would let a wrong password pass
	opts.Session.Cookies = nil

	s, err := portal.New(opts.Client, opts.Credentials, opts.Session)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("profile", opts.ProfileName).
		Str("school", s.School()).
		Str("username", opts.Credentials.Username).
		Msg("Verifying credentials")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if _, err := s.FetchAuthenticated(ctx, s.PageURL(StartPagePath)); err != nil {
		return nil, err
	}

	return &Profile{
		Name:     opts.ProfileName,
		School:   opts.Credentials.School,
		Username: opts.Credentials.Username,
		Password: opts.Credentials.Password,
		UserType: int(opts.Credentials.UserType),
		BaseURL:  s.BaseURL(),
		Cookies:  s.Cookies(),
	}, nil
}
