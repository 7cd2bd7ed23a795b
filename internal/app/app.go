// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/law-makers/schoolsoft/internal/auth"
	"github.com/law-makers/schoolsoft/internal/config"
	"github.com/law-makers/schoolsoft/internal/portal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	HTTPClient *http.Client
	// Profile is the saved login in use, nil when running from flags only
	Profile *auth.Profile

	sessionMu sync.Mutex
	session   *portal.Session
	// session runs as the profile's account, so its cookies belong there
	ownsProfile bool
	startTime   time.Time
}

// New creates the Application: it configures logging, loads the selected
// profile and builds the HTTP client. The portal session is created on
// first use by Session, so commands that never talk to the portal work
// without credentials.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg, os.Stderr)

	profile, err := selectProfile(cfg)
	if err != nil {
		return nil, err
	}

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Bool("proxy", cfg.Proxy != "").
		Msg("HTTP client initialized")

	app := &Application{
		Config:     cfg,
		Logger:     &logger,
		HTTPClient: httpClient,
		Profile:    profile,
		startTime:  time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

// SetupLogging points the global zerolog logger at w and returns it. Info
// logs stay hidden unless -v or a config log level asks for them.
func SetupLogging(cfg *config.Config, w io.Writer) zerolog.Logger {
	var logLevel zerolog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "trace":
		logLevel = zerolog.TraceLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	// Treat "info" as non-verbose (don't display info logs unless -v is used)
	default:
		logLevel = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if cfg.JSONLog {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}

	log.Logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return log.Logger
}

// selectProfile loads the profile named in the config. Without a name the
// default profile is used if one exists.
func selectProfile(cfg *config.Config) (*auth.Profile, error) {
	if cfg.NoProfile {
		return nil, nil
	}

	name := cfg.Profile
	explicit := name != ""
	if !explicit {
		name = config.DefaultProfile
	}

	p, err := auth.LoadProfile(name)
	if err != nil {
		if !explicit && errors.Is(err, auth.ErrProfileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}

	log.Debug().Str("profile", p.Name).Str("school", p.School).Msg("Profile loaded")
	return p, nil
}

func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: transport,
	}, nil
}

// Credentials merges the profile with the config; config values win.
func (a *Application) Credentials() portal.Credentials {
	creds := portal.Credentials{UserType: portal.UserType(a.Config.UserTypeOr(config.DefaultUserType))}
	if p := a.Profile; p != nil {
		creds = portal.Credentials{
			School:   p.School,
			Username: p.Username,
			Password: p.Password,
			UserType: portal.UserType(a.Config.UserTypeOr(p.UserType)),
		}
	}
	if a.Config.School != "" {
		creds.School = a.Config.School
	}
	if a.Config.Username != "" {
		creds.Username = a.Config.Username
	}
	if a.Config.Password != "" {
		creds.Password = a.Config.Password
	}
	return creds
}

// BaseURL resolves the portal host: config, then profile, then the default.
func (a *Application) BaseURL() string {
	switch {
	case a.Config.BaseURL != "":
		return a.Config.BaseURL
	case a.Profile != nil && a.Profile.BaseURL != "":
		return a.Profile.BaseURL
	default:
		return portal.DefaultBaseURL
	}
}

// SessionOptions returns the portal options derived from the config. Profile
// cookies are only reused when the session targets the profile's account.
func (a *Application) SessionOptions(creds portal.Credentials) portal.Options {
	opts := portal.Options{
		BaseURL:   a.BaseURL(),
		UserAgent: a.Config.UserAgent,
		Headers:   a.Config.Headers,
	}
	if a.isProfileAccount(creds) {
		opts.Cookies = a.Profile.Cookies
	}
	return opts
}

func (a *Application) isProfileAccount(creds portal.Credentials) bool {
	p := a.Profile
	return p != nil && p.School == creds.School && p.Username == creds.Username
}

// Session returns the portal session, creating it on first use
func (a *Application) Session() (*portal.Session, error) {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	if a.session != nil {
		return a.session, nil
	}

	creds := a.Credentials()
	if creds.School == "" {
		return nil, fmt.Errorf("no school configured: use --school, %s or a saved profile (schoolsoft login)", config.EnvSchool)
	}
	if creds.Username == "" || creds.Password == "" {
		a.Logger.Warn().Msg("Username or password missing, login will fail if the session has expired")
	}

	s, err := portal.New(a.HTTPClient, creds, a.SessionOptions(creds))
	if err != nil {
		return nil, err
	}

	a.Logger.Debug().
		Str("school", s.School()).
		Str("base_url", s.BaseURL()).
		Msg("Portal session created")
	a.session = s
	a.ownsProfile = a.isProfileAccount(creds)
	return s, nil
}

// Close releases the HTTP client and writes refreshed session cookies back
// to the profile so the next run can skip the login.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	var err error
	a.sessionMu.Lock()
	s, owns := a.session, a.ownsProfile
	a.sessionMu.Unlock()

	if s != nil && owns {
		cookies := s.Cookies()
		if !maps.Equal(cookies, a.Profile.Cookies) {
			a.Profile.Cookies = cookies
			if err = auth.SaveProfile(a.Profile); err != nil {
				a.Logger.Warn().Err(err).Str("profile", a.Profile.Name).Msg("Failed to persist session cookies")
			} else {
				a.Logger.Debug().Str("profile", a.Profile.Name).Msg("Session cookies persisted")
			}
		}
	}

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
