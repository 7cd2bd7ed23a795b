package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/law-makers/schoolsoft/internal/auth"
	"github.com/law-makers/schoolsoft/internal/config"
	"github.com/law-makers/schoolsoft/internal/portal"
	"github.com/law-makers/schoolsoft/internal/portal/portaltest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startPage = "/jsp/student/right_student_startpage.jsp"

// withProfileStore points the profile store at a fresh file backend
func withProfileStore(t *testing.T) {
	t.Helper()
	t.Setenv("CI", "true")
	t.Setenv("HOME", t.TempDir())
}

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:    "info",
		UserType:    config.UserTypeUnset,
		HTTPTimeout: 5 * time.Second,
		UserAgent:   config.DefaultUserAgent,
	}
}

func TestNew_NoProfile(t *testing.T) {
	withProfileStore(t)

	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Nil(t, a.Profile)
	assert.Equal(t, portal.DefaultBaseURL, a.BaseURL())

	_, err = a.Session()
	assert.Error(t, err, "no school configured")
	assert.NoError(t, a.Close(context.Background()))
}

func TestNew_MissingExplicitProfile(t *testing.T) {
	withProfileStore(t)

	cfg := testConfig()
	cfg.Profile = "finns-inte"
	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, auth.ErrProfileNotFound)
}

func TestCredentials_ConfigOverridesProfile(t *testing.T) {
	withProfileStore(t)
	require.NoError(t, auth.SaveProfile(&auth.Profile{
		Name: config.DefaultProfile, School: "skolan", Username: "elev", Password: "gammalt", UserType: 0,
		BaseURL: "https://sms14.schoolsoft.se",
	}))

	cfg := testConfig()
	cfg.Password = "nytt"
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, a.Profile)

	creds := a.Credentials()
	assert.Equal(t, portal.Credentials{School: "skolan", Username: "elev", Password: "nytt", UserType: portal.UserTypeTeacher}, creds)
	assert.Equal(t, "https://sms14.schoolsoft.se", a.BaseURL())

	cfg.UserType = 1
	assert.Equal(t, portal.UserTypeStudent, a.Credentials().UserType)
}

func TestSessionOptions_CookiesOnlyForProfileAccount(t *testing.T) {
	withProfileStore(t)
	require.NoError(t, auth.SaveProfile(&auth.Profile{
		Name: "skola", School: "skolan", Username: "elev", Cookies: map[string]string{"JSESSIONID": "x"},
	}))

	cfg := testConfig()
	cfg.Profile = "skola"
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"JSESSIONID": "x"}, a.SessionOptions(a.Credentials()).Cookies)

	other := a.Credentials()
	other.Username = "annan"
	assert.Nil(t, a.SessionOptions(other).Cookies)
}

func TestClose_PersistsRefreshedCookies(t *testing.T) {
	withProfileStore(t)
	srv := portaltest.NewServer("skolan", "elev", "hemligt")
	defer srv.Close()
	srv.Handle(startPage, "<html>ok</html>")

	require.NoError(t, auth.SaveProfile(&auth.Profile{
		Name: "skola", School: "skolan", Username: "elev", Password: "hemligt", UserType: 1,
		BaseURL: srv.BaseURL(), Cookies: map[string]string{portaltest.SessionCookie: "expired"},
	}))

	cfg := testConfig()
	cfg.Profile = "skola"
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	s, err := a.Session()
	require.NoError(t, err)
	same, err := a.Session()
	require.NoError(t, err)
	assert.Same(t, s, same)

	_, err = s.FetchAuthenticated(context.Background(), s.PageURL(startPage))
	require.NoError(t, err)
	require.NoError(t, a.Close(context.Background()))

	p, err := auth.LoadProfile("skola")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{portaltest.SessionCookie: srv.Token()}, p.Cookies)
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	cfg := testConfig()
	cfg.JSONLog = true
	cfg.LogLevel = "debug"

	logger := SetupLogging(cfg, &buf)
	logger.Debug().Str("school", "skolan").Msg("hello")

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Contains(t, buf.String(), `"school":"skolan"`)

	buf.Reset()
	cfg.LogLevel = "info"
	logger = SetupLogging(cfg, &buf)
	logger.Info().Msg("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}
