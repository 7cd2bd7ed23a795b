package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/law-makers/schoolsoft/internal/portal"
	"github.com/law-makers/schoolsoft/internal/portal/portaltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := portaltest.NewServer("skolan", "elev", "hemligt")
	defer srv.Close()
	srv.Handle(StartPagePath, "<html><body>Välkommen</body></html>")

	p, err := Login(context.Background(), LoginOptions{
		ProfileName: "skola",
		Credentials: portal.Credentials{School: "skolan", Username: "elev", Password: "hemligt", UserType: portal.UserTypeStudent},
		Session:     portal.Options{BaseURL: srv.BaseURL(), Cookies: map[string]string{"JSESSIONID": "stale"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "skola", p.Name)
	assert.Equal(t, srv.BaseURL(), p.BaseURL)
	assert.Equal(t, map[string]string{portaltest.SessionCookie: srv.Token()}, p.Cookies)
	require.Len(t, srv.Logins(), 1)
	assert.Empty(t, srv.Logins()[0].Cookies, "stale cookies are not sent")
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := portaltest.NewServer("skolan", "elev", "hemligt")
	defer srv.Close()
	srv.Handle(StartPagePath, "<html></html>")

	p, err := Login(context.Background(), LoginOptions{
		ProfileName: "skola",
		Credentials: portal.Credentials{School: "skolan", Username: "elev", Password: "fel", UserType: portal.UserTypeStudent},
		Session:     portal.Options{BaseURL: srv.BaseURL()},
	})
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, portal.ErrAuthFailure))
}

func TestLogin_RequiresName(t *testing.T) {
	_, err := Login(context.Background(), LoginOptions{})
	assert.Error(t, err)
}
