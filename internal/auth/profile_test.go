package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func useFileBackend(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CI", "true")
	fileBasedStorageCache = nil
	t.Cleanup(func() { fileBasedStorageCache = nil })
	return home
}

func useKeyringBackend(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("CI", "")
	t.Setenv("CODESPACES", "")
	fileBasedStorageCache = nil
	t.Cleanup(func() { fileBasedStorageCache = nil })
}

func sampleProfile(name string) *Profile {
	return &Profile{
		Name:     name,
		School:   "skolan",
		Username: "elev",
		Password: "hemligt",
		UserType: 1,
		Cookies:  map[string]string{"JSESSIONID": "abc"},
	}
}

func TestFileBackend_RoundTrip(t *testing.T) {
	home := useFileBackend(t)

	require.NoError(t, SaveProfileWithManifest(sampleProfile("skola")))

	info, err := os.Stat(filepath.Join(home, FallbackDir, "skola.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	p, err := LoadProfile("skola")
	require.NoError(t, err)
	assert.Equal(t, "elev", p.Username)
	assert.Equal(t, "hemligt", p.Password)
	assert.Equal(t, map[string]string{"JSESSIONID": "abc"}, p.Cookies)
	assert.False(t, p.CreatedAt.IsZero())

	require.NoError(t, SaveProfile(sampleProfile("annan")))
	names, err := ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"annan", "skola"}, names)

	require.NoError(t, DeleteProfileWithManifest("skola"))
	_, err = LoadProfile("skola")
	assert.True(t, errors.Is(err, ErrProfileNotFound))

	// deleting twice is fine on the file backend
	assert.NoError(t, DeleteProfile("skola"))
}

func TestFileBackend_ResaveKeepsCreatedAt(t *testing.T) {
	useFileBackend(t)

	p := sampleProfile("skola")
	require.NoError(t, SaveProfile(p))
	created := p.CreatedAt

	loaded, err := LoadProfile("skola")
	require.NoError(t, err)
	loaded.Cookies = map[string]string{"JSESSIONID": "def"}
	require.NoError(t, SaveProfile(loaded))

	again, err := LoadProfile("skola")
	require.NoError(t, err)
	assert.True(t, created.Equal(again.CreatedAt))
	assert.Equal(t, "def", again.Cookies["JSESSIONID"])
}

func TestKeyringBackend_Manifest(t *testing.T) {
	useKeyringBackend(t)

	require.NoError(t, SaveProfileWithManifest(sampleProfile("b")))
	require.NoError(t, SaveProfileWithManifest(sampleProfile("a")))
	require.NoError(t, SaveProfileWithManifest(sampleProfile("a")))

	names, err := ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	p, err := LoadProfile("b")
	require.NoError(t, err)
	assert.Equal(t, "skolan", p.School)

	require.NoError(t, DeleteProfileWithManifest("a"))
	names, err = ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	_, err = LoadProfile("a")
	assert.True(t, errors.Is(err, ErrProfileNotFound))
}

func TestProfileNames(t *testing.T) {
	useFileBackend(t)

	for _, bad := range []string{"", "../x", `a\b`, manifestKey, ".."} {
		assert.Error(t, SaveProfile(sampleProfile(bad)), "name %q", bad)
		_, err := LoadProfile(bad)
		assert.Error(t, err, "name %q", bad)
	}
}
