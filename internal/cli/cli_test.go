package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/schoolsoft/internal/auth"
	"github.com/law-makers/schoolsoft/internal/config"
	"github.com/law-makers/schoolsoft/internal/extractor"
	"github.com/law-makers/schoolsoft/internal/portal/portaltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command in-process. Flag values persist between
// runs, so every test passes the flags it depends on explicitly.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	outputPath, attachmentsDir, assumeYes = "", "", false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)

	cmd, err := rootCmd.ExecuteContextC(context.Background())
	if a := GetAppFromCmd(cmd); a != nil {
		require.NoError(t, a.Close(context.Background()))
	}
	return out.String(), err
}

func setupPortal(t *testing.T) *portaltest.Server {
	t.Helper()
	t.Setenv("CI", "true")
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvPassword, "hemligt")

	srv := portaltest.NewServer("skolan", "elev", "hemligt")
	t.Cleanup(srv.Close)
	return srv
}

func TestLunchCommand_JSON(t *testing.T) {
	srv := setupPortal(t)
	srv.Handle(extractor.LunchMenuPath, `<html><body><table><tr>
<td style="word-wrap: break-word">Köttbullar<br>Lasagne</td>
<td style="word-wrap: break-word">Fisk</td>
</tr></table></body></html>`)

	out, err := runCLI(t, "lunch", "--school", "skolan", "--username", "elev", "--base-url", srv.BaseURL(), "--json")
	require.NoError(t, err)

	var menu [][]string
	require.NoError(t, json.Unmarshal([]byte(out), &menu))
	assert.Equal(t, [][]string{{"Köttbullar", "Lasagne"}, {"Fisk"}}, menu)
}

func TestNewsCommand_CSV(t *testing.T) {
	srv := setupPortal(t)
	srv.Handle(extractor.NewsPath, `<html><body><div id="news_con_content">
<h3>Skolnyheter</h3>
<div><div id="acc-item-5"><div id="name_5">Lov</div><div id="description_5"><p>Ledigt</p></div></div></div>
</div></body></html>`)

	path := filepath.Join(t.TempDir(), "news.csv")
	out, err := runCLI(t, "news", "--school", "skolan", "--username", "elev", "--base-url", srv.BaseURL(), "--json=false", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 news items saved")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "5,Skolnyheter,,,,Lov,,,<p>Ledigt</p>")
}

func TestNewsCommand_UnsupportedFormat(t *testing.T) {
	srv := setupPortal(t)
	srv.Handle(extractor.NewsPath, `<html><body></body></html>`)

	_, err := runCLI(t, "news", "--school", "skolan", "--username", "elev", "--base-url", srv.BaseURL(), "--json=false", "-o", "news.xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestLoginAndProfiles(t *testing.T) {
	srv := setupPortal(t)
	srv.Handle(auth.StartPagePath, "<html>Välkommen</html>")

	_, err := runCLI(t, "login", "--profile", "skola", "--school", "skolan", "--username", "elev", "--base-url", srv.BaseURL(), "--json=false")
	require.NoError(t, err)

	p, err := auth.LoadProfile("skola")
	require.NoError(t, err)
	assert.Equal(t, "skolan", p.School)
	assert.Equal(t, srv.Token(), p.Cookies[portaltest.SessionCookie])

	out, err := runCLI(t, "profiles", "list", "--profile", "skola", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "skola")

	_, err = runCLI(t, "profiles", "delete", "skola", "--yes", "--profile", "skola", "--json=false")
	require.NoError(t, err)
	_, err = auth.LoadProfile("skola")
	assert.ErrorIs(t, err, auth.ErrProfileNotFound)
}

func TestLoginCommand_WrongPassword(t *testing.T) {
	srv := setupPortal(t)
	t.Setenv(config.EnvPassword, "fel")
	srv.Handle(auth.StartPagePath, "<html></html>")

	_, err := runCLI(t, "login", "--profile", "skola", "--school", "skolan", "--username", "elev", "--base-url", srv.BaseURL(), "--json=false")
	assert.ErrorContains(t, err, "login rejected")

	_, err = auth.LoadProfile("skola")
	assert.ErrorIs(t, err, auth.ErrProfileNotFound)
}
