package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/law-makers/schoolsoft/internal/portal"
	"github.com/law-makers/schoolsoft/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lunchPage = `<html><body><table>
<tr>
  <td style="width: 20%">Måndag</td>
  <td style="word-wrap: break-word">Köttbullar med potatis<br>Vegetarisk lasagne</td>
</tr>
<tr>
  <td style="width: 20%">Tisdag</td>
  <td style="word-wrap: break-word">Fiskgratäng</td>
</tr>
<tr>
  <td style="width: 20%">Onsdag</td>
  <td style="word-wrap: break-word"></td>
</tr>
</table></body></html>`

func TestFetchLunchMenu(t *testing.T) {
	f := newFakeFetcher(map[string]string{LunchMenuPath: lunchPage})

	menu, err := FetchLunchMenu(context.Background(), f)
	require.NoError(t, err)

	want := []models.LunchDayMenu{
		{"Köttbullar med potatis", "Vegetarisk lasagne"},
		{"Fiskgratäng"},
		{""},
	}
	assert.Equal(t, want, menu)
	assert.Equal(t, []string{f.PageURL(LunchMenuPath)}, f.calls())
}

func TestFetchLunchMenu_NoCells(t *testing.T) {
	f := newFakeFetcher(map[string]string{LunchMenuPath: `<html><body><table><tr><td style="width: 20%">Måndag</td></tr></table></body></html>`})

	menu, err := FetchLunchMenu(context.Background(), f)
	require.NoError(t, err)
	assert.NotNil(t, menu)
	assert.Empty(t, menu)
}

func TestFetchLunchMenu_FetchError(t *testing.T) {
	f := newFakeFetcher(nil)
	f.errs[LunchMenuPath] = portal.NewError(portal.CodeTimeout, "request timed out", nil)

	menu, err := FetchLunchMenu(context.Background(), f)
	assert.Nil(t, menu)
	assert.True(t, errors.Is(err, portal.ErrTimeout))
}

func TestParseLunchMenu_IgnoresScript(t *testing.T) {
	doc, err := parseDocument(`<table><tr><td style="word-wrap: break-word">Soppa<script>var x = 1;</script><br>Bröd</td></tr></table>`, false)
	require.NoError(t, err)

	assert.Equal(t, []models.LunchDayMenu{{"Soppa", "Bröd"}}, ParseLunchMenu(doc))
}
