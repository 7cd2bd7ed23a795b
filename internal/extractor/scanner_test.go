package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSections(t *testing.T) {
	doc, err := parseDocument(`<div id="c">
<h3> Först </h3><ul><li>a</li></ul>
<h3>Sist</h3>
</div>`, false)
	require.NoError(t, err)

	sections, err := ScanSections(doc.Find("#c"), "h3")

	var drift *MarkupDriftError
	require.True(t, errors.As(err, &drift))
	assert.Equal(t, "sections", drift.Where)

	require.Len(t, sections, 1)
	assert.Equal(t, "Först", sections[0].Heading)
	assert.Equal(t, "a", sections[0].Body.Text())
}

func TestScanSections_NestedHeadingsIgnored(t *testing.T) {
	doc, err := parseDocument(`<div id="c">
<h3>Kategori</h3><div><div><h3>Rubrik i text</h3><p>stycke</p></div></div>
</div>`, false)
	require.NoError(t, err)

	sections, err := ScanSections(doc.Find("#c"), "h3")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Kategori", sections[0].Heading)
}

func TestScanSections_MissingContainer(t *testing.T) {
	doc, err := parseDocument(`<p>tomt</p>`, false)
	require.NoError(t, err)

	sections, err := ScanSections(doc.Find("#c"), "h3")
	assert.Nil(t, sections)
	assert.Error(t, err)
}

func TestScanLabels(t *testing.T) {
	doc, err := parseDocument(`<div class="info">
<span class="label"> Från </span><span>Anna</span>
<span class="label">Publicerad</span><span>idag</span><span>1</span><span>2</span>
</div>`, false)
	require.NoError(t, err)

	fields, err := ScanLabels(doc.Find(".info"), ".label")
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "Från", fields[0].Label)
	assert.Equal(t, "Anna", fields[0].Value.Text())

	parts, err := fields[1].Following(2)
	require.NoError(t, err)
	assert.Equal(t, "1", parts[0].Text())
	assert.Equal(t, "2", parts[1].Text())

	_, err = fields[1].Following(3)
	var drift *MarkupDriftError
	require.True(t, errors.As(err, &drift))
	assert.Contains(t, drift.Error(), "found 2")
}

func TestScanLabels_TrailingColon(t *testing.T) {
	doc, err := parseDocument(`<div class="info"><span class="label"> Från: </span><span>Anna</span></div>`, false)
	require.NoError(t, err)

	fields, err := ScanLabels(doc.Find(".info"), ".label")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Från", fields[0].Label)
}

func TestScanLabels_LabelWithoutValue(t *testing.T) {
	doc, err := parseDocument(`<div class="info"><span class="label">Till</span></div>`, false)
	require.NoError(t, err)

	fields, err := ScanLabels(doc.Find(".info"), ".label")
	assert.Empty(t, fields)
	assert.Error(t, err)
}

func TestTextLines(t *testing.T) {
	doc, err := parseDocument(`<div id="x">a<br>b<br/><i>c</i><style>p{}</style></div><div id="y"></div>`, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, textLines(doc.Find("#x")))
	assert.Equal(t, []string{""}, textLines(doc.Find("#y")))
}
