package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const strippedElements = "script, style, link, meta, noscript, iframe, object, embed, svg, form, input, button, select, textarea, canvas"

// attributes kept per element; everything else loses all attributes
var keptAttributes = map[string]map[string]bool{
	"a":   {"href": true, "title": true},
	"img": {"src": true, "alt": true, "title": true},
}

// CleanHTML strips a news body down to markup the Markdown converter can
// render. Scripts, embeds and form controls are dropped, and only link and
// image targets keep their attributes.
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find(strippedElements).Remove()

	for _, node := range doc.Find("*").Nodes {
		allowed := keptAttributes[node.Data]
		var attrs []html.Attribute
		for _, attr := range node.Attr {
			if allowed[attr.Key] {
				attrs = append(attrs, attr)
			}
		}
		node.Attr = attrs
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body), nil
}
