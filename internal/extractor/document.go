// Package extractor turns portal pages into records. Extractors are
// stateless: every call fetches through the supplied Fetcher and parses
// the result from scratch.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/schoolsoft/internal/portal"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Portal pages, relative to the school root
const (
	LunchMenuPath = "/jsp/student/right_student_lunchmenu.jsp?menu=lunchmenu"
	SchedulePath  = "/jsp/student/right_student_schedule.jsp?menu=schedule"
	NewsPath      = "/jsp/student/right_student_news.jsp?menu=news"

	newsDetailPath = "/jsp/student/right_student_news_ajax.jsp?requestid=%d"
)

// lineSeparator joins text segments before splitting them into lines again,
// so a segment containing the separator text is split as well.
const lineSeparator = "<br/>"

// Fetcher is the part of a portal session the extractors depend on.
// *portal.Session implements it.
type Fetcher interface {
	FetchAuthenticated(ctx context.Context, rawURL string) (*portal.FetchResult, error)
	PageURL(path string) string
}

// NewsDetailPath returns the detail endpoint for a collapsed news item
func NewsDetailPath(id int) string {
	return fmt.Sprintf(newsDetailPath, id)
}

// fetchDocument fetches a page through f and parses it. When normalize is
// set the raw text is NFKC-normalized before parsing.
func fetchDocument(ctx context.Context, f Fetcher, path string, normalize bool) (*goquery.Document, error) {
	res, err := f.FetchAuthenticated(ctx, f.PageURL(path))
	if err != nil {
		return nil, err
	}
	return parseDocument(res.Body, normalize)
}

func parseDocument(body string, normalize bool) (*goquery.Document, error) {
	if normalize {
		body = norm.NFKC.String(body)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// textLines returns the text below sel split into lines. Every text node is
// one segment; elements such as <br> only separate segments. Script and
// style contents are skipped.
func textLines(sel *goquery.Selection) []string {
	var segments []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			segments = append(segments, n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	return strings.Split(strings.Join(segments, lineSeparator), lineSeparator)
}

// despace converts no-break spaces to plain spaces
func despace(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}
