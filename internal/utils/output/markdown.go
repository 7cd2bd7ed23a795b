package output

import (
	"fmt"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/schoolsoft/internal/utils/url"
	"github.com/law-makers/schoolsoft/pkg/models"
)

// newConverter returns a GitHub-flavored converter that resolves relative
// links against pageURL
func newConverter(pageURL string) *md.Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			href, exists := selec.Attr("href")
			if !exists {
				return nil
			}

			resolved := urlutil.ResolveURL(pageURL, href)
			title, hasTitle := selec.Attr("title")
			var titlePart string
			if hasTitle {
				titlePart = fmt.Sprintf(" %q", title)
			}
			str := fmt.Sprintf("[%s](%s%s)", strings.TrimSpace(selec.Text()), resolved, titlePart)
			return &str
		},
	})
	return converter
}

// WriteNewsMarkdown renders the news feed as one Markdown document with a
// section per category. pageURL is the URL the feed was fetched from; links
// in bodies and attachments are resolved against it.
func WriteNewsMarkdown(w io.Writer, items []models.NewsItem, pageURL string) error {
	converter := newConverter(pageURL)

	var sb strings.Builder
	sb.WriteString("# Nyheter\n")

	category := ""
	for i, item := range items {
		if i == 0 || item.Category != category {
			category = item.Category
			fmt.Fprintf(&sb, "\n## %s\n", category)
		}

		fmt.Fprintf(&sb, "\n### %s\n\n", item.Subject)

		var meta []string
		if item.From != "" {
			meta = append(meta, "Från: "+item.From)
		}
		if item.To != "" {
			meta = append(meta, "Till: "+item.To)
		}
		if !item.Date.IsZero() {
			meta = append(meta, "Publicerad: "+item.Date.String())
		}
		if len(meta) > 0 {
			fmt.Fprintf(&sb, "_%s_\n\n", strings.Join(meta, " | "))
		}

		if item.Body != "" {
			cleaned, err := CleanHTML(item.Body)
			if err != nil {
				return fmt.Errorf("news %d: %w", item.ID, err)
			}
			body, err := converter.ConvertString(cleaned)
			if err != nil {
				return fmt.Errorf("news %d: %w", item.ID, err)
			}
			sb.WriteString(strings.TrimSpace(body))
			sb.WriteString("\n\n")
		}

		if item.HasAttachment() {
			name := item.AttachmentName
			if name == "" {
				name = item.AttachmentURL
			}
			fmt.Fprintf(&sb, "Bifogad fil: [%s](%s)\n", name, urlutil.ResolveURL(pageURL, item.AttachmentURL))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// SaveNewsMarkdown writes the news feed as Markdown to filepath
func SaveNewsMarkdown(items []models.NewsItem, pageURL, filepath string) error {
	return saveWith(filepath, func(w io.Writer) error { return WriteNewsMarkdown(w, items, pageURL) })
}
