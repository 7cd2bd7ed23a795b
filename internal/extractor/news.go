package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/schoolsoft/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	newsContainerSelector   = "#news_con_content"
	newsCategorySelector    = "h3"
	newsNameSelector        = `[id^="name"]`
	newsDescriptionSelector = `[id^="description"]`
	newsInfoSelector        = ".inner_right_info"
	newsLabelSelector       = ".label"
)

// Metadata labels as rendered by the portal
const (
	labelFrom        = "Från"
	labelTo          = "Till"
	labelPublished   = "Publicerad"
	labelAttachments = "Bifogade filer"
)

var newsItemIDPattern = regexp.MustCompile(`acc-item-(\d+)$`)

// FetchNews fetches the news feed. Items come in page order: category by
// category, items within a category in listing order. Collapsed items are
// completed with one detail fetch each, sequentially.
//
// Only fetch failures are returned; markup problems inside an item degrade
// that item's fields instead.
func FetchNews(ctx context.Context, f Fetcher) ([]models.NewsItem, error) {
	doc, err := fetchDocument(ctx, f, NewsPath, true)
	if err != nil {
		return nil, err
	}

	items := []models.NewsItem{}

	sections, err := ScanSections(doc.Find(newsContainerSelector).First(), newsCategorySelector)
	if err != nil {
		log.Debug().Err(err).Msg("News listing did not match the expected layout")
	}

	for _, section := range sections {
		children := section.Body.Children()
		for i := range children.Nodes {
			item, err := parseNewsItem(ctx, f, section.Heading, children.Eq(i))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	log.Debug().Int("items", len(items)).Int("categories", len(sections)).Msg("News parsed")
	return items, nil
}

func parseNewsItem(ctx context.Context, f Fetcher, category string, el *goquery.Selection) (models.NewsItem, error) {
	item := models.NewsItem{
		Category: category,
		ID:       ParseNewsID(el.AttrOr("id", "")),
	}
	logger := log.With().Int("news_id", item.ID).Str("category", category).Logger()

	switch {
	case el.Find(newsDescriptionSelector).Length() > 0:
	case item.ID == 0:
		// No id to ask for; keep what the listing shows
		logger.Debug().Msg("Collapsed news item without id, skipping detail fetch")
	default:
		logger.Debug().Msg("News item rendered collapsed, fetching details")
		doc, err := fetchDocument(ctx, f, NewsDetailPath(item.ID), true)
		if err != nil {
			return item, err
		}
		el = doc.Selection
	}

	item.Subject = strings.TrimSpace(el.Find(newsNameSelector).First().Text())

	if desc := el.Find(newsDescriptionSelector).First(); desc.Length() > 0 {
		body, err := desc.Html()
		if err != nil {
			logger.Debug().Err(err).Msg("Failed to render news body")
		}
		item.Body = strings.TrimSpace(despace(body))
	} else {
		logger.Debug().Msg("News item has no description")
	}

	applyNewsMetadata(&item, el.Find(newsInfoSelector).First(), logger)
	return item, nil
}

func applyNewsMetadata(item *models.NewsItem, info *goquery.Selection, logger zerolog.Logger) {
	fields, err := ScanLabels(info, newsLabelSelector)
	if err != nil {
		logger.Debug().Err(err).Msg("News metadata did not match the expected layout")
	}

	for _, field := range fields {
		switch field.Label {
		case labelFrom:
			item.From = field.Value.Text()
		case labelTo:
			item.To = strings.TrimSpace(despace(field.Value.Text()))
		case labelPublished:
			date, err := decodePublished(field)
			if err != nil {
				logger.Debug().Err(err).Msg("Failed to decode publish date")
				continue
			}
			item.Date = date
		case labelAttachments:
			// Only the first attachment is kept.
			a := field.Value.Find("a").First()
			if a.Length() == 0 {
				logger.Debug().Msg("Attachment field without link")
				continue
			}
			item.AttachmentURL = a.AttrOr("href", "")
			item.AttachmentName = a.AttrOr("title", "")
		}
	}
}

// ParseNewsID extracts the numeric id from an "acc-item-<id>" attribute.
// Anything else yields 0.
func ParseNewsID(attr string) int {
	m := newsItemIDPattern.FindStringSubmatch(attr)
	if m == nil {
		log.Debug().Str("attr", attr).Msg("News item id not recognized")
		return 0
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		log.Debug().Err(err).Str("attr", attr).Msg("News item id out of range")
		return 0
	}
	return id
}

// DecodeDate converts the portal's day, zero-based month and year into a
// calendar date.
func DecodeDate(day, month, year int) models.Date {
	return models.NewDate(year, time.Month(month+1), day)
}

// decodePublished reads day, month and year from the three elements after
// the published label's value.
func decodePublished(field LabeledField) (models.Date, error) {
	parts, err := field.Following(3)
	if err != nil {
		return models.Date{}, err
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part.Text()))
		if err != nil {
			return models.Date{}, err
		}
		nums[i] = n
	}
	return DecodeDate(nums[0], nums[1], nums[2]), nil
}
