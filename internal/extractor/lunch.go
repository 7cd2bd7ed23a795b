package extractor

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/schoolsoft/pkg/models"
	"github.com/rs/zerolog/log"
)

const lunchCellSelector = `td[style="word-wrap: break-word"]`

// FetchLunchMenu fetches the week's lunch menu. Each entry holds one day's
// dishes in page order.
func FetchLunchMenu(ctx context.Context, f Fetcher) ([]models.LunchDayMenu, error) {
	doc, err := fetchDocument(ctx, f, LunchMenuPath, false)
	if err != nil {
		return nil, err
	}
	return ParseLunchMenu(doc), nil
}

// ParseLunchMenu extracts the menu from a lunch page
func ParseLunchMenu(doc *goquery.Document) []models.LunchDayMenu {
	menu := []models.LunchDayMenu{}
	doc.Find(lunchCellSelector).Each(func(_ int, td *goquery.Selection) {
		menu = append(menu, textLines(td))
	})

	log.Debug().Int("days", len(menu)).Msg("Lunch menu parsed")
	return menu
}
