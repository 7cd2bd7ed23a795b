package extractor

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/schoolsoft/pkg/models"
	"github.com/rs/zerolog/log"
)

// FetchSchedule fetches the logged-in user's schedule.
//
// Entries come in page order, which is not guaranteed to group or sort them
// by weekday.
func FetchSchedule(ctx context.Context, f Fetcher) ([]models.ScheduleEntry, error) {
	doc, err := fetchDocument(ctx, f, SchedulePath, false)
	if err != nil {
		return nil, err
	}
	return ParseSchedule(doc), nil
}

// ParseSchedule extracts schedule events from a schedule page
func ParseSchedule(doc *goquery.Document) []models.ScheduleEntry {
	schedule := []models.ScheduleEntry{}
	doc.Find("a.schedule").Each(func(i int, a *goquery.Selection) {
		info := a.Find("span").First()
		if info.Length() == 0 {
			log.Debug().Int("index", i).Msg("Schedule anchor without span, skipping")
			return
		}
		schedule = append(schedule, textLines(info))
	})

	log.Debug().Int("events", len(schedule)).Msg("Schedule parsed")
	return schedule
}
