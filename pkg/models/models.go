package models

import (
	"encoding/json"
	"time"
)

// NewsItem is one entry of the portal's news feed
type NewsItem struct {
	ID             int    `json:"id"`
	Subject        string `json:"subject"`
	// Body is the description element's inner HTML as re-rendered by the
	// HTML parser: equivalent markup, but quotes in text come out as
	// entities (&#39;, &#34;) and entities are not byte-identical to the page.
	Body           string `json:"body"`
	Category       string `json:"category"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	Date           Date   `json:"date"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
}

// HasAttachment reports whether an attachment field was present
func (n NewsItem) HasAttachment() bool {
	return n.AttachmentURL != ""
}

// Lines is the ordered free-text content of one calendar slot: a lunch
// day's dishes or one schedule event.
type Lines []string

// LunchDayMenu holds the dishes served on one day
type LunchDayMenu = Lines

// ScheduleEntry holds the text lines of one schedule event
type ScheduleEntry = Lines

// Date is a calendar date without a time of day. The zero value means the
// date could not be determined and marshals to JSON null.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, normalizing out-of-range values the way time.Date does
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns the date at midnight in loc
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// String formats the date as YYYY-MM-DD, or "" when unset
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time(time.UTC).Format(time.DateOnly)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return err
	}
	*d = Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	return nil
}
