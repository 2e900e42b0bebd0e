package client

import (
	"context"
	"strings"
	"time"

	"github.com/Dongwon38/wpyvr-sub000/pkg/htmltext"
)

// Event is the normalized event view model. IsPast is derived from the
// client clock at normalization time and is not a backend field, so two
// reads of the same payload may disagree.
type Event struct {
	ID            int64  `json:"id"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Excerpt       string `json:"excerpt"`
	Content       string `json:"content"`
	Date          string `json:"date"`
	EventDate     string `json:"event_date"`
	Time          string `json:"time,omitempty"`
	Location      string `json:"location,omitempty"`
	Link          string `json:"link,omitempty"`
	IsPast        bool   `json:"is_past"`
	FeaturedImage string `json:"featured_image,omitempty"`
}

var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
	"2006/01/02",
}

var eventTimeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 pm",
	"3:04pm",
	"3 pm",
	"3pm",
}

// eventInstant resolves the moment an event is considered to have passed.
// A date without a usable time counts as past once that whole day is over.
func eventInstant(date, clock string, loc *time.Location) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	var day time.Time
	var parsed bool
	for _, layout := range eventDateLayouts {
		t, err := time.ParseInLocation(layout, date, loc)
		if err == nil {
			day, parsed = t, true
			if layout == time.RFC3339 || strings.Contains(layout, "15") {
				return t, true
			}
			break
		}
	}
	if !parsed {
		return time.Time{}, false
	}

	clock = strings.ToLower(strings.TrimSpace(clock))
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), true
		}
	}
	return day.AddDate(0, 0, 1), true
}

func (c *Client) normalizeEvent(r rawRecord) Event {
	id := r.intOr(0, "id")
	acf := r.obj("acf")
	meta := r.obj("meta")

	eventDate := firstNonEmpty(r.str("event_date"), acf.str("event_date"), meta.str("event_date"))
	eventTime := firstNonEmpty(r.str("event_time", "time"), acf.str("event_time", "time"), meta.str("event_time"))

	now := c.now()
	ev := Event{
		ID:            id,
		Slug:          effectiveSlug(r.str("slug"), id),
		Title:         htmltext.Title(r.rendered("title")),
		Excerpt:       htmltext.PlainText(r.rendered("excerpt")),
		Content:       c.content(r.rendered("content")),
		Date:          r.str("date"),
		EventDate:     eventDate,
		Time:          eventTime,
		Location:      htmltext.Title(firstNonEmpty(r.str("location", "event_location"), acf.str("location", "event_location"), meta.str("event_location"))),
		Link:          firstNonEmpty(r.str("event_link"), acf.str("event_link", "link"), meta.str("event_link"), r.str("link")),
		FeaturedImage: r.featuredImage(),
	}
	if at, ok := eventInstant(eventDate, eventTime, now.Location()); ok {
		ev.IsPast = !now.Before(at)
	}
	return ev
}

// FetchEvents lists events. Failures degrade to an empty slice.
func (c *Client) FetchEvents(ctx context.Context, p ListParams) []Event {
	target := buildURL(c.baseURL, c.endpoints.Events, p.query(true))
	records := c.readList(ctx, "events", target, CacheShort)
	events := make([]Event, 0, len(records))
	for _, r := range records {
		events = append(events, c.normalizeEvent(r))
	}
	return events
}

// FetchEventBySlug returns one event, or nil.
func (c *Client) FetchEventBySlug(ctx context.Context, slug string) *Event {
	r := c.readBySlug(ctx, "events", c.baseURL, c.endpoints.Events, slug, CacheShort, true)
	if r == nil {
		return nil
	}
	ev := c.normalizeEvent(r)
	return &ev
}
