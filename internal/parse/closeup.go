package parse

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"concertscout/internal/models"
)

// CloseUpParser reads Close Up's calendar widget, which renders event cards
// with a consistent vp-* class scheme. Dates carry no year, so the current
// year is assumed.
type CloseUpParser struct{}

func (p *CloseUpParser) Parse(content string, now time.Time) ([]models.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var events []models.CanonicalEvent
	doc.Find("div.vp-event-card").Each(func(_ int, card *goquery.Selection) {
		artist := strings.TrimSpace(card.Find("div.vp-event-name").First().Text())
		dateStr := strings.TrimSpace(card.Find("span.vp-date").First().Text())
		timeStr := strings.TrimSpace(card.Find("span.vp-time").First().Text())
		ticketLink, _ := card.Find("a.vp-event-link").First().Attr("href")

		// "Fri Feb 21" style, year implied.
		dt, err := time.Parse("Mon Jan 2", dateStr)
		if err != nil {
			return
		}
		date := time.Date(now.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)

		var times []string
		if timeStr != "" {
			times = []string{timeStr}
		}
		events = append(events, models.CanonicalEvent{
			Artist:     artist,
			Date:       isoDate(date),
			Times:      times,
			TicketLink: ticketLink,
		})
	})

	return events, nil
}
