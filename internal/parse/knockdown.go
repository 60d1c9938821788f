package parse

import (
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"concertscout/internal/models"
)

// KnockdownParser reads the Knockdown Center's upcoming-events grid. Listing
// dates omit the year; a date that would land in the past rolls forward to
// next year, since the page only shows future events.
type KnockdownParser struct{}

func (p *KnockdownParser) Parse(content string, now time.Time) ([]models.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	list := doc.Find("article#upcoming ul").First()
	if list.Length() == 0 {
		return nil, errors.New("no upcoming events list in page")
	}

	var events []models.CanonicalEvent
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		titleDiv := li.Find("div.eg-kdc2018-element-0-a").First()
		artist := strings.TrimSpace(titleDiv.Text())
		dateStr := strings.TrimSpace(li.Find("div.eg-kdc2018-element-26 p").First().Text())

		// "Fri Feb 21" style.
		dt, err := time.Parse("Mon Jan 2", dateStr)
		if err != nil {
			return
		}
		date := time.Date(now.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)
		if date.Before(now.Truncate(24 * time.Hour)) {
			date = date.AddDate(1, 0, 0)
		}

		ticketLink, _ := li.Find("div.eg-kdc2018-element-25-a a").First().Attr("href")
		if ticketLink == "" {
			ticketLink, _ = titleDiv.Find("a").First().Attr("href")
		}

		events = append(events, models.CanonicalEvent{
			Artist:     artist,
			Date:       isoDate(date),
			Times:      []string{"10:00 PM"},
			TicketLink: ticketLink,
		})
	})

	return events, nil
}
