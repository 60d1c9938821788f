package parse

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"concertscout/internal/models"
)

// IFCParser reads the IFC Center homepage schedule: one daily-schedule block
// per day, each listing films with their showtime links. Showtimes for the
// same film on the same day are grouped into one event.
type IFCParser struct{}

func (p *IFCParser) Parse(content string, now time.Time) ([]models.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var events []models.CanonicalEvent
	doc.Find("div.daily-schedule").Each(func(_ int, schedule *goquery.Selection) {
		dateText := strings.TrimSpace(schedule.Find("h3").First().Text())
		dt, err := time.Parse("Mon Jan 2", dateText)
		if err != nil {
			return
		}
		date := time.Date(now.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)

		schedule.Find("li").Each(func(_ int, li *goquery.Selection) {
			details := li.Find("div.details").First()
			if details.Length() == 0 {
				return
			}
			titleLink := details.Find("h3 a").First()
			if titleLink.Length() == 0 {
				return
			}
			title := strings.TrimSpace(titleLink.Text())

			var times []string
			var ticketLink string
			details.Find("ul.times li a").Each(func(_ int, a *goquery.Selection) {
				raw := strings.TrimSpace(a.Text())
				if raw == "" {
					return
				}
				times = append(times, raw)
				if ticketLink == "" {
					ticketLink, _ = a.Attr("href")
				}
			})
			if len(times) == 0 {
				return
			}

			events = append(events, models.CanonicalEvent{
				Artist:     title,
				Date:       isoDate(date),
				Times:      times,
				TicketLink: ticketLink,
			})
		})
	})

	return events, nil
}
