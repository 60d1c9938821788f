package parse

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"concertscout/internal/models"
)

// QuadParser reads Quad Cinema's Now Playing grid. Each day block carries
// its day-of-month in a "date-N" class; the precise date is preferred from
// the first showtime's ticket-link query string when present.
type QuadParser struct{}

func (p *QuadParser) Parse(content string, now time.Time) ([]models.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var events []models.CanonicalEvent
	doc.Find("div.day-wrap").Each(func(_ int, day *goquery.Selection) {
		fallbackDate := quadFallbackDate(day, now)

		day.Find("div.grid-item").Each(func(_ int, item *goquery.Selection) {
			title := strings.TrimSpace(item.Find("h4 a").First().Text())
			if title == "" {
				return
			}

			var times []string
			var ticketLink string
			item.Find("ul.showtimes-list li a").Each(func(_ int, a *goquery.Selection) {
				raw := strings.ReplaceAll(strings.TrimSpace(a.Text()), ".", ":")
				if dt, err := time.Parse("3:04pm", strings.ToLower(raw)); err == nil {
					times = append(times, dt.Format("15:04"))
				} else {
					times = append(times, raw)
				}
				if ticketLink == "" {
					ticketLink, _ = a.Attr("href")
				}
			})
			if len(times) == 0 {
				return
			}

			date := fallbackDate
			if ticketLink != "" {
				if u, err := url.Parse(ticketLink); err == nil {
					if d := u.Query().Get("date"); d != "" {
						date = d
					}
				}
			}

			events = append(events, models.CanonicalEvent{
				Artist:       title,
				Date:         date,
				Times:        times,
				TicketLink:   ticketLink,
				SpecialNotes: strings.TrimSpace(item.Find("div.now-appearance").First().Text()),
			})
		})
	})

	return events, nil
}

func quadFallbackDate(day *goquery.Selection, now time.Time) string {
	classes, _ := day.Attr("class")
	for _, cls := range strings.Fields(classes) {
		if !strings.HasPrefix(cls, "date-") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(cls, "date-")); err == nil {
			return fmt.Sprintf("%d-%02d-%02d", now.Year(), now.Month(), n)
		}
	}
	return ""
}
