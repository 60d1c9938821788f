package parse

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"concertscout/internal/models"
)

// FilmForumParser reads Film Forum's Now Playing schedule. The page lays out
// one tab per day (tabs-0 is today), each holding film paragraphs with
// showtime spans. Showtimes are printed without AM/PM; anything before noon
// is an evening show except in the Film Forum Jr. matinee series.
type FilmForumParser struct{}

func (p *FilmForumParser) Parse(content string, now time.Time) ([]models.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	tabs := doc.Find("div#tabs div[id^=tabs-]")
	if tabs.Length() == 0 {
		return nil, errors.New("no schedule tabs in page")
	}

	type tab struct {
		index int
		sel   *goquery.Selection
	}
	var sorted []tab
	tabs.Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		n, err := strconv.Atoi(strings.TrimPrefix(id, "tabs-"))
		if err != nil {
			return
		}
		sorted = append(sorted, tab{index: n, sel: s})
	})
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].index < sorted[j].index })

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var events []models.CanonicalEvent

	for i, t := range sorted {
		date := today.AddDate(0, 0, i)
		t.sel.Find("p").Each(func(_ int, par *goquery.Selection) {
			filmLink := par.Find("strong a").First()
			if filmLink.Length() == 0 {
				return
			}
			title := strings.Join(strings.Fields(filmLink.Text()), " ")
			ticketLink, _ := filmLink.Attr("href")

			isJr := strings.EqualFold(strings.TrimSpace(par.Find("a").First().Text()), "FILM FORUM JR.")
			notes := strings.TrimSpace(par.Find("span.alert").First().Text())

			var times []string
			par.Find("span").Each(func(_ int, span *goquery.Selection) {
				if span.HasClass("alert") {
					return
				}
				raw := strings.TrimSpace(span.Text())
				if raw == "" {
					return
				}
				dt, err := time.Parse("3:04", raw)
				if err != nil {
					return
				}
				hour := dt.Hour()
				if !isJr && hour < 12 && hour != 0 {
					hour += 12
				}
				times = append(times, fmt.Sprintf("%02d:%02d", hour, dt.Minute()))
			})
			if len(times) == 0 {
				return
			}

			events = append(events, models.CanonicalEvent{
				Artist:       title,
				Date:         isoDate(date),
				Times:        times,
				TicketLink:   ticketLink,
				SpecialNotes: notes,
			})
		})
	}

	return events, nil
}
