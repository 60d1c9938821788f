package parse

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"concertscout/internal/models"
)

const lincolnAddress = "10 Lincoln Center Plaza, New York, NY 10023"

var filmLincRe = regexp.MustCompile(`(?s)var\s+FilmLinc\s*=\s*(\{.*?\});`)

// LincolnParser reads Film at Lincoln Center's schedule, which ships as a
// JSON blob assigned to a script variable. One screening per (film, date)
// pair is emitted with its showtimes consolidated.
type LincolnParser struct{}

func (p *LincolnParser) Parse(content string, now time.Time) ([]models.CanonicalEvent, error) {
	m := filmLincRe.FindStringSubmatch(content)
	if m == nil {
		return nil, errors.New("no FilmLinc payload in page")
	}

	var payload struct {
		Showings []struct {
			DisplayName string `json:"display_name"`
			EventDate   string `json:"event_date"`
			VenueName   string `json:"venue_name"`
			EventURL    string `json:"event_url"`
			Desc        string `json:"desc"`
		} `json:"showings"`
	}
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return nil, err
	}

	type key struct{ film, date string }
	byShowing := make(map[key]*models.CanonicalEvent)
	timeSets := make(map[key]map[string]struct{})
	var order []key

	for _, s := range payload.Showings {
		film := strings.TrimSpace(s.DisplayName)
		dt, err := time.Parse("2006-01-02 15:04:05", s.EventDate)
		if err != nil {
			continue
		}
		k := key{film: film, date: isoDate(dt)}

		ev, ok := byShowing[k]
		if !ok {
			ev = &models.CanonicalEvent{
				Artist:       film,
				Date:         k.date,
				Venue:        strings.TrimSpace(s.VenueName),
				Address:      lincolnAddress,
				TicketLink:   strings.TrimSpace(s.EventURL),
				SpecialNotes: strings.TrimSpace(s.Desc),
			}
			byShowing[k] = ev
			timeSets[k] = make(map[string]struct{})
			order = append(order, k)
		}
		timeSets[k][dt.Format("15:04")] = struct{}{}
	}

	events := make([]models.CanonicalEvent, 0, len(order))
	for _, k := range order {
		ev := byShowing[k]
		for t := range timeSets[k] {
			ev.Times = append(ev.Times, t)
		}
		sort.Strings(ev.Times)
		events = append(events, *ev)
	}
	return events, nil
}
