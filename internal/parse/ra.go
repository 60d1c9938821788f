package parse

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"concertscout/internal/models"
)

// RAParser extracts events from the RA listing platform. RA ships its data
// as a Next.js Apollo cache embedded in a script tag, so this parses JSON,
// not markup: events reference artist and venue objects by cache key, and
// the parser dereferences them within the same payload. A dangling reference
// resolves to an empty string, never an error.
type RAParser struct{}

func (p *RAParser) Parse(content string, now time.Time) ([]models.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil, errors.New("no __NEXT_DATA__ payload in page")
	}

	var payload struct {
		Props struct {
			ApolloState map[string]map[string]any `json:"apolloState"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}

	state := payload.Props.ApolloState
	var events []models.CanonicalEvent

	for key, obj := range state {
		if !strings.HasPrefix(key, "Event:") || str(obj["__typename"]) != "Event" {
			continue
		}

		date := str(obj["date"])
		if len(date) > 10 {
			date = date[:10]
		}

		var times []string
		if t := raTime(str(obj["startTime"])); t != "" {
			times = []string{t}
		}

		var artists []string
		if refs, ok := obj["artists"].([]any); ok {
			for _, r := range refs {
				if name := str(deref(state, r)["name"]); name != "" {
					artists = append(artists, name)
				}
			}
		}

		venueObj := deref(state, obj["venue"])
		events = append(events, models.CanonicalEvent{
			Artist:     strings.Join(artists, ", "),
			Date:       date,
			Times:      times,
			Venue:      str(venueObj["name"]),
			Address:    str(venueObj["address"]),
			TicketLink: "https://ra.co" + str(obj["contentUrl"]),
		})
	}

	return events, nil
}

// deref follows an Apollo {"__ref": "Artist:123"} pointer into the cache.
// Missing or malformed references yield an empty object.
func deref(state map[string]map[string]any, ref any) map[string]any {
	obj, ok := ref.(map[string]any)
	if !ok {
		return nil
	}
	key, ok := obj["__ref"].(string)
	if !ok {
		return nil
	}
	return state[key]
}

// raTime converts RA's ISO start time to "HH:MM", falling back to a raw
// substring when the timestamp does not parse cleanly.
func raTime(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if dt, err := time.Parse(layout, iso); err == nil {
			return dt.Format("15:04")
		}
	}
	if len(iso) >= 16 {
		return iso[11:16]
	}
	return ""
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
