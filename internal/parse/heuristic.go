package parse

import (
	"regexp"
	"strings"
	"time"

	"concertscout/internal/models"
)

var (
	// "February 11 – 16", "February 25 - March 2", optionally behind a
	// heading marker.
	rangeHeaderRe = regexp.MustCompile(`(?i)^#{0,6}\s*([A-Z][a-z]+\.?\s+\d{1,2}(?:\s*[-–—]\s*(?:[A-Z][a-z]+\.?\s+)?\d{1,2})?)\s*$`)
	boldArtistRe  = regexp.MustCompile(`^\*\*(.+?)\*\*`)
	headingRe     = regexp.MustCompile(`^#{1,6}\s+([^#].*)$`)
	ticketLinkRe  = regexp.MustCompile(`(?i)\[[^\]]*ticket[^\]]*\]\((https?://[^)\s]+)\)`)
	clockRe       = regexp.MustCompile(`\b(\d{1,2}:\d{2}(?:\s*[AP]M)?)\b`)
	blockquoteRe  = regexp.MustCompile(`^>\s*(.+)$`)
	placeholderRe = regexp.MustCompile(`(?i)^(TBA|TBD)$`)
)

// Heuristic is the regex fallback behind the LLM parser: a line-by-line scan
// for date-range headers, bold or heading-level artist names, markdown
// ticket links, and blockquote notes. Deliberately lower recall and higher
// precision than the model, so a model failure degrades instead of losing
// the venue's run entirely.
func Heuristic(text string, hint models.VenueConfig, now time.Time) []models.CanonicalEvent {
	var events []models.CanonicalEvent

	var dates []time.Time
	var artist, ticketLink string
	var notes, times []string

	flush := func() {
		defer func() { artist, ticketLink = "", ""; notes, times = nil, nil }()
		name := strings.TrimSpace(artist)
		if name == "" || placeholderRe.MatchString(name) || len(dates) == 0 {
			return
		}
		eventTimes := times
		if len(eventTimes) == 0 {
			eventTimes = hint.DefaultTimes
		}
		for _, d := range dates {
			events = append(events, models.CanonicalEvent{
				Artist:       name,
				Date:         isoDate(d),
				Times:        append([]string(nil), eventTimes...),
				Venue:        hint.Name,
				TicketLink:   ticketLink,
				SpecialNotes: strings.Join(notes, " "),
			})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := rangeHeaderRe.FindStringSubmatch(line); m != nil {
			if start, end, err := parseDateRange(m[1], now.Year()); err == nil {
				flush()
				dates = dateSpan(start, end)
				continue
			}
		}

		if m := ticketLinkRe.FindStringSubmatch(line); m != nil {
			if ticketLink == "" {
				ticketLink = m[1]
			}
			continue
		}
		if m := blockquoteRe.FindStringSubmatch(line); m != nil {
			notes = append(notes, strings.TrimSpace(m[1]))
			continue
		}

		if m := boldArtistRe.FindStringSubmatch(line); m != nil {
			flush()
			artist = m[1]
			times = append(times, clockRe.FindAllString(line, -1)...)
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			artist = m[1]
			continue
		}

		times = append(times, clockRe.FindAllString(line, -1)...)
	}
	flush()

	return events
}
