package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"concertscout/internal/models"
)

const (
	vanguardName    = "Village Vanguard"
	vanguardAddress = "178 7th Avenue South, New York, NY 10014, United States"
)

var (
	vanguardTimes = []string{"8:00 PM", "10:00 PM"}
	yearRe        = regexp.MustCompile(`(\d{4})`)
	leadingDashRe = regexp.MustCompile(`^[-–—\s]+`)
	leadingWithRe = regexp.MustCompile(`(?i)^with\s+`)
	containsDigit = regexp.MustCompile(`\d`)
)

// VanguardParser reads the Village Vanguard's event listings. The page mixes
// three listing shapes: weekly residencies tagged "Every <Weekday>", a
// "COMING SOON!" umbrella block holding several artist/date-range sub-entries,
// and plain single-run listings with a date-range header.
type VanguardParser struct{}

func (p *VanguardParser) Parse(content string, now time.Time) ([]models.CanonicalEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	year := vanguardYear(doc, now)
	var events []models.CanonicalEvent

	doc.Find("div.event-listing").Each(func(_ int, listing *goquery.Selection) {
		title := strings.TrimSpace(listing.Find("h2").First().Text())
		if title == "" {
			return
		}

		ticketLink, _ := listing.Find("a.btn.btn-primary").First().Attr("href")

		tagline := strings.TrimSpace(listing.Find("h3.event-tagline").First().Text())
		if wd, ok := recurringWeekday(tagline); ok {
			notes := bandMembers(listing.Find("div.event-short-description"))
			for _, d := range weekdayOccurrences(wd, now) {
				events = append(events, vanguardEvent(title, d, ticketLink, notes))
			}
			return
		}

		if strings.EqualFold(title, "COMING SOON!") {
			events = append(events, p.comingSoon(listing, ticketLink, year)...)
			return
		}

		// Plain listing: the first non-tagline h3 containing a digit is the
		// date-range header.
		var rangeText string
		listing.Find("h3").EachWithBreak(func(_ int, h3 *goquery.Selection) bool {
			if h3.HasClass("event-tagline") {
				return true
			}
			text := strings.TrimSpace(h3.Text())
			if containsDigit.MatchString(text) {
				rangeText = text
				return false
			}
			return true
		})
		if rangeText == "" {
			return
		}
		start, end, err := parseDateRange(rangeText, year)
		if err != nil {
			return
		}
		notes := bandMembers(listing.Find("div.event-short-description"))
		for _, d := range dateSpan(start, end) {
			events = append(events, vanguardEvent(title, d, ticketLink, notes))
		}
	})

	return events, nil
}

// comingSoon decomposes the umbrella listing into independent events, one per
// artist/date-range sub-entry.
func (p *VanguardParser) comingSoon(listing *goquery.Selection, ticketLink string, year int) []models.CanonicalEvent {
	var events []models.CanonicalEvent
	listing.Find("div.event-short-description h4").Each(func(_ int, h4 *goquery.Selection) {
		strong := h4.Find("strong").First()
		if strong.Length() == 0 {
			return
		}
		artist := strings.TrimSpace(strong.Text())
		rangeText := strings.TrimSpace(strings.Replace(h4.Text(), artist, "", 1))
		if !containsDigit.MatchString(rangeText) {
			return
		}
		start, end, err := parseDateRange(rangeText, year)
		if err != nil {
			return
		}

		notes := ""
		if pTag := h4.NextAllFiltered("p").First(); pTag.Length() > 0 {
			note := leadingWithRe.ReplaceAllString(strings.TrimSpace(pTag.Text()), "")
			if note != "" {
				notes = "Band members: " + note
			}
		}
		for _, d := range dateSpan(start, end) {
			events = append(events, vanguardEvent(artist, d, ticketLink, notes))
		}
	})
	return events
}

// vanguardYear prefers a plausible year found in a ticket link over the
// current year, since listings near New Year's often sell into January.
func vanguardYear(doc *goquery.Document, now time.Time) int {
	href, _ := doc.Find("a.btn.btn-primary").First().Attr("href")
	if m := yearRe.FindStringSubmatch(href); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil && (y == now.Year() || y == now.Year()+1) {
			return y
		}
	}
	return now.Year()
}

// bandMembers collects "Name (instrument)" pairs from the short-description
// personnel list.
func bandMembers(desc *goquery.Selection) string {
	var members []string
	desc.Find("h4").Each(func(_ int, h4 *goquery.Selection) {
		strong := h4.Find("strong").First()
		if strong.Length() == 0 {
			return
		}
		name := strings.TrimSpace(strong.Text())
		rest := strings.TrimSpace(strings.Replace(h4.Text(), name, "", 1))
		rest = leadingDashRe.ReplaceAllString(rest, "")
		if rest != "" {
			members = append(members, name+" ("+rest+")")
		} else {
			members = append(members, name)
		}
	})
	if len(members) == 0 {
		return ""
	}
	return "Band members: " + strings.Join(members, ", ")
}

func vanguardEvent(artist string, date time.Time, ticketLink, notes string) models.CanonicalEvent {
	return models.CanonicalEvent{
		Artist:       artist,
		Date:         isoDate(date),
		Times:        append([]string(nil), vanguardTimes...),
		Venue:        vanguardName,
		Address:      vanguardAddress,
		TicketLink:   ticketLink,
		SpecialNotes: notes,
	}
}
