package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// recurringWindow bounds "Every <Weekday>" expansion; an open-ended series
// becomes occurrences within this many days.
const recurringWindow = 60 * 24 * time.Hour

var (
	dashRe     = regexp.MustCompile(`[–—]`)
	monthDayRe = regexp.MustCompile(`(?i)^([A-Za-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?$`)
	everyRe    = regexp.MustCompile(`(?i)Every\s+([A-Za-z]+)`)
)

var monthsByName = func() map[string]time.Month {
	m := make(map[string]time.Month)
	for i := time.January; i <= time.December; i++ {
		name := strings.ToLower(i.String())
		m[name] = i
		m[name[:3]] = i
	}
	return m
}()

var weekdaysByName = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday)
	for i := time.Sunday; i <= time.Saturday; i++ {
		name := strings.ToLower(i.String())
		m[name] = i
		m[name[:3]] = i
	}
	return m
}()

// parseMonthDay parses strings like "February 11" or "Feb 11" against a
// given year.
func parseMonthDay(s string, year int) (time.Time, error) {
	m := monthDayRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	month, ok := monthsByName[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized month %q", m[1])
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("unrecognized day %q", m[2])
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// parseDateRange parses headers like "February 11 – February 16" or
// "February 25 - March 2". A single date yields start == end. When the end
// side omits its month ("February 11 - 16") it inherits the start's month.
func parseDateRange(s string, year int) (time.Time, time.Time, error) {
	norm := strings.TrimSpace(dashRe.ReplaceAllString(s, "-"))
	parts := strings.SplitN(norm, "-", 2)

	start, err := parseMonthDay(parts[0], year)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(parts) == 1 {
		return start, start, nil
	}

	endStr := strings.TrimSpace(parts[1])
	if regexp.MustCompile(`[A-Za-z]`).MatchString(endStr) {
		end, err := parseMonthDay(endStr, year)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}

	day, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("unrecognized range end %q", endStr)
	}
	end := time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC)
	return start, end, nil
}

// dateSpan returns every calendar day from start through end inclusive.
func dateSpan(start, end time.Time) []time.Time {
	if end.Before(start) {
		return []time.Time{start}
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// weekdayOccurrences lists each occurrence of a weekday from now through the
// recurring window, starting with the first occurrence on or after now.
func weekdayOccurrences(weekday time.Weekday, now time.Time) []time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ahead := (int(weekday) - int(day.Weekday()) + 7) % 7
	first := day.AddDate(0, 0, ahead)
	end := day.Add(recurringWindow)

	var out []time.Time
	for d := first; !d.After(end); d = d.AddDate(0, 0, 7) {
		out = append(out, d)
	}
	return out
}

// recurringWeekday extracts the weekday from a tagline like "Every Monday".
func recurringWeekday(s string) (time.Weekday, bool) {
	m := everyRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	wd, ok := weekdaysByName[strings.ToLower(m[1])]
	return wd, ok
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}
