package parse

import (
	"testing"
	"time"

	"concertscout/internal/models"
)

var heuristicNow = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

func TestHeuristicDateRangeAndArtist(t *testing.T) {
	text := `
## February 18 - 20

**Melissa Aldana Quartet**

> No flash photography
[Buy Tickets](https://tickets.example/aldana)
`
	hint := models.VenueConfig{Name: "Smalls", DefaultTimes: []string{"7:30 PM", "9:00 PM"}}
	events := Heuristic(text, hint, heuristicNow)

	if len(events) != 3 {
		t.Fatalf("expected 3 events for the 3-day range, got %d", len(events))
	}
	for i, want := range []string{"2025-02-18", "2025-02-19", "2025-02-20"} {
		if events[i].Date != want {
			t.Errorf("event %d date = %s, want %s", i, events[i].Date, want)
		}
		if events[i].Artist != "Melissa Aldana Quartet" {
			t.Errorf("event %d artist = %q", i, events[i].Artist)
		}
		if events[i].TicketLink != "https://tickets.example/aldana" {
			t.Errorf("event %d ticket link = %q", i, events[i].TicketLink)
		}
		if events[i].SpecialNotes != "No flash photography" {
			t.Errorf("event %d notes = %q", i, events[i].SpecialNotes)
		}
	}
}

func TestHeuristicAppliesDefaultTimes(t *testing.T) {
	text := "## March 1\n\n**Quiet Trio**\n"
	hint := models.VenueConfig{Name: "Mezzrow", DefaultTimes: []string{"7:30 PM"}}

	events := Heuristic(text, hint, heuristicNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if len(events[0].Times) != 1 || events[0].Times[0] != "7:30 PM" {
		t.Fatalf("expected default times applied, got %v", events[0].Times)
	}
}

func TestHeuristicExplicitTimeBeatsDefault(t *testing.T) {
	text := "## March 1\n\n**Loud Quartet** 9:30 PM\n"
	hint := models.VenueConfig{Name: "Mezzrow", DefaultTimes: []string{"7:30 PM"}}

	events := Heuristic(text, hint, heuristicNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if len(events[0].Times) != 1 || events[0].Times[0] != "9:30 PM" {
		t.Fatalf("expected explicit time, got %v", events[0].Times)
	}
}

func TestHeuristicSkipsPlaceholderArtists(t *testing.T) {
	text := "## March 1\n\n**TBA**\n\n**Real Band**\n"
	events := Heuristic(text, models.VenueConfig{Name: "Club"}, heuristicNow)

	if len(events) != 1 {
		t.Fatalf("expected only the real band, got %d events", len(events))
	}
	if events[0].Artist != "Real Band" {
		t.Fatalf("unexpected artist %q", events[0].Artist)
	}
}

func TestHeuristicNoDateNoEvents(t *testing.T) {
	if events := Heuristic("**Band Without A Date**", models.VenueConfig{}, heuristicNow); len(events) != 0 {
		t.Fatalf("expected no events without a date header, got %d", len(events))
	}
}
