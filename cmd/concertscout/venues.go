package main

import (
	"encoding/json"
	"fmt"
	"os"

	"concertscout/internal/models"
)

// defaultVenues is the curated scrape list. A venue's name must match its
// structural parser registration exactly; venues without one fall through to
// the generic parser, so adding a line here is enough to start tracking a
// new venue.
var defaultVenues = []models.VenueConfig{
	{
		Name:         "Village Vanguard",
		URL:          "https://villagevanguard.com",
		DefaultTimes: []string{"8:00 PM", "10:00 PM"},
		Neighborhood: "West Village",
		Genres:       []string{"jazz"},
		Address:      "178 7th Ave S, New York, NY 10014",
	},
	{
		Name:         "Smalls Jazz Club",
		URL:          "https://www.smallslive.com/events/calendar/",
		DefaultTimes: []string{"7:30 PM", "10:00 PM"},
		Neighborhood: "West Village",
		Genres:       []string{"jazz"},
		Address:      "183 W 10th St, New York, NY 10014",
	},
	{
		Name:         "Mezzrow",
		URL:          "https://www.mezzrow.com/events/calendar/",
		DefaultTimes: []string{"7:30 PM", "9:00 PM"},
		Neighborhood: "West Village",
		Genres:       []string{"jazz"},
		Address:      "163 W 10th St, New York, NY 10014",
	},
	{
		Name:         "Close Up",
		URL:          "https://www.closeupnyc.com/calendar",
		DefaultTimes: []string{"7:00 PM"},
		Neighborhood: "Lower East Side",
		Genres:       []string{"jazz", "experimental"},
		Address:      "154 Orchard St, New York, NY 10002",
	},
	{
		Name:         "Nowadays",
		URL:          "https://ra.co/clubs/128789/events",
		DefaultTimes: []string{"10:00 PM"},
		Neighborhood: "Ridgewood",
		Genres:       []string{"electronic", "dance"},
		Address:      "56-06 Cooper Ave, Ridgewood, NY 11385",
	},
	{
		Name:         "Knockdown Center",
		URL:          "https://knockdown.center/upcoming/",
		DefaultTimes: []string{"10:00 PM"},
		Neighborhood: "Maspeth",
		Genres:       []string{"electronic", "experimental"},
		Address:      "52-19 Flushing Ave, Maspeth, NY 11378",
	},
	{
		Name:         "Film Forum",
		URL:          "https://filmforum.org/now_playing",
		DefaultTimes: nil,
		Neighborhood: "Greenwich Village",
		Genres:       []string{"film"},
		Address:      "209 W Houston St, New York, NY 10014",
	},
	{
		Name:         "IFC Center",
		URL:          "https://www.ifccenter.com",
		DefaultTimes: nil,
		Neighborhood: "Greenwich Village",
		Genres:       []string{"film"},
		Address:      "323 6th Ave, New York, NY 10014",
	},
	{
		Name:         "Quad Cinema",
		URL:          "https://quadcinema.com",
		DefaultTimes: nil,
		Neighborhood: "Greenwich Village",
		Genres:       []string{"film"},
		Address:      "34 W 13th St, New York, NY 10011",
	},
	{
		Name:         "Film at Lincoln Center",
		URL:          "https://www.filmlinc.org/calendar/",
		DefaultTimes: nil,
		Neighborhood: "Upper West Side",
		Genres:       []string{"film"},
		Address:      "10 Lincoln Center Plaza, New York, NY 10023",
	},
	{
		Name:         "Roulette",
		URL:          "https://roulette.org/calendar/",
		DefaultTimes: []string{"8:00 PM"},
		Neighborhood: "Downtown Brooklyn",
		Genres:       []string{"experimental", "jazz", "classical"},
		Address:      "509 Atlantic Ave, Brooklyn, NY 11217",
	},
	{
		Name:         "Barbès",
		URL:          "https://www.barbesbrooklyn.com/calendar",
		DefaultTimes: []string{"8:00 PM", "10:00 PM"},
		Neighborhood: "Park Slope",
		Genres:       []string{"world", "jazz"},
		Address:      "376 9th St, Brooklyn, NY 11215",
	},
}

// loadVenues returns the venue list, reading it from a JSON file when one is
// configured and falling back to the built-in list otherwise.
func loadVenues(path string) ([]models.VenueConfig, error) {
	if path == "" {
		return defaultVenues, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venues file: %w", err)
	}

	var venues []models.VenueConfig
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, fmt.Errorf("parse venues file: %w", err)
	}
	if len(venues) == 0 {
		return nil, fmt.Errorf("venues file %s contains no venues", path)
	}
	return venues, nil
}
