package models

import (
	"errors"
	"strings"
	"time"
)

// ErrIncompleteEvent signals an event missing its required artist or date.
var ErrIncompleteEvent = errors.New("event is missing artist or date")

// CanonicalEvent is the normalized record every parser emits and ingestion
// consumes. Optional fields are empty strings when the source did not
// provide them. Date is either a single ISO day ("2025-02-18") or an
// inclusive range ("2025-02-18 to 2025-02-20").
type CanonicalEvent struct {
	Artist       string   `json:"artist"`
	Date         string   `json:"date"`
	Times        []string `json:"times"`
	Venue        string   `json:"venue"`
	Address      string   `json:"address"`
	TicketLink   string   `json:"ticket_link"`
	PriceRange   string   `json:"price_range"`
	SpecialNotes string   `json:"special_notes"`
}

// Normalize trims whitespace on every field in place.
func (e *CanonicalEvent) Normalize() {
	e.Artist = strings.TrimSpace(e.Artist)
	e.Date = strings.TrimSpace(e.Date)
	e.Venue = strings.TrimSpace(e.Venue)
	e.Address = strings.TrimSpace(e.Address)
	e.TicketLink = strings.TrimSpace(e.TicketLink)
	e.PriceRange = strings.TrimSpace(e.PriceRange)
	e.SpecialNotes = strings.TrimSpace(e.SpecialNotes)
	for i, t := range e.Times {
		e.Times[i] = strings.TrimSpace(t)
	}
}

// Validate normalizes the event and reports whether it carries the required
// artist and date. Invalid events must never reach the store.
func (e *CanonicalEvent) Validate() error {
	e.Normalize()
	if e.Artist == "" || e.Date == "" {
		return ErrIncompleteEvent
	}
	return nil
}

// VenueConfig describes one venue to scrape. The list is curated by hand,
// not crawled.
type VenueConfig struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	DefaultTimes []string `json:"default_times"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Address      string   `json:"address,omitempty"`
}

// Venue is the persistent venue entity. Name is the identity key; the
// serial ID exists for joins only.
type Venue struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Address      string     `json:"address,omitempty"`
	WebsiteURL   string     `json:"website_url,omitempty"`
	Neighborhood string     `json:"neighborhood,omitempty"`
	Genres       []string   `json:"genres,omitempty"`
	LastScraped  *time.Time `json:"last_scraped,omitempty"`
}

// Artist is the persistent artist entity, keyed by exact name. Names are
// never fuzzy-matched: "John Doe Trio" and "John Doe" are distinct artists.
type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Concert is a single calendar day at a single venue. Date ranges are
// expanded before a Concert is created, never stored as a range.
type Concert struct {
	ID           int64     `json:"id"`
	VenueID      int64     `json:"venue_id"`
	Date         time.Time `json:"date"`
	TicketLink   string    `json:"ticket_link,omitempty"`
	PriceRange   string    `json:"price_range,omitempty"`
	SpecialNotes string    `json:"special_notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConcertWithDetails includes the joined venue, artist, and show-time data
// returned by listing queries.
type ConcertWithDetails struct {
	Concert
	VenueName         string   `json:"venue_name"`
	VenueNeighborhood string   `json:"venue_neighborhood,omitempty"`
	Artists           []string `json:"artists"`
	Times             []string `json:"times"`
}
