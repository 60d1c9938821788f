package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"concertscout/internal/models"
)

// aggSep joins aggregated artist names and times in listing queries; split
// back apart in Go. Unit separator, so it never collides with real names.
const aggSep = "\x1f"

// ListUpcoming returns concerts from today through today+days, with venue
// details, artist names, and show times attached.
func (s *Store) ListUpcoming(ctx context.Context, days int) ([]*models.ConcertWithDetails, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.id, c.venue_id, c.date, c.ticket_link, c.price_range, c.special_notes,
			c.created_at, c.updated_at,
			v.name AS venue_name, v.neighborhood AS venue_neighborhood,
			COALESCE((
				SELECT string_agg(a.name, $2 ORDER BY a.name)
				FROM concert_artists ca JOIN artists a ON a.id = ca.artist_id
				WHERE ca.concert_id = c.id
			), '') AS artists,
			COALESCE((
				SELECT string_agg(to_char(ct.time, 'HH24:MI'), $2 ORDER BY ct.time)
				FROM concert_times ct
				WHERE ct.concert_id = c.id
			), '') AS times
		FROM concerts c
		JOIN venues v ON v.id = c.venue_id
		WHERE c.date >= CURRENT_DATE AND c.date <= CURRENT_DATE + $1::int
		ORDER BY c.date ASC, v.name ASC
	`, days, aggSep)
	if err != nil {
		return nil, fmt.Errorf("select concerts: %w", err)
	}
	defer rows.Close()

	var concerts []*models.ConcertWithDetails
	for rows.Next() {
		var (
			c              models.ConcertWithDetails
			updatedAt      sql.NullTime
			artists, times string
		)
		err := rows.Scan(
			&c.ID, &c.VenueID, &c.Date, &c.TicketLink, &c.PriceRange, &c.SpecialNotes,
			&c.CreatedAt, &updatedAt,
			&c.VenueName, &c.VenueNeighborhood,
			&artists, &times,
		)
		if err != nil {
			return nil, fmt.Errorf("scan concert: %w", err)
		}
		// Rows created before updated_at carried a default may hold NULL.
		c.UpdatedAt = updatedAt.Time
		c.Artists = splitAgg(artists)
		c.Times = splitAgg(times)
		concerts = append(concerts, &c)
	}
	return concerts, rows.Err()
}

func splitAgg(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, aggSep)
}
