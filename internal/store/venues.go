package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"concertscout/internal/models"
)

// getOrCreateVenueTx resolves a venue by exact name, creating it from the
// event and configuration on first sight. An existing row only has its empty
// fields backfilled; populated fields are never overwritten.
func (s *Store) getOrCreateVenueTx(ctx context.Context, tx *sql.Tx, name string, cfg models.VenueConfig, ev models.CanonicalEvent) (int64, error) {
	address := ev.Address
	if address == "" {
		address = cfg.Address
	}

	var (
		id                          int64
		curAddress, curURL, curHood string
		curGenres                   []byte
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, address, website_url, neighborhood, genres
		FROM venues
		WHERE name = $1
	`, name).Scan(&id, &curAddress, &curURL, &curHood, &curGenres)

	if errors.Is(err, sql.ErrNoRows) {
		genres, err := genresJSON(cfg.Genres)
		if err != nil {
			return 0, err
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO venues (name, address, website_url, neighborhood, genres)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, name, address, cfg.URL, cfg.Neighborhood, genres).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				// Lost a race with a concurrent worker; the row exists now.
				err = tx.QueryRowContext(ctx, `
					SELECT id FROM venues WHERE name = $1
				`, name).Scan(&id)
				if err != nil {
					return 0, fmt.Errorf("re-lookup venue: %w", err)
				}
				return id, nil
			}
			return 0, fmt.Errorf("insert venue: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup venue: %w", err)
	}

	// Fill-missing, never clobber.
	newAddress := fillMissing(curAddress, address)
	newURL := fillMissing(curURL, cfg.URL)
	newHood := fillMissing(curHood, cfg.Neighborhood)
	newGenres := curGenres
	if emptyGenres(curGenres) && len(cfg.Genres) > 0 {
		g, err := genresJSON(cfg.Genres)
		if err != nil {
			return 0, err
		}
		newGenres = g
	}
	if newAddress != curAddress || newURL != curURL || newHood != curHood || string(newGenres) != string(curGenres) {
		if _, err := tx.ExecContext(ctx, `
			UPDATE venues
			SET address = $2, website_url = $3, neighborhood = $4, genres = $5
			WHERE id = $1
		`, id, newAddress, newURL, newHood, newGenres); err != nil {
			return 0, fmt.Errorf("backfill venue: %w", err)
		}
	}
	return id, nil
}

// TouchLastScraped records a completed scrape pass for a venue.
func (s *Store) TouchLastScraped(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE venues
		SET last_scraped = now()
		WHERE name = $1
	`, name)
	if err != nil {
		return fmt.Errorf("touch last_scraped: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrVenueNotFound
	}
	return nil
}

// ListVenues returns every known venue ordered by name.
func (s *Store) ListVenues(ctx context.Context) ([]*models.Venue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, website_url, neighborhood, genres, last_scraped
		FROM venues
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select venues: %w", err)
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		var (
			v      models.Venue
			genres []byte
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.WebsiteURL, &v.Neighborhood, &genres, &v.LastScraped); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		if len(genres) > 0 {
			if err := json.Unmarshal(genres, &v.Genres); err != nil {
				return nil, fmt.Errorf("decode venue genres: %w", err)
			}
		}
		venues = append(venues, &v)
	}
	return venues, rows.Err()
}

func fillMissing(current, incoming string) string {
	if current == "" && incoming != "" {
		return incoming
	}
	return current
}

func genresJSON(genres []string) ([]byte, error) {
	if genres == nil {
		genres = []string{}
	}
	b, err := json.Marshal(genres)
	if err != nil {
		return nil, fmt.Errorf("encode genres: %w", err)
	}
	return b, nil
}

func emptyGenres(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	var g []string
	if err := json.Unmarshal(raw, &g); err != nil {
		return false
	}
	return len(g) == 0
}
