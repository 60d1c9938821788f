package store

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS venues (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		website_url TEXT NOT NULL DEFAULT '',
		neighborhood TEXT NOT NULL DEFAULT '',
		genres JSONB NOT NULL DEFAULT '[]',
		last_scraped TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS concerts (
		id BIGSERIAL PRIMARY KEY,
		venue_id BIGINT NOT NULL REFERENCES venues(id),
		date DATE NOT NULL,
		ticket_link TEXT NOT NULL DEFAULT '',
		price_range TEXT NOT NULL DEFAULT '',
		special_notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS concert_artists (
		concert_id BIGINT NOT NULL REFERENCES concerts(id) ON DELETE CASCADE,
		artist_id BIGINT NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
		PRIMARY KEY (concert_id, artist_id)
	)`,
	`CREATE TABLE IF NOT EXISTS concert_times (
		id BIGSERIAL PRIMARY KEY,
		concert_id BIGINT NOT NULL REFERENCES concerts(id) ON DELETE CASCADE,
		time TIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_concerts_venue_date ON concerts (venue_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_concerts_date ON concerts (date)`,
}

// InitSchema creates the tables if they do not exist. Statements are
// idempotent so repeated startup runs are safe.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
