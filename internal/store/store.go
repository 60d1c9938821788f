// Package store provides persistence and the ingestion engine backed by
// Postgres. Venue and Artist rows are created on first sight and updated in
// place; Concert rows are upserted keyed by (venue, date, artist).
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

var (
	// ErrVenueNotFound signals a lookup for an unknown venue.
	ErrVenueNotFound = errors.New("venue not found")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db  *sql.DB
	log zerolog.Logger

	// now is swapped out in tests; the year-coercion heuristic depends on it.
	now func() time.Time
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log, now: time.Now}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// parseTimeOfDay normalizes a show time to "HH:MM", trying the 12-hour form
// first, then 24-hour.
func parseTimeOfDay(s string) (string, error) {
	for _, layout := range []string{"3:04 PM", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("unrecognized time %q", s)
}
