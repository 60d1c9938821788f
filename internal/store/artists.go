package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// getOrCreateArtistTx resolves an artist by exact name match. Names are
// never fuzzy-matched or merged across spelling variants; "John Doe Trio"
// and "John Doe" are distinct artists. Known limitation, kept deliberately.
func (s *Store) getOrCreateArtistTx(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM artists WHERE name = $1
	`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup artist: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO artists (name)
		VALUES ($1)
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent worker; the row exists now.
			err = tx.QueryRowContext(ctx, `
				SELECT id FROM artists WHERE name = $1
			`, name).Scan(&id)
			if err != nil {
				return 0, fmt.Errorf("re-lookup artist: %w", err)
			}
			return id, nil
		}
		return 0, fmt.Errorf("insert artist: %w", err)
	}
	return id, nil
}

// PruneArtists removes placeholder artist rows ("TBA", "TBD", empty) and
// their concert links. This is the only path that ever deletes an artist;
// the ingestion pipeline itself never does.
func (s *Store) PruneArtists(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM artists
		WHERE name = '' OR upper(name) IN ('TBA', 'TBD')
	`)
	if err != nil {
		return 0, fmt.Errorf("prune artists: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune artists: %w", err)
	}
	return n, nil
}
