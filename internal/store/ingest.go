package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"concertscout/internal/models"
)

// IngestStats summarizes one venue batch.
type IngestStats struct {
	Created  int
	Updated  int
	Rejected int
}

// dateRangeSep joins the two sides of a range date string.
const dateRangeSep = " to "

// errVenueResolution marks failures that make the whole venue batch
// pointless, as opposed to per-event errors.
var errVenueResolution = errors.New("venue resolution failed")

// IngestEvents upserts a batch of canonical events for one configured venue.
// Each event runs in its own transaction; an error on one event is logged
// and rolled back without touching the rest of the batch. Only a failure to
// resolve the venue row itself aborts the batch.
func (s *Store) IngestEvents(ctx context.Context, cfg models.VenueConfig, events []models.CanonicalEvent) (IngestStats, error) {
	var stats IngestStats
	now := s.now()

	for i := range events {
		ev := events[i]
		ev.Normalize()
		if err := ev.Validate(); err != nil {
			s.log.Warn().Err(err).Str("venue", cfg.Name).Msg("rejecting incomplete event")
			stats.Rejected++
			continue
		}

		dates, err := expandDates(ev.Date, now)
		if err != nil {
			s.log.Warn().Err(err).Str("venue", cfg.Name).Str("artist", ev.Artist).Msg("rejecting event with unparseable date")
			stats.Rejected++
			continue
		}

		times := s.resolveTimes(ev.Times, cfg)
		if len(times) == 0 {
			s.log.Warn().Str("venue", cfg.Name).Str("artist", ev.Artist).Msg("rejecting event with no valid times")
			stats.Rejected++
			continue
		}

		created, updated, err := s.ingestOne(ctx, cfg, ev, dates, times)
		if err != nil {
			if errors.Is(err, errVenueResolution) {
				return stats, err
			}
			s.log.Error().Err(err).Str("venue", cfg.Name).Str("artist", ev.Artist).Msg("event ingestion failed")
			continue
		}
		stats.Created += created
		stats.Updated += updated
	}

	return stats, nil
}

// ingestOne processes a single validated event inside one transaction.
func (s *Store) ingestOne(ctx context.Context, cfg models.VenueConfig, ev models.CanonicalEvent, dates []time.Time, times []string) (created, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	venueName := ev.Venue
	if venueName == "" {
		venueName = cfg.Name
	}
	venueID, err := s.getOrCreateVenueTx(ctx, tx, venueName, cfg, ev)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", errVenueResolution, venueName, err)
	}

	artistID, err := s.getOrCreateArtistTx(ctx, tx, ev.Artist)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve artist %q: %w", ev.Artist, err)
	}

	for _, date := range dates {
		wasNew, err := s.upsertConcertTx(ctx, tx, venueID, artistID, ev, date, times)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert concert on %s: %w", date.Format("2006-01-02"), err)
		}
		if wasNew {
			created++
		} else {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil
	return created, updated, nil
}

// upsertConcertTx applies the (venue, date, any-one-matching-artist) identity
// rule. A match refreshes ticket_link/price_range/special_notes (non-empty
// values win) and replaces the time-set wholesale when it changed; no match
// creates the concert with its artist link and times.
func (s *Store) upsertConcertTx(ctx context.Context, tx *sql.Tx, venueID, artistID int64, ev models.CanonicalEvent, date time.Time, times []string) (bool, error) {
	var concertID int64
	err := tx.QueryRowContext(ctx, `
		SELECT c.id
		FROM concerts c
		JOIN concert_artists ca ON ca.concert_id = c.id
		JOIN artists a ON a.id = ca.artist_id
		WHERE c.venue_id = $1 AND c.date = $2 AND a.name = $3
		LIMIT 1
	`, venueID, date.Format("2006-01-02"), ev.Artist).Scan(&concertID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowContext(ctx, `
			INSERT INTO concerts (venue_id, date, ticket_link, price_range, special_notes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, venueID, date.Format("2006-01-02"), ev.TicketLink, ev.PriceRange, ev.SpecialNotes).Scan(&concertID)
		if err != nil {
			return false, fmt.Errorf("insert concert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO concert_artists (concert_id, artist_id)
			VALUES ($1, $2)
		`, concertID, artistID); err != nil {
			return false, fmt.Errorf("link artist: %w", err)
		}
		if err := insertTimesTx(ctx, tx, concertID, times); err != nil {
			return false, err
		}
		return true, nil

	case err != nil:
		return false, fmt.Errorf("find concert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE concerts SET
			ticket_link = CASE WHEN $2 <> '' THEN $2 ELSE ticket_link END,
			price_range = CASE WHEN $3 <> '' THEN $3 ELSE price_range END,
			special_notes = CASE WHEN $4 <> '' THEN $4 ELSE special_notes END,
			updated_at = now()
		WHERE id = $1
	`, concertID, ev.TicketLink, ev.PriceRange, ev.SpecialNotes); err != nil {
		return false, fmt.Errorf("update concert: %w", err)
	}

	stored, err := concertTimesTx(ctx, tx, concertID)
	if err != nil {
		return false, err
	}
	if !sameTimeSet(stored, times) {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM concert_times WHERE concert_id = $1
		`, concertID); err != nil {
			return false, fmt.Errorf("delete times: %w", err)
		}
		if err := insertTimesTx(ctx, tx, concertID, times); err != nil {
			return false, err
		}
	}
	return false, nil
}

func insertTimesTx(ctx context.Context, tx *sql.Tx, concertID int64, times []string) error {
	for _, t := range times {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO concert_times (concert_id, time)
			VALUES ($1, $2)
		`, concertID, t); err != nil {
			return fmt.Errorf("insert time: %w", err)
		}
	}
	return nil
}

func concertTimesTx(ctx context.Context, tx *sql.Tx, concertID int64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT to_char(time, 'HH24:MI')
		FROM concert_times
		WHERE concert_id = $1
		ORDER BY time ASC
	`, concertID)
	if err != nil {
		return nil, fmt.Errorf("select times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate times: %w", err)
	}
	return times, nil
}

// resolveTimes normalizes the event's times, dropping individually
// unparseable entries, and falls back to the venue's configured defaults
// when none survive.
func (s *Store) resolveTimes(raw []string, cfg models.VenueConfig) []string {
	parse := func(in []string) []string {
		var out []string
		for _, t := range in {
			norm, err := parseTimeOfDay(t)
			if err != nil {
				s.log.Warn().Str("venue", cfg.Name).Str("time", t).Msg("dropping unparseable show time")
				continue
			}
			out = append(out, norm)
		}
		return out
	}

	if times := parse(raw); len(times) > 0 {
		return times
	}
	return parse(cfg.DefaultTimes)
}

// expandDates turns a date or "YYYY-MM-DD to YYYY-MM-DD" range into the
// inclusive list of calendar days.
func expandDates(dateStr string, now time.Time) ([]time.Time, error) {
	parseOne := func(s string) (time.Time, error) {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
		if err != nil {
			return time.Time{}, err
		}
		return coerceYear(d, now), nil
	}

	if !strings.Contains(dateStr, dateRangeSep) {
		d, err := parseOne(dateStr)
		if err != nil {
			return nil, err
		}
		return []time.Time{d}, nil
	}

	parts := strings.SplitN(dateStr, dateRangeSep, 2)
	start, err := parseOne(parts[0])
	if err != nil {
		return nil, err
	}
	end, err := parseOne(parts[1])
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range %q ends before it starts", dateStr)
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// coerceYear moves an implausibly-past year forward to the current one. Some
// sources omit or mis-render the year and land events in a prior year; this
// is a narrow workaround for that single artifact, not general date
// correction, and must not grow other trigger conditions.
func coerceYear(d, now time.Time) time.Time {
	if d.Year() < now.Year() {
		return time.Date(now.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	return d
}

func sameTimeSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
