package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"

	"concertscout/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := New(db, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) }
	return s, mock
}

var testCfg = models.VenueConfig{
	Name:         "Smalls Jazz Club",
	URL:          "https://smallslive.com/",
	DefaultTimes: []string{"7:30 PM", "9:00 PM"},
	Neighborhood: "Greenwich Village",
}

func venueRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "address", "website_url", "neighborhood", "genres"}).
		AddRow(id, "183 W 10th St", "https://smallslive.com/", "Greenwich Village", []byte(`["jazz"]`))
}

func TestIngestCreatesNewConcert(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, address, website_url, neighborhood, genres`).
		WithArgs("Smalls Jazz Club").
		WillReturnRows(venueRow(1))
	mock.ExpectQuery(`SELECT id FROM artists`).
		WithArgs("Melissa Aldana Quartet").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO artists`).
		WithArgs("Melissa Aldana Quartet").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT c.id`).
		WithArgs(int64(1), "2025-03-01", "Melissa Aldana Quartet").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO concerts`).
		WithArgs(int64(1), "2025-03-01", "https://tickets.example/a", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(`INSERT INTO concert_artists`).
		WithArgs(int64(42), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO concert_times`).
		WithArgs(int64(42), "19:30").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	stats, err := s.IngestEvents(context.Background(), testCfg, []models.CanonicalEvent{{
		Artist:     "Melissa Aldana Quartet",
		Date:       "2025-03-01",
		Times:      []string{"7:30 PM"},
		TicketLink: "https://tickets.example/a",
	}})
	if err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}
	if stats.Created != 1 || stats.Updated != 0 || stats.Rejected != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIngestMatchingConcertUpdatesInPlace(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, address, website_url, neighborhood, genres`).
		WillReturnRows(venueRow(1))
	mock.ExpectQuery(`SELECT id FROM artists`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT c.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(`UPDATE concerts SET`).
		WithArgs(int64(42), "https://tickets.example/b", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Stored time-set equals the incoming one, so no replacement happens.
	mock.ExpectQuery(`SELECT to_char`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"to_char"}).AddRow("19:30"))
	mock.ExpectCommit()

	stats, err := s.IngestEvents(context.Background(), testCfg, []models.CanonicalEvent{{
		Artist:     "Melissa Aldana Quartet",
		Date:       "2025-03-01",
		Times:      []string{"19:30"},
		TicketLink: "https://tickets.example/b",
	}})
	if err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}
	if stats.Created != 0 || stats.Updated != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIngestReplacesChangedTimeSetWholesale(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, address, website_url, neighborhood, genres`).
		WillReturnRows(venueRow(1))
	mock.ExpectQuery(`SELECT id FROM artists`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT c.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(`UPDATE concerts SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT to_char`).
		WillReturnRows(sqlmock.NewRows([]string{"to_char"}).AddRow("19:30").AddRow("21:00"))
	mock.ExpectExec(`DELETE FROM concert_times`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO concert_times`).
		WithArgs(int64(42), "20:00").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO concert_times`).
		WithArgs(int64(42), "22:00").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	_, err := s.IngestEvents(context.Background(), testCfg, []models.CanonicalEvent{{
		Artist: "Melissa Aldana Quartet",
		Date:   "2025-03-01",
		Times:  []string{"8:00 PM", "10:00 PM"},
	}})
	if err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIngestExpandsDateRange(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, address, website_url, neighborhood, genres`).
		WillReturnRows(venueRow(1))
	mock.ExpectQuery(`SELECT id FROM artists`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	for i, date := range []string{"2025-02-18", "2025-02-19", "2025-02-20"} {
		concertID := int64(100 + i)
		mock.ExpectQuery(`SELECT c.id`).
			WithArgs(int64(1), date, "Fred Hersch").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`INSERT INTO concerts`).
			WithArgs(int64(1), date, "https://tickets.example/fh", "", "").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(concertID))
		mock.ExpectExec(`INSERT INTO concert_artists`).
			WithArgs(concertID, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO concert_times`).
			WithArgs(concertID, "19:30").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO concert_times`).
			WithArgs(concertID, "21:00").
			WillReturnResult(sqlmock.NewResult(2, 1))
	}
	mock.ExpectCommit()

	stats, err := s.IngestEvents(context.Background(), testCfg, []models.CanonicalEvent{{
		Artist:     "Fred Hersch",
		Date:       "2025-02-18 to 2025-02-20",
		TicketLink: "https://tickets.example/fh",
	}})
	if err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}
	if stats.Created != 3 {
		t.Fatalf("expected 3 concerts from the range, got %d", stats.Created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIngestRejectsIncompleteEvents(t *testing.T) {
	s, mock := newMockStore(t)

	// No database expectations: invalid records never reach the store layer.
	stats, err := s.IngestEvents(context.Background(), testCfg, []models.CanonicalEvent{
		{Artist: "", Date: "2025-03-01"},
		{Artist: "   ", Date: "2025-03-01"},
		{Artist: "Real Band", Date: ""},
		{Artist: "Real Band", Date: "not a date"},
	})
	if err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}
	if stats.Rejected != 4 || stats.Created != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestVenueBackfillNeverClobbers(t *testing.T) {
	s, mock := newMockStore(t)

	// Existing venue is fully populated: incoming different neighborhood
	// must not trigger an update.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, address, website_url, neighborhood, genres`).
		WithArgs("Smalls Jazz Club").
		WillReturnRows(venueRow(1))
	mock.ExpectQuery(`SELECT id FROM artists`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT c.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(`UPDATE concerts SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT to_char`).
		WillReturnRows(sqlmock.NewRows([]string{"to_char"}).AddRow("19:30"))
	mock.ExpectCommit()

	cfg := testCfg
	cfg.Neighborhood = "Other"

	_, err := s.IngestEvents(context.Background(), cfg, []models.CanonicalEvent{{
		Artist: "Melissa Aldana Quartet",
		Date:   "2025-03-01",
		Times:  []string{"19:30"},
	}})
	if err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestVenueBackfillFillsEmptyFields(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, address, website_url, neighborhood, genres`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "address", "website_url", "neighborhood", "genres"}).
			AddRow(1, "", "https://smallslive.com/", "", []byte(`[]`)))
	mock.ExpectExec(`UPDATE venues`).
		WithArgs(int64(1), "183 W 10th St", "https://smallslive.com/", "Greenwich Village", []byte(`["jazz"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id FROM artists`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT c.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(`UPDATE concerts SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT to_char`).
		WillReturnRows(sqlmock.NewRows([]string{"to_char"}).AddRow("19:30"))
	mock.ExpectCommit()

	cfg := testCfg
	cfg.Genres = []string{"jazz"}

	_, err := s.IngestEvents(context.Background(), cfg, []models.CanonicalEvent{{
		Artist:  "Melissa Aldana Quartet",
		Date:    "2025-03-01",
		Times:   []string{"19:30"},
		Address: "183 W 10th St",
	}})
	if err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIngestIsolatesPerEventFailure(t *testing.T) {
	s, mock := newMockStore(t)

	// First event fails at concert insert and rolls back; second succeeds.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, address, website_url, neighborhood, genres`).
		WillReturnRows(venueRow(1))
	mock.ExpectQuery(`SELECT id FROM artists`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT c.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO concerts`).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, address, website_url, neighborhood, genres`).
		WillReturnRows(venueRow(1))
	mock.ExpectQuery(`SELECT id FROM artists`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectQuery(`SELECT c.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO concerts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	mock.ExpectExec(`INSERT INTO concert_artists`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO concert_times`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	stats, err := s.IngestEvents(context.Background(), testCfg, []models.CanonicalEvent{
		{Artist: "First Band", Date: "2025-03-01", Times: []string{"19:30"}},
		{Artist: "Second Band", Date: "2025-03-01", Times: []string{"19:30"}},
	})
	if err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}
	if stats.Created != 1 {
		t.Fatalf("expected the second event stored, got %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "7:30 PM", want: "19:30"},
		{in: "19:30", want: "19:30"},
		{in: "12:00", want: "12:00"},
		{in: "not a time", wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTimeOfDay(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseTimeOfDay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpandDatesCoercesPastYearForward(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	dates, err := expandDates("2023-03-01", now)
	if err != nil {
		t.Fatalf("expandDates: %v", err)
	}
	if len(dates) != 1 || dates[0].Format("2006-01-02") != "2025-03-01" {
		t.Fatalf("expected year coerced to 2025, got %v", dates)
	}

	// Future years pass through untouched.
	dates, err = expandDates("2026-03-01", now)
	if err != nil {
		t.Fatalf("expandDates: %v", err)
	}
	if dates[0].Format("2006-01-02") != "2026-03-01" {
		t.Fatalf("future date must not be coerced, got %v", dates)
	}
}
