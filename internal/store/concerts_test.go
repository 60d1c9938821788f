package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var listingColumns = []string{
	"id", "venue_id", "date", "ticket_link", "price_range", "special_notes",
	"created_at", "updated_at", "venue_name", "venue_neighborhood", "artists", "times",
}

func TestListUpcomingSplitsAggregatedColumns(t *testing.T) {
	s, mock := newMockStore(t)

	created := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM concerts c`).
		WithArgs(30, aggSep).
		WillReturnRows(sqlmock.NewRows(listingColumns).
			AddRow(42, 1, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				"https://tickets.example/a", "$25", "",
				created, created,
				"Smalls Jazz Club", "Greenwich Village",
				"Joel Ross"+aggSep+"Melissa Aldana Quartet",
				"19:30"+aggSep+"21:00"))

	concerts, err := s.ListUpcoming(context.Background(), 30)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	if len(concerts) != 1 {
		t.Fatalf("expected 1 concert, got %d", len(concerts))
	}

	c := concerts[0]
	if c.VenueName != "Smalls Jazz Club" || c.VenueNeighborhood != "Greenwich Village" {
		t.Errorf("venue fields = %q / %q", c.VenueName, c.VenueNeighborhood)
	}
	if len(c.Artists) != 2 || c.Artists[0] != "Joel Ross" || c.Artists[1] != "Melissa Aldana Quartet" {
		t.Errorf("artists = %v", c.Artists)
	}
	if len(c.Times) != 2 || c.Times[0] != "19:30" || c.Times[1] != "21:00" {
		t.Errorf("times = %v", c.Times)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListUpcomingHandlesNeverUpdatedConcert(t *testing.T) {
	s, mock := newMockStore(t)

	created := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM concerts c`).
		WithArgs(7, aggSep).
		WillReturnRows(sqlmock.NewRows(listingColumns).
			AddRow(42, 1, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				"", "", "",
				created, nil,
				"Smalls Jazz Club", "",
				"Joel Ross", "19:30"))

	concerts, err := s.ListUpcoming(context.Background(), 7)
	if err != nil {
		t.Fatalf("a NULL updated_at must not break the listing: %v", err)
	}
	if len(concerts) != 1 {
		t.Fatalf("expected 1 concert, got %d", len(concerts))
	}
	if !concerts[0].UpdatedAt.IsZero() {
		t.Fatalf("expected zero UpdatedAt for NULL column, got %v", concerts[0].UpdatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListUpcomingEmptyAggregates(t *testing.T) {
	s, mock := newMockStore(t)

	created := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM concerts c`).
		WithArgs(30, aggSep).
		WillReturnRows(sqlmock.NewRows(listingColumns).
			AddRow(43, 1, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
				"", "", "",
				created, created,
				"Smalls Jazz Club", "",
				"", ""))

	concerts, err := s.ListUpcoming(context.Background(), 30)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	if len(concerts[0].Artists) != 0 || len(concerts[0].Times) != 0 {
		t.Fatalf("empty aggregates must split to nothing, got %v / %v",
			concerts[0].Artists, concerts[0].Times)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
