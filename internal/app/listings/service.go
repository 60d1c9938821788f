// Package listings serves the read-only view of aggregated concerts.
package listings

import (
	"context"

	"concertscout/internal/models"
)

const (
	// DefaultDays is the listing window when the caller does not specify one.
	DefaultDays = 30
	maxDays     = 365
)

// Store defines the persistence operations listings need.
type Store interface {
	ListUpcoming(ctx context.Context, days int) ([]*models.ConcertWithDetails, error)
	ListVenues(ctx context.Context) ([]*models.Venue, error)
}

// Service coordinates listing queries.
type Service interface {
	Upcoming(ctx context.Context, days int) ([]*models.ConcertWithDetails, error)
	Venues(ctx context.Context) ([]*models.Venue, error)
}

type service struct {
	store Store
}

// New constructs a listings Service.
func New(store Store) Service {
	return &service{store: store}
}

// Upcoming returns concerts from today through today+days. Out-of-range day
// counts are clamped rather than rejected.
func (s *service) Upcoming(ctx context.Context, days int) ([]*models.ConcertWithDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultDays
	}
	if days > maxDays {
		days = maxDays
	}
	return s.store.ListUpcoming(ctx, days)
}

// Venues returns every known venue.
func (s *service) Venues(ctx context.Context) ([]*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListVenues(ctx)
}
