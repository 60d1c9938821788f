// Package httpapi exposes the aggregated listings over HTTP. Scrape failures
// never surface here; a venue that failed this run simply shows fewer events.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"concertscout/internal/models"
)

// ListingsService captures the read operations the HTTP handlers need.
type ListingsService interface {
	Upcoming(ctx context.Context, days int) ([]*models.ConcertWithDetails, error)
	Venues(ctx context.Context) ([]*models.Venue, error)
}

// Server wires HTTP handlers to the listings service.
type Server struct {
	listings ListingsService
}

// New configures a Server with the given service implementation.
func New(listings ListingsService) *Server {
	return &Server{listings: listings}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/v1/concerts", s.handleListConcerts)
	mux.HandleFunc("GET /api/v1/venues", s.handleListVenues)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
