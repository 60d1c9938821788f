package httpapi

import (
	"net/http"
	"strconv"

	"concertscout/internal/models"
)

func (s *Server) handleListConcerts(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "days must be an integer"})
			return
		}
		days = n
	}

	concerts, err := s.listings.Upcoming(r.Context(), days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list concerts"})
		return
	}
	if concerts == nil {
		// An empty window encodes as [] rather than null.
		concerts = []*models.ConcertWithDetails{}
	}
	writeJSON(w, http.StatusOK, concerts)
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.listings.Venues(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list venues"})
		return
	}
	writeJSON(w, http.StatusOK, venues)
}
