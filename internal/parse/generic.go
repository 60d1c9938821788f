package parse

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"concertscout/internal/models"
)

// Generic is the parser for venues without structural knowledge: the LLM
// first, the regex heuristic when the model is unavailable or its response
// cannot be trusted.
type Generic struct {
	LLM *LLMParser
	Log zerolog.Logger
}

// Parse extracts events from normalized text for the hinted venue.
func (g *Generic) Parse(ctx context.Context, text string, hint models.VenueConfig) []models.CanonicalEvent {
	if g.LLM != nil {
		events, err := g.LLM.Parse(ctx, text)
		if err == nil {
			return events
		}
		g.Log.Warn().Err(err).Str("venue", hint.Name).Msg("LLM parse failed, using heuristic parser")
	}
	return Heuristic(text, hint, time.Now())
}
