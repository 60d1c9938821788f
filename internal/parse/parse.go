// Package parse turns fetched venue content into canonical event records.
// Venues with a known layout get a structural parser selected by name or URL
// pattern; everything else goes through the generic LLM parser with a regex
// heuristic as fallback.
package parse

import (
	"strings"
	"time"

	"concertscout/internal/models"
)

// Structural is a parser with hard-coded knowledge of one venue's (or
// platform's) markup or embedded JSON. Implementations are pure: content in,
// events out, no network access.
type Structural interface {
	Parse(content string, now time.Time) ([]models.CanonicalEvent, error)
}

// Hints carries per-parser fetch requirements the orchestrator honors before
// content reaches the parser.
type Hints struct {
	// WarmupURLs are visited in the same browser session before the target,
	// for platforms that gate cold direct hits.
	WarmupURLs []string
	// UseLastGood enables the success-only per-venue fallback cache.
	UseLastGood bool
}

type entry struct {
	parser     Structural
	hints      Hints
	urlPattern string
}

// Registry maps venue names and URL patterns to structural parsers. Adding a
// venue means registering one implementation here, not growing a dispatch
// switch somewhere else.
type Registry struct {
	byName    map[string]entry
	byPattern []entry
}

// NewRegistry returns a registry with every built-in structural parser
// registered.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]entry)}

	r.RegisterName("Village Vanguard", &VanguardParser{})
	r.RegisterName("Close Up", &CloseUpParser{})
	r.RegisterName("Knockdown Center", &KnockdownParser{})
	r.RegisterName("Film Forum", &FilmForumParser{})
	r.RegisterName("IFC Center", &IFCParser{})
	r.RegisterName("Quad Cinema", &QuadParser{})
	r.RegisterName("Film at Lincoln Center", &LincolnParser{})

	// Any venue hosted on the RA listing platform shares one parser,
	// regardless of which physical venue the URL represents.
	r.RegisterPattern("ra.co", &RAParser{}, Hints{
		WarmupURLs:  []string{"https://ra.co/events/us/newyork"},
		UseLastGood: true,
	})

	return r
}

// RegisterName routes a venue to a parser by exact configured name.
func (r *Registry) RegisterName(name string, p Structural, hints ...Hints) {
	e := entry{parser: p}
	if len(hints) > 0 {
		e.hints = hints[0]
	}
	r.byName[name] = e
}

// RegisterPattern routes any URL containing pattern to a parser.
func (r *Registry) RegisterPattern(pattern string, p Structural, hints ...Hints) {
	e := entry{parser: p, urlPattern: pattern}
	if len(hints) > 0 {
		e.hints = hints[0]
	}
	r.byPattern = append(r.byPattern, e)
}

// Lookup finds the structural parser for a venue, URL patterns first so a
// platform URL wins over a venue-name collision.
func (r *Registry) Lookup(venueName, url string) (Structural, Hints, bool) {
	for _, e := range r.byPattern {
		if strings.Contains(url, e.urlPattern) {
			return e.parser, e.hints, true
		}
	}
	if e, ok := r.byName[venueName]; ok {
		return e.parser, e.hints, true
	}
	return nil, Hints{}, false
}
