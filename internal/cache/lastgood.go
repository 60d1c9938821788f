package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// LastGood is a success-only cache keyed by venue, separate from the aged
// fetch cache. Entries never expire; each successful scrape overwrites the
// previous one. It exists so a venue behind aggressive anti-bot defenses can
// fall back to its most recent good result when every live strategy fails.
type LastGood struct {
	dir string
}

// NewLastGood creates the directory if needed and returns the cache.
func NewLastGood(dir string) (*LastGood, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create last-good dir: %w", err)
	}
	return &LastGood{dir: dir}, nil
}

func (l *LastGood) path(venue string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(venue), "-"), "-")
	return filepath.Join(l.dir, slug+".json")
}

// Get returns the last successful result for a venue, or ErrMiss.
func (l *LastGood) Get(venue string) ([]byte, error) {
	data, err := os.ReadFile(l.path(venue))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("read last-good entry: %w", err)
	}
	return data, nil
}

// Put records a successful result for a venue.
func (l *LastGood) Put(venue string, data []byte) error {
	if err := os.WriteFile(l.path(venue), data, 0o644); err != nil {
		return fmt.Errorf("write last-good entry: %w", err)
	}
	return nil
}
