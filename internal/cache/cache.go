// Package cache provides the on-disk fetch cache. Entries are keyed by the
// SHA-256 of the source URL and expire by file age; there is no other
// eviction, which is acceptable for a small fixed venue set.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultMaxAge is how long a cached fetch stays valid.
const DefaultMaxAge = 24 * time.Hour

// ErrMiss is returned when no valid entry exists for a URL.
var ErrMiss = errors.New("cache miss")

// Store is a content cache on the local filesystem.
type Store struct {
	dir    string
	maxAge time.Duration
}

// New creates the cache directory if needed and returns a Store.
// A non-positive maxAge falls back to DefaultMaxAge.
func New(dir string, maxAge time.Duration) (*Store, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir, maxAge: maxAge}, nil
}

// Path returns the cache file path for a URL.
func (s *Store) Path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".cache")
}

// Get returns the cached bytes for url, or ErrMiss when the entry is absent
// or older than the configured max age. Read errors surface to the caller,
// which must treat them as a miss, never as fatal.
func (s *Store) Get(url string) ([]byte, error) {
	path := s.Path(url)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("stat cache entry: %w", err)
	}
	if time.Since(info.ModTime()) >= s.maxAge {
		return nil, ErrMiss
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	return data, nil
}

// Put stores the bytes for url, overwriting any prior entry.
func (s *Store) Put(url string, data []byte) error {
	if err := os.WriteFile(s.Path(url), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}
