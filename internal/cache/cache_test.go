package cache

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestGetReturnsFreshEntry(t *testing.T) {
	s, err := New(t.TempDir(), 24*time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Put("https://example.com/calendar", []byte("<html>shows</html>")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get("https://example.com/calendar")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "<html>shows</html>" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestGetMissesUnknownURL(t *testing.T) {
	s, err := New(t.TempDir(), 24*time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Get("https://example.com/never-stored"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestAgeBoundary(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		hit  bool
	}{
		{name: "23 hours old is served", age: 23 * time.Hour, hit: true},
		{name: "25 hours old is expired", age: 25 * time.Hour, hit: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(t.TempDir(), 24*time.Hour)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			const url = "https://example.com/"
			if err := s.Put(url, []byte("cached")); err != nil {
				t.Fatalf("Put: %v", err)
			}

			stale := time.Now().Add(-tc.age)
			if err := os.Chtimes(s.Path(url), stale, stale); err != nil {
				t.Fatalf("Chtimes: %v", err)
			}

			_, err = s.Get(url)
			if tc.hit && err != nil {
				t.Fatalf("expected hit, got %v", err)
			}
			if !tc.hit && !errors.Is(err, ErrMiss) {
				t.Fatalf("expected ErrMiss, got %v", err)
			}
		})
	}
}

func TestPutOverwritesExpiredEntry(t *testing.T) {
	s, err := New(t.TempDir(), 24*time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const url = "https://example.com/"
	if err := s.Put(url, []byte("old")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(s.Path(url), stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if err := s.Put(url, []byte("new")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(url)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("expected refreshed entry, got %q", got)
	}
}

func TestLastGoodPersistsUntilOverwritten(t *testing.T) {
	l, err := NewLastGood(t.TempDir())
	if err != nil {
		t.Fatalf("NewLastGood: %v", err)
	}

	if _, err := l.Get("Nowhere Club"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss for unknown venue, got %v", err)
	}

	if err := l.Put("Nowhere Club", []byte(`[{"artist":"A"}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := l.Get("Nowhere Club")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"artist":"A"}]` {
		t.Fatalf("unexpected content: %q", got)
	}

	if err := l.Put("Nowhere Club", []byte(`[{"artist":"B"}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ = l.Get("Nowhere Club")
	if string(got) != `[{"artist":"B"}]` {
		t.Fatalf("expected overwrite, got %q", got)
	}
}
