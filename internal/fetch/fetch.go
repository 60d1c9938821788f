// Package fetch obtains raw page content for venue URLs. Three strategies
// are tried in a fixed order with graceful degradation: the managed scrape
// API, headless browser rendering, and a plain HTTP GET. A fully exhausted
// chain is a per-venue condition, never a fatal one.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"concertscout/internal/cache"
	"concertscout/internal/normalize"
)

// ContentKind tells the parser stage what the fetched content is.
type ContentKind int

const (
	KindHTML ContentKind = iota
	KindMarkdown
	KindPDFText
)

// MinContentBytes is the smallest rendered page treated as a real result.
// Anti-bot interstitials and failed renders come back near-empty.
const MinContentBytes = 100

var (
	// ErrQuotaExhausted means the managed scrape API is out of credits for
	// the rest of the run. Non-retryable.
	ErrQuotaExhausted = errors.New("scrape API credits exhausted")
	// ErrContentTooSmall flags a render below MinContentBytes.
	ErrContentTooSmall = errors.New("rendered content below minimum size")
	// ErrExhausted means every strategy failed for a URL.
	ErrExhausted = errors.New("all fetch strategies failed")
)

// Result is the outcome of a successful fetch.
type Result struct {
	Content string
	Kind    ContentKind
}

// ManagedScraper is the remote scrape API strategy. It returns
// already-converted markdown, skipping the normalizer.
type ManagedScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
	// Enabled reports whether the strategy is usable at all (key present
	// and circuit breaker not tripped by quota exhaustion).
	Enabled() bool
}

// Renderer is the headless-browser strategy.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Getter is the plain HTTP strategy. It returns the raw body and the
// response Content-Type.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Chain runs the strategies in preference order, backed by the aged disk
// cache. All fields are optional except HTTP; a nil strategy is skipped.
type Chain struct {
	Managed ManagedScraper
	Browser Renderer
	HTTP    Getter
	Cache   *cache.Store
	Log     zerolog.Logger
}

// Fetch obtains content for url. PDF URLs bypass the browser entirely and
// come back as extracted text; everything else comes back as HTML (from
// cache, browser, or plain GET) or markdown (from the managed API).
func (c *Chain) Fetch(ctx context.Context, url string) (Result, error) {
	if isPDF(url, "") {
		return c.fetchPDF(ctx, url)
	}

	if c.Managed != nil && c.Managed.Enabled() {
		md, err := c.Managed.Scrape(ctx, url)
		if err == nil {
			return Result{Content: md, Kind: KindMarkdown}, nil
		}
		if errors.Is(err, ErrQuotaExhausted) {
			c.Log.Info().Str("url", url).Msg("scrape API credits exhausted, falling back to direct scraping")
		} else {
			c.Log.Warn().Err(err).Str("url", url).Msg("scrape API error")
		}
	}

	if cached := c.cacheGet(url); cached != nil {
		c.Log.Info().Str("url", url).Msg("using cached content")
		if looksPDF(cached) {
			return pdfResult(cached)
		}
		return Result{Content: string(cached), Kind: KindHTML}, nil
	}

	if c.Browser != nil {
		html, err := c.Browser.Render(ctx, url)
		if err == nil && len(html) >= MinContentBytes {
			c.cachePut(url, []byte(html))
			return Result{Content: html, Kind: KindHTML}, nil
		}
		if err == nil {
			err = ErrContentTooSmall
		}
		c.Log.Warn().Err(err).Str("url", url).Msg("browser render failed, trying plain HTTP")
	}

	body, contentType, err := c.HTTP.Get(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrExhausted, url, err)
	}
	c.cachePut(url, body)
	// Some venues serve PDF calendars from extensionless URLs.
	if isPDF(url, contentType) || looksPDF(body) {
		return pdfResult(body)
	}
	return Result{Content: string(body), Kind: KindHTML}, nil
}

func (c *Chain) fetchPDF(ctx context.Context, url string) (Result, error) {
	raw := c.cacheGet(url)
	if raw == nil {
		body, _, err := c.HTTP.Get(ctx, url)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrExhausted, url, err)
		}
		c.cachePut(url, body)
		raw = body
	}
	return pdfResult(raw)
}

func pdfResult(raw []byte) (Result, error) {
	text, err := normalize.PDFText(raw)
	if err != nil {
		return Result{}, fmt.Errorf("extract pdf text: %w", err)
	}
	return Result{Content: text, Kind: KindPDFText}, nil
}

// cacheGet treats every cache failure as a miss.
func (c *Chain) cacheGet(url string) []byte {
	if c.Cache == nil {
		return nil
	}
	data, err := c.Cache.Get(url)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.Log.Warn().Err(err).Str("url", url).Msg("cache read failed")
		}
		return nil
	}
	return data
}

func (c *Chain) cachePut(url string, data []byte) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.Put(url, data); err != nil {
		c.Log.Warn().Err(err).Str("url", url).Msg("cache write failed")
	}
}

func isPDF(url, contentType string) bool {
	return strings.HasSuffix(strings.ToLower(url), ".pdf") ||
		strings.Contains(strings.ToLower(contentType), "application/pdf")
}

// looksPDF sniffs the PDF magic number, covering cache entries whose
// Content-Type was not stored.
func looksPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
