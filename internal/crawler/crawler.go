// Package crawler drives the scraping pipeline: for each configured venue,
// fetch content, parse it structurally or generically, and ingest the
// resulting events. Venues are processed in small throttled batches; one
// venue failing never stops the run.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"concertscout/internal/cache"
	"concertscout/internal/fetch"
	"concertscout/internal/models"
	"concertscout/internal/normalize"
	"concertscout/internal/parse"
	"concertscout/internal/store"
)

const (
	defaultBatchSize  = 3
	defaultBatchPause = 30 * time.Second
	defaultWorkers    = 1
)

// Ingestor is the store surface the crawler needs.
type Ingestor interface {
	IngestEvents(ctx context.Context, cfg models.VenueConfig, events []models.CanonicalEvent) (store.IngestStats, error)
	TouchLastScraped(ctx context.Context, name string) error
}

// ContentFetcher is the acquisition chain surface.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Result, error)
}

// WarmRenderer renders a page after visiting warm-up URLs in the same
// browser session, for platforms that gate cold hits.
type WarmRenderer interface {
	RenderWarmed(ctx context.Context, url string, warmup []string) (string, error)
}

// Getter is the plain HTTP fallback used by the anti-bot ladder.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Crawler orchestrates the fetch → normalize → parse → ingest pipeline.
type Crawler struct {
	Venues   []models.VenueConfig
	Chain    ContentFetcher
	Warm     WarmRenderer
	HTTP     Getter
	Registry *parse.Registry
	Generic  *parse.Generic
	Store    Ingestor
	LastGood *cache.LastGood
	Log      zerolog.Logger

	// Throttling knobs; zero values get defaults.
	BatchSize  int
	BatchPause time.Duration
	Workers    int
}

// Run processes every configured venue. Venues go through in batches with a
// pause between them, a small worker pool inside each batch. The returned
// error only reports context cancellation; per-venue failures are logged.
func (c *Crawler) Run(ctx context.Context) error {
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	pause := c.BatchPause
	if pause <= 0 {
		pause = defaultBatchPause
	}
	workers := c.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	for start := 0; start < len(c.Venues); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + batchSize
		if end > len(c.Venues) {
			end = len(c.Venues)
		}
		c.runBatch(ctx, c.Venues[start:end], workers)

		if end < len(c.Venues) {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (c *Crawler) runBatch(ctx context.Context, batch []models.VenueConfig, workers int) {
	if workers > len(batch) {
		workers = len(batch)
	}

	venues := make(chan models.VenueConfig)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cfg := range venues {
				c.processVenue(ctx, cfg)
			}
		}()
	}
	for _, cfg := range batch {
		venues <- cfg
	}
	close(venues)
	wg.Wait()
}

// processVenue runs one venue's full pipeline. Every failure is terminal
// for this venue only.
func (c *Crawler) processVenue(ctx context.Context, cfg models.VenueConfig) {
	started := time.Now()
	events, err := c.extract(ctx, cfg)
	if err != nil {
		c.Log.Error().Err(err).Str("venue", cfg.Name).Dur("duration_ms", time.Since(started)).Msg("venue scrape failed")
		return
	}
	if len(events) == 0 {
		c.Log.Info().Str("venue", cfg.Name).Msg("no events extracted")
		return
	}

	stats, err := c.Store.IngestEvents(ctx, cfg, events)
	if err != nil {
		c.Log.Error().Err(err).Str("venue", cfg.Name).Msg("venue ingestion aborted")
		return
	}
	if err := c.Store.TouchLastScraped(ctx, cfg.Name); err != nil && !errors.Is(err, store.ErrVenueNotFound) {
		c.Log.Warn().Err(err).Str("venue", cfg.Name).Msg("could not record scrape time")
	}

	c.Log.Info().
		Str("venue", cfg.Name).
		Int("extracted", len(events)).
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("rejected", stats.Rejected).
		Dur("duration_ms", time.Since(started)).
		Msg("venue processed")
}

// extract obtains canonical events for a venue, routing to its structural
// parser when one is registered and to the generic parser otherwise.
func (c *Crawler) extract(ctx context.Context, cfg models.VenueConfig) ([]models.CanonicalEvent, error) {
	structural, hints, ok := c.Registry.Lookup(cfg.Name, cfg.URL)
	if ok {
		return c.extractStructural(ctx, cfg, structural, hints)
	}

	res, err := c.Chain.Fetch(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	text := res.Content
	if res.Kind == fetch.KindHTML {
		text, err = normalize.HTMLToMarkdown(res.Content)
		if err != nil {
			return nil, fmt.Errorf("normalize content: %w", err)
		}
	}
	return c.Generic.Parse(ctx, text, cfg), nil
}

// extractStructural feeds venue content to its structural parser. Venues
// flagged with anti-bot hints climb a ladder: warmed browser session, plain
// HTTP, and finally the venue's last successful result.
func (c *Crawler) extractStructural(ctx context.Context, cfg models.VenueConfig, p parse.Structural, hints parse.Hints) ([]models.CanonicalEvent, error) {
	if len(hints.WarmupURLs) == 0 && !hints.UseLastGood {
		res, err := c.Chain.Fetch(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return p.Parse(res.Content, time.Now())
	}

	events, err := c.antiBotLadder(ctx, cfg, p, hints)
	if err != nil {
		return nil, err
	}
	if hints.UseLastGood && c.LastGood != nil && len(events) > 0 {
		if data, merr := json.Marshal(events); merr == nil {
			if perr := c.LastGood.Put(cfg.Name, data); perr != nil {
				c.Log.Warn().Err(perr).Str("venue", cfg.Name).Msg("could not persist last-good result")
			}
		}
	}
	return events, nil
}

func (c *Crawler) antiBotLadder(ctx context.Context, cfg models.VenueConfig, p parse.Structural, hints parse.Hints) ([]models.CanonicalEvent, error) {
	if c.Warm != nil {
		html, err := c.Warm.RenderWarmed(ctx, cfg.URL, hints.WarmupURLs)
		if err == nil {
			if events, perr := p.Parse(html, time.Now()); perr == nil && len(events) > 0 {
				return events, nil
			}
		}
		c.Log.Warn().Err(err).Str("venue", cfg.Name).Msg("warmed browser fetch failed, trying plain HTTP")
	}

	if c.HTTP != nil {
		body, _, err := c.HTTP.Get(ctx, cfg.URL)
		if err == nil {
			if events, perr := p.Parse(string(body), time.Now()); perr == nil && len(events) > 0 {
				return events, nil
			}
		}
		c.Log.Warn().Err(err).Str("venue", cfg.Name).Msg("plain HTTP fetch failed")
	}

	if hints.UseLastGood && c.LastGood != nil {
		data, err := c.LastGood.Get(cfg.Name)
		if err == nil {
			var events []models.CanonicalEvent
			if uerr := json.Unmarshal(data, &events); uerr == nil {
				c.Log.Info().Str("venue", cfg.Name).Msg("serving last successful scrape result")
				return events, nil
			}
		}
	}
	return nil, fmt.Errorf("all acquisition strategies failed for %s", cfg.Name)
}
