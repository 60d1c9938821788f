package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

const firecrawlEndpoint = "https://api.firecrawl.dev/v1/scrape"

// FirecrawlClient is the managed scrape API strategy. A circuit breaker
// guards it against credit exhaustion: the first quota error opens the
// breaker for the rest of the run, so later venues skip the API without
// burning a request each.
type FirecrawlClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[string]
}

// NewFirecrawlClient returns a client for the managed scrape API. An empty
// apiKey yields a permanently disabled client.
func NewFirecrawlClient(apiKey string) *FirecrawlClient {
	c := &FirecrawlClient{
		apiKey:   apiKey,
		endpoint: firecrawlEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "firecrawl",
		MaxRequests: 1,
		// Credits do not replenish mid-run, so hold the breaker open far
		// longer than any crawl takes.
		Timeout: 24 * time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		// Only quota errors count as breaker failures; transient API
		// errors fall through to the next strategy without tripping it.
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, ErrQuotaExhausted)
		},
	})
	return c
}

// Enabled reports whether a scrape attempt is worth making.
func (c *FirecrawlClient) Enabled() bool {
	return c.apiKey != "" && c.breaker.State() != gobreaker.StateOpen
}

// Scrape asks the managed API to fetch and convert url to markdown.
func (c *FirecrawlClient) Scrape(ctx context.Context, url string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("no scrape API key configured")
	}
	md, err := c.breaker.Execute(func() (string, error) {
		return backoff.RetryWithData(func() (string, error) {
			md, err := c.scrapeOnce(ctx, url)
			return md, permanent(err)
		}, backoff.WithContext(newBackOff(2), ctx))
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		return "", ErrQuotaExhausted
	}
	return md, err
}

func (c *FirecrawlClient) scrapeOnce(ctx context.Context, url string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"url":     url,
		"formats": []string{"markdown"},
	})
	if err != nil {
		return "", fmt.Errorf("encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build scrape request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("scrape request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read scrape response: %w", err)
	}

	if quotaExhausted(resp.StatusCode, body) {
		return "", ErrQuotaExhausted
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scrape API status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Markdown string `json:"markdown"`
		} `json:"data"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode scrape response: %w", err)
	}
	if !out.Success {
		if strings.Contains(strings.ToLower(out.Error), "insufficient credits") {
			return "", ErrQuotaExhausted
		}
		return "", fmt.Errorf("scrape API error: %s", out.Error)
	}
	if out.Data.Markdown == "" {
		return "", errors.New("scrape API returned empty markdown")
	}
	return out.Data.Markdown, nil
}

// quotaExhausted recognizes the API's out-of-credits responses, which show
// up both as 402s and as error messages inside 200-class bodies.
func quotaExhausted(status int, body []byte) bool {
	if status == http.StatusPaymentRequired {
		return true
	}
	return bytes.Contains(bytes.ToLower(body), []byte("insufficient credits"))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
