package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightFetcher is the secondary render engine, driving Firefox instead
// of Chrome. Some venues block one engine's fingerprint but not the other's.
type PlaywrightFetcher struct {
	Proxy   string
	Timeout time.Duration
	Settle  time.Duration
}

// Render loads url in headless Firefox and returns the resulting HTML.
func (p *PlaywrightFetcher) Render(ctx context.Context, url string) (string, error) {
	pw, err := playwright.Run()
	if err != nil {
		return "", fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	}
	if p.Proxy != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: p.Proxy}
	}
	browser, err := pw.Firefox.Launch(launchOpts)
	if err != nil {
		return "", fmt.Errorf("launch firefox: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(browserUA),
	})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(p.timeout().Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	select {
	case <-time.After(p.settleDelay()):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	if len(html) < MinContentBytes {
		return "", ErrContentTooSmall
	}
	return html, nil
}

func (p *PlaywrightFetcher) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return 45 * time.Second
}

func (p *PlaywrightFetcher) settleDelay() time.Duration {
	if p.Settle > 0 {
		return p.Settle
	}
	return 3 * time.Second
}
