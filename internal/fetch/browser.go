package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// BrowserFetcher renders pages in headless Chrome so JavaScript-built
// listings are visible, with an optional secondary engine tried when Chrome
// itself fails. It satisfies the chain's Renderer interface.
type BrowserFetcher struct {
	Proxy     string
	PageLoad  time.Duration
	Settle    time.Duration
	Secondary Renderer
	Log       zerolog.Logger
}

// NewBrowserFetcher returns a renderer with the default timing: 45s page
// load budget and a 3s settle pause for late-loading listings.
func NewBrowserFetcher(proxy string, secondary Renderer) *BrowserFetcher {
	return &BrowserFetcher{
		Proxy:     proxy,
		PageLoad:  45 * time.Second,
		Settle:    3 * time.Second,
		Secondary: secondary,
	}
}

// Render navigates to url and returns the post-JavaScript HTML. On Chrome
// failure it falls through to the secondary engine when one is configured.
func (b *BrowserFetcher) Render(ctx context.Context, url string) (string, error) {
	html, err := b.RenderWarmed(ctx, url, nil)
	if err != nil && b.Secondary != nil {
		b.Log.Warn().Err(err).Str("url", url).Msg("primary browser engine failed, trying secondary")
		return b.Secondary.Render(ctx, url)
	}
	return html, err
}

// RenderWarmed visits each warm-up URL before the target within the same
// browser session, accumulating cookies and a plausible referer trail for
// venues that gate direct hits.
func (b *BrowserFetcher) RenderWarmed(ctx context.Context, url string, warmup []string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, b.pageLoad()*time.Duration(1+len(warmup)))
	defer cancelTimeout()

	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(browserUA),
	}
	for _, w := range warmup {
		tasks = append(tasks,
			chromedp.Navigate(w),
			chromedp.Sleep(b.settle()),
		)
	}
	var html string
	tasks = append(tasks,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.settle()),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	if len(html) < MinContentBytes {
		return "", ErrContentTooSmall
	}
	return html, nil
}

func (b *BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Hide the automation fingerprint that trips bot detection.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(browserUA),
	)
	if b.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(b.Proxy))
	}
	return opts
}

func (b *BrowserFetcher) pageLoad() time.Duration {
	if b.PageLoad > 0 {
		return b.PageLoad
	}
	return 45 * time.Second
}

func (b *BrowserFetcher) settle() time.Duration {
	if b.Settle > 0 {
		return b.Settle
	}
	return 3 * time.Second
}
