package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserRenderer renders pages in a headless Chrome so client-side content
// is present in the returned markup. Every call launches an isolated
// browser that is torn down before Render returns.
type BrowserRenderer struct {
	UserAgent string
	Timeout   time.Duration
	// ExecPath overrides Chrome discovery when set.
	ExecPath string
}

// NewBrowserRenderer creates a headless Chrome renderer.
func NewBrowserRenderer(userAgent string, timeout time.Duration) *BrowserRenderer {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BrowserRenderer{UserAgent: userAgent, Timeout: timeout}
}

// Render navigates to url and returns the outer HTML of the document.
func (b *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(b.UserAgent),
		chromedp.Flag("incognito", true),
	)
	if b.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	navCtx, cancel := context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("timeout after %s: %w", b.Timeout, err)
		}
		return "", err
	}
	return html, nil
}
