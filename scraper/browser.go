package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"listing-counter/models"
	"listing-counter/utils"
)

// BrowserFetcher renders a page in headless Chrome and returns the final DOM.
// It is used for search pages that only carry their count after client-side
// rendering. Each call is one navigation in a fresh tab of a shared browser.
type BrowserFetcher struct {
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc

	timeout time.Duration
	settle  time.Duration
	logger  *utils.Logger
}

// NewBrowserFetcher launches Chrome once; every Fetch opens a tab in that
// browser. Close must be called to release the Chrome process.
func NewBrowserFetcher(chromeBin, userAgent string, timeout, settle time.Duration, logger *utils.Logger) (*BrowserFetcher, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Running an empty action list starts the browser; tabs created from
	// browserCtx afterwards attach to it instead of spawning a new process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &BrowserFetcher{
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelTab:   cancelTab,
		timeout:     timeout,
		settle:      settle,
		logger:      logger,
	}, nil
}

// Fetch navigates to url, waits for the page to settle and returns the outer
// HTML of the document.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*models.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Kind: models.NetworkFailure, URL: url, Err: err}
	}

	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()

	timeout := b.timeout + b.settle
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	// Follow the caller's cancellation as well as our own deadline.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{Kind: models.NetworkFailure, URL: url, Err: fmt.Errorf("chromedp render: %w", err)}
	}

	return &models.RawResponse{
		URL:         url,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(html),
	}, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	b.cancelTab()
	b.cancelAlloc()
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
