package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/markup-checker/internal/logging"
)

// DefaultSettleDelay gives page scripts time to finish building the DOM.
const DefaultSettleDelay = 2 * time.Second

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Use it for pages whose markup is assembled by scripts after load.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, logger *zap.Logger) (string, error) {
	logger = logging.OrNop(logger)
	if _, err := ValidateURL(url); err != nil {
		return "", err
	}
	logger.Debug("Starting headless browser", zap.String("url", url))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(DefaultSettleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	logger.Debug("Rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// Page fetches a page over HTTP, or through the headless browser when useBrowser is set.
func Page(ctx context.Context, url string, useBrowser bool, opts *Options, logger *zap.Logger) (*Result, error) {
	if !useBrowser {
		return URL(ctx, url, opts)
	}

	timeout := DefaultTimeout
	if opts != nil && opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	html, err := WithBrowser(ctx, url, timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", url, err)
	}
	return &Result{URL: url, FinalURL: url, HTML: html, ContentType: "text/html", StatusCode: 200}, nil
}
