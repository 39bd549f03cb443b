package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Failure taxonomy of a page render. Everything here aborts the whole crawl;
// partial results would be indistinguishable from a short listing set.
var (
	ErrAccessDenied = errors.New("access denied by target site")
	ErrBadStatus    = errors.New("unexpected response status")
	ErrNavigation   = errors.New("navigation failed")
	ErrTimeout      = errors.New("page load timed out")
)

const (
	listingRowSelector = ".list-row-v2"
	rowWaitTimeout     = 10 * time.Second
)

// Heavy and tracking resources are blocked to keep renders fast and cheap.
var blockedURLPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg",
	"*.woff", "*.woff2", "*.ttf", "*.mp4", "*.css",
	"*google-analytics.com*", "*googletagmanager.com*",
	"*doubleclick.net*", "*facebook.com*",
}

// Chromedp renders search pages in a shared headless browser. Renders are
// sequential with respect to the pipeline; no pooling is needed.
type Chromedp struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

func NewChromedp(headless bool, pageLoadTimeout time.Duration, logger *zap.Logger) *Chromedp {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(`Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36`),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Chromedp{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		timeout:     pageLoadTimeout,
		logger:      logger,
	}
}

// Close tears down the browser allocator.
func (r *Chromedp) Close() {
	r.cancelAlloc()
}

// Render navigates to url and returns the rendered HTML of the page.
func (r *Chromedp) Render(ctx context.Context, url string) (string, error) {
	taskCtx, cancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
	defer cancelTimeout()

	resp, err := chromedp.RunResponse(taskCtx,
		network.Enable(),
		network.SetBlockedURLs(blockedURLPatterns),
		chromedp.Navigate(url),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	if resp != nil {
		switch {
		case resp.Status == http.StatusForbidden:
			return "", fmt.Errorf("%w: %s", ErrAccessDenied, url)
		case resp.Status >= http.StatusBadRequest:
			return "", fmt.Errorf("%w: %d on %s", ErrBadStatus, resp.Status, url)
		}
	}

	// Listing rows render after navigation commits. A miss here is not
	// fatal: whatever did render still gets parsed.
	waitCtx, cancelWait := context.WithTimeout(taskCtx, rowWaitTimeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitReady(listingRowSelector, chromedp.ByQuery)); err != nil {
		r.logger.Warn("timed out waiting for listing rows", zap.String("url", url))
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	return html, nil
}
