package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"scraper/internal/domain"
	"scraper/internal/identity"
)

// webdriverOverrideJS hides the automation marker before any page script
// runs. It must be installed prior to navigation.
const webdriverOverrideJS = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// HardenedBrowser is the last-resort escalation: a rendered-browser fetch
// with anti-automation-detection launch flags, a fixed large viewport, a
// spoofed navigator.webdriver property and a 3-6s randomized settle delay.
type HardenedBrowser struct {
	timeout time.Duration
	pool    *identity.Pool
}

func NewHardenedBrowser(timeout time.Duration, pool *identity.Pool) *HardenedBrowser {
	return &HardenedBrowser{timeout: timeout, pool: pool}
}

func (s *HardenedBrowser) ID() domain.StrategyID { return domain.StrategyHardenedBrowser }

func (s *HardenedBrowser) Fetch(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(identity.DefaultUserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, s.timeout)
	defer timeoutCancel()

	if err := chromedp.Run(taskCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(webdriverOverrideJS).Do(ctx)
			return err
		}),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigationFailed, rawURL, err)
	}

	// Human-like settle delay before reading the document.
	settle := 3*time.Second + time.Duration(s.pool.Jitter()*float64(3*time.Second))
	if err := sleepCtx(taskCtx, settle); err != nil {
		return nil, err
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("reading rendered document of %s: %w", rawURL, err)
	}

	return &domain.FetchResult{RawContent: html, FinalURL: rawURL}, nil
}
