package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"scraper/internal/domain"
	"scraper/internal/identity"
)

// RenderedBrowser launches an isolated, disposable headless browser session
// per fetch, waits for the page to render and reads the full document. No
// session is shared across URLs or attempts, so cookies and fingerprints
// never leak between strategies.
type RenderedBrowser struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewRenderedBrowser(timeout time.Duration, logger *zap.Logger) *RenderedBrowser {
	return &RenderedBrowser{timeout: timeout, logger: logger}
}

func (s *RenderedBrowser) ID() domain.StrategyID { return domain.StrategyRenderedBrowser }

func (s *RenderedBrowser) Fetch(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(identity.DefaultUserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, s.timeout)
	defer timeoutCancel()

	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigationFailed, rawURL, err)
	}

	// Surgical extraction for the problematic company-guides listing: walk
	// the DOM directly and return finished items instead of raw content.
	if isCompanyGuidesURL(rawURL) {
		s.logger.Info("applying surgical extraction for company guides", zap.String("url", rawURL))
		var links []guideLink
		if err := chromedp.Run(taskCtx, chromedp.Evaluate(companyGuidesJS, &links)); err != nil {
			return nil, fmt.Errorf("company guides DOM query on %s: %w", rawURL, err)
		}
		return &domain.FetchResult{FinalURL: rawURL, Items: guideItems(links)}, nil
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("reading rendered document of %s: %w", rawURL, err)
	}

	return &domain.FetchResult{RawContent: html, FinalURL: rawURL}, nil
}
