package crawler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"scraper/internal/config"
	"scraper/internal/discovery"
	"scraper/internal/domain"
	"scraper/internal/monitoring"
)

// Discoverer produces the URL set for a site.
type Discoverer interface {
	Discover(ctx context.Context, baseURL string) (*discovery.Result, error)
}

// URLProcessor runs the full retry/escalation loop for one URL.
type URLProcessor interface {
	ProcessURL(ctx context.Context, rawURL string) ([]domain.ContentItem, error)
}

// ItemStore persists extracted items and per-URL processing state.
type ItemStore interface {
	SaveItems(ctx context.Context, items []domain.ContentItem) error
	SaveURLStatus(ctx context.Context, url, status, failReason string) error
}

// CrawlMarker tracks cross-run crawl state.
type CrawlMarker interface {
	IsRecentlyCrawled(ctx context.Context, url string) (bool, error)
	MarkAsCrawled(ctx context.Context, url string, ttl time.Duration) error
	IncrementExhaustedCount(ctx context.Context, url string) (int64, error)
}

// Crawler orchestrates whole-site crawls: discovery, then a worker pool of
// per-URL orchestrated fetches. Per-URL failures never abort the crawl.
type Crawler struct {
	cfg       *config.Config
	discovery Discoverer
	processor URLProcessor
	store     ItemStore
	marker    CrawlMarker
	metrics   *monitoring.Metrics
	logger    *zap.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// Job tracks one asynchronous site crawl.
type Job struct {
	ID        string              `json:"id"`
	BaseURL   string              `json:"base_url"`
	State     string              `json:"state"` // "running", "done"
	StartedAt time.Time           `json:"started_at"`
	Result    *domain.CrawlResult `json:"result,omitempty"`
}

func NewCrawler(cfg *config.Config, d Discoverer, p URLProcessor, store ItemStore, marker CrawlMarker,
	m *monitoring.Metrics, l *zap.Logger) *Crawler {
	return &Crawler{
		cfg:       cfg,
		discovery: d,
		processor: p,
		store:     store,
		marker:    marker,
		metrics:   m,
		logger:    l,
		jobs:      make(map[string]*Job),
	}
}

// StartCrawl launches a site crawl in the background and returns its job ID.
func (c *Crawler) StartCrawl(baseURL string, force bool) string {
	job := &Job{
		ID:        newJobID(),
		BaseURL:   baseURL,
		State:     "running",
		StartedAt: time.Now(),
	}
	c.mu.Lock()
	c.jobs[job.ID] = job
	c.mu.Unlock()

	go func() {
		result := c.CrawlSite(context.Background(), baseURL, force)
		c.mu.Lock()
		job.Result = result
		job.State = "done"
		c.mu.Unlock()
	}()

	return job.ID
}

// GetJob returns a copy of the job's current state.
func (c *Crawler) GetJob(id string) (Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// CrawlSite discovers the site's URL set and processes every in-scope URL.
// The returned result always carries the most specific status.
func (c *Crawler) CrawlSite(ctx context.Context, baseURL string, force bool) *domain.CrawlResult {
	c.logger.Info("starting crawl", zap.String("base_url", baseURL))

	discovered, err := c.discovery.Discover(ctx, baseURL)
	if err != nil {
		c.logger.Error("discovery failed", zap.String("base_url", baseURL), zap.Error(err))
		c.metrics.IncErrorsTotal("discovery_failed")
		return &domain.CrawlResult{
			TeamID: c.cfg.TeamID,
			Items:  []domain.ContentItem{},
			Status: discoveryStatus(err),
		}
	}

	base, _ := url.Parse(baseURL)
	baseHost := ""
	if base != nil {
		baseHost = base.Host
	}

	c.logger.Info("discovery complete",
		zap.String("base_url", baseURL),
		zap.Int("urls", len(discovered.URLs)),
		zap.Bool("via_sitemap", discovered.ViaSitemap))

	var (
		itemsMu   sync.Mutex
		allItems  []domain.ContentItem
		attempted int
		exhausted int
	)

	tasks := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < c.cfg.CrawlWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range tasks {
				items, outcome := c.processURL(ctx, u, baseHost, force)
				itemsMu.Lock()
				switch outcome {
				case outcomeScraped:
					attempted++
					allItems = append(allItems, items...)
				case outcomeExhausted:
					attempted++
					exhausted++
				}
				itemsMu.Unlock()
			}
		}()
	}

	for _, u := range discovered.URLs {
		tasks <- u
	}
	close(tasks)
	wg.Wait()

	status := domain.StatusCrawlCompleted
	if attempted > 0 && exhausted == attempted {
		status = domain.StatusAllStrategiesFailed
	}

	c.logger.Info("crawl finished",
		zap.String("base_url", baseURL),
		zap.Int("items", len(allItems)),
		zap.String("status", status))

	if allItems == nil {
		allItems = []domain.ContentItem{}
	}
	return &domain.CrawlResult{TeamID: c.cfg.TeamID, Items: allItems, Status: status}
}

type urlOutcome int

const (
	outcomeSkipped urlOutcome = iota
	outcomeScraped
	outcomeExhausted
)

// processURL handles one discovered URL: domain scoping, recently-crawled
// skip, the orchestrated fetch, and persistence of whatever came back.
func (c *Crawler) processURL(ctx context.Context, rawURL, baseHost string, force bool) ([]domain.ContentItem, urlOutcome) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host != baseHost {
		// Off-domain URLs are skipped silently: no attempt, no memory update.
		c.logger.Info("skipping URL from different domain", zap.String("url", rawURL))
		c.metrics.IncURLProcessed("skipped")
		return nil, outcomeSkipped
	}

	if !force {
		crawled, err := c.marker.IsRecentlyCrawled(ctx, rawURL)
		if err != nil {
			c.logger.Error("failed to check crawl marker", zap.String("url", rawURL), zap.Error(err))
		}
		if crawled {
			c.logger.Info("skipping recently crawled URL", zap.String("url", rawURL))
			c.metrics.IncURLProcessed("skipped")
			return nil, outcomeSkipped
		}
	}

	if err := c.store.SaveURLStatus(ctx, rawURL, "processing", ""); err != nil {
		c.logger.Error("failed to mark URL as processing", zap.String("url", rawURL), zap.Error(err))
	}

	items, err := c.processor.ProcessURL(ctx, rawURL)
	if err != nil {
		c.logger.Warn("URL exhausted all strategies", zap.String("url", rawURL), zap.Error(err))
		c.metrics.IncURLProcessed("exhausted")
		if err := c.store.SaveURLStatus(ctx, rawURL, "failed", err.Error()); err != nil {
			c.logger.Error("failed to mark URL as failed", zap.String("url", rawURL), zap.Error(err))
		}
		if count, markErr := c.marker.IncrementExhaustedCount(ctx, rawURL); markErr == nil && count > 1 {
			c.logger.Warn("URL has repeatedly exhausted all strategies",
				zap.String("url", rawURL), zap.Int64("times", count))
		}
		return nil, outcomeExhausted
	}

	c.metrics.IncURLProcessed("scraped")
	if err := c.store.SaveItems(ctx, items); err != nil {
		// Items were lost; leave the URL unmarked so the next run retries it.
		c.logger.Error("error saving items", zap.String("url", rawURL), zap.Error(err))
		c.metrics.IncErrorsTotal("db_save_failed")
		return items, outcomeScraped
	}

	if err := c.store.SaveURLStatus(ctx, rawURL, "completed", ""); err != nil {
		c.logger.Error("failed to mark URL as completed", zap.String("url", rawURL), zap.Error(err))
	}

	ttl := time.Duration(c.cfg.DeduplicationDays) * 24 * time.Hour
	if err := c.marker.MarkAsCrawled(ctx, rawURL, ttl); err != nil {
		c.logger.Error("failed to set crawl marker", zap.String("url", rawURL), zap.Error(err))
	}

	return items, outcomeScraped
}

func discoveryStatus(err error) string {
	switch {
	case errors.Is(err, discovery.ErrFallbackFailed):
		return domain.StatusFallbackFailed
	case errors.Is(err, discovery.ErrNoURLs):
		return domain.StatusNoURLsFound
	default:
		return domain.StatusNoURLsFound
	}
}

func newJobID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
