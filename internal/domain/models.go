package domain

import "time"

// StrategyID identifies one of the closed set of fetch strategies.
type StrategyID string

const (
	StrategyPlainRequest    StrategyID = "plain_request"
	StrategyRotatedRequest  StrategyID = "rotated_request"
	StrategyRenderedBrowser StrategyID = "rendered_browser"
	StrategyHardenedBrowser StrategyID = "hardened_browser"
)

// StrategyOrder lists all strategies in ascending cost/stealth order.
// Policy escalation walks this slice.
var StrategyOrder = []StrategyID{
	StrategyPlainRequest,
	StrategyRotatedRequest,
	StrategyRenderedBrowser,
	StrategyHardenedBrowser,
}

// Valid reports whether s is a member of the known strategy set.
func (s StrategyID) Valid() bool {
	for _, id := range StrategyOrder {
		if s == id {
			return true
		}
	}
	return false
}

// Attempt records one try within a single URL's retry loop. It lives only
// for the duration of that loop.
type Attempt struct {
	Strategy  StrategyID
	Succeeded bool
	Ordinal   int
}

// FetchResult is the output of a successful strategy execution. Items is
// populated instead of RawContent when a strategy short-circuits generic
// extraction with pre-built items.
type FetchResult struct {
	RawContent string
	FinalURL   string
	Items      []ContentItem
}

// ContentItem is the structured record produced by the extraction oracle.
type ContentItem struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	SourceURL   string `json:"source_url"`
	Author      string `json:"author"`
	UserID      string `json:"user_id"`
}

// Crawl result statuses. The most specific outcome wins.
const (
	StatusCrawlCompleted      = "crawl_completed"
	StatusNoURLsFound         = "no_urls_found"
	StatusFallbackFailed      = "fallback_failed"
	StatusAllStrategiesFailed = "all_strategies_failed"
)

// CrawlResult is the caller-visible outcome of one site crawl.
type CrawlResult struct {
	TeamID string        `json:"team_id"`
	Items  []ContentItem `json:"items"`
	Status string        `json:"status"`
}

// CrawlRequest is the payload for the API.
type CrawlRequest struct {
	URL        string `json:"url"`
	ForceCrawl bool   `json:"force_crawl"` // Bypass the recently-crawled rule
}

// URLStatusResponse is the API response for a per-URL status query.
type URLStatusResponse struct {
	URL        string    `json:"url"`
	Status     string    `json:"status"` // "processing", "completed", "failed"
	FailReason string    `json:"fail_reason,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
