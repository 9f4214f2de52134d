package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"scraper/internal/identity"
	"scraper/internal/monitoring"
)

var (
	// ErrFallbackFailed means neither a sitemap nor the base page itself
	// could be fetched, so no discovery at all was possible.
	ErrFallbackFailed = errors.New("could not fetch base URL for link discovery")
	// ErrNoURLs means discovery ran but produced an empty set.
	ErrNoURLs = errors.New("no URLs discovered")
)

// Result is the deduplicated URL set for one crawl invocation.
type Result struct {
	URLs              []string
	DuplicatesRemoved int
	ViaSitemap        bool
}

// Service finds the in-scope URLs of a site: sitemap-first via robots.txt,
// with a scoped link-crawl of the base page as fallback.
type Service struct {
	client   *http.Client
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	maxDepth int
}

func NewService(timeout time.Duration, maxSitemapDepth int, metrics *monitoring.Metrics, logger *zap.Logger) *Service {
	return &Service{
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		metrics:  metrics,
		maxDepth: maxSitemapDepth,
	}
}

// Discover returns the URL set for baseURL. Every member is absolute and
// unique. Sitemap-derived sets carry no scope constraint; fallback sets are
// limited to the base host and the inferred scope prefix.
func (s *Service) Discover(ctx context.Context, baseURL string) (*Result, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrFallbackFailed, baseURL)
	}

	var collected []string
	viaSitemap := false

	if sitemapURL := s.findSitemapURL(ctx, base); sitemapURL != "" {
		s.logger.Info("found sitemap", zap.String("sitemap", sitemapURL))
		collected = s.urlsFromSitemap(ctx, sitemapURL, 0)
		viaSitemap = true
	} else {
		s.logger.Warn("no sitemap found, falling back to page link extraction",
			zap.String("base_url", baseURL))
		collected, err = s.linksFromBasePage(ctx, base)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{}, len(collected))
	unique := make([]string, 0, len(collected))
	for _, u := range collected {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	removed := len(collected) - len(unique)
	if removed > 0 {
		s.logger.Info("removed duplicate URLs", zap.Int("duplicates", removed))
	}
	s.metrics.AddDuplicatesRemoved(removed)

	if len(unique) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoURLs, baseURL)
	}
	s.metrics.AddDiscovered(len(unique))

	return &Result{URLs: unique, DuplicatesRemoved: removed, ViaSitemap: viaSitemap}, nil
}

// findSitemapURL scans robots.txt at the base origin for the first
// "sitemap:" directive. Absence or fetch failure is not an error.
func (s *Service) findSitemapURL(ctx context.Context, base *url.URL) string {
	robotsURL := base.Scheme + "://" + base.Host + "/robots.txt"
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		s.logger.Warn("could not fetch robots.txt", zap.String("url", robotsURL), zap.Error(err))
		return ""
	}

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= len("sitemap:") && strings.EqualFold(line[:len("sitemap:")], "sitemap:") {
			return strings.TrimSpace(line[len("sitemap:"):])
		}
	}
	return ""
}

// linksFromBasePage fetches the base page and keeps its same-host anchor
// links, constrained to the scope prefix inferred from the base path. The
// base URL itself is always part of the result.
func (s *Service) linksFromBasePage(ctx context.Context, base *url.URL) ([]string, error) {
	body, err := s.get(ctx, base.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFallbackFailed, err)
	}

	prefix := ScopePrefix(base.Path)
	if prefix != "" {
		s.logger.Info("crawl scoped to path prefix", zap.String("prefix", prefix))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing base page: %v", ErrFallbackFailed, err)
	}

	links := []string{base.String()}
	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Host != base.Host {
			return
		}
		if prefix != "" && !strings.HasPrefix(abs.Path, prefix) {
			return
		}
		links = append(links, abs.String())
	})

	return links, nil
}

// ScopePrefix infers the path scope for a fallback crawl: the first
// non-empty segment of the base path, or nothing for root-level crawls.
// Deliberately single-segment: /blog/category/dsa scopes to /blog/.
func ScopePrefix(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 0 && parts[0] != "" {
		return "/" + parts[0] + "/"
	}
	return ""
}

func (s *Service) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", identity.DefaultUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}
