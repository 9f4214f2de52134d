package discovery

import (
	"context"
	"encoding/xml"
	"strings"

	"go.uber.org/zap"
)

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Location string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Location string `xml:"loc"`
}

// urlsFromSitemap collects the page URLs of a sitemap, resolving sitemap
// indexes recursively up to maxDepth in case an index cycles. Fetch or
// parse failures yield an empty slice for that branch, never an error.
func (s *Service) urlsFromSitemap(ctx context.Context, sitemapURL string, depth int) []string {
	if depth > s.maxDepth {
		s.logger.Warn("sitemap recursion depth exceeded", zap.String("sitemap", sitemapURL))
		return nil
	}

	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		s.logger.Warn("could not fetch sitemap", zap.String("sitemap", sitemapURL), zap.Error(err))
		return nil
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		var urls []string
		for _, sub := range index.Sitemaps {
			loc := strings.TrimSpace(sub.Location)
			if loc == "" {
				continue
			}
			urls = append(urls, s.urlsFromSitemap(ctx, loc, depth+1)...)
		}
		return urls
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		s.logger.Warn("could not parse sitemap", zap.String("sitemap", sitemapURL), zap.Error(err))
		return nil
	}

	urls := make([]string, 0, len(set.URLs))
	for _, entry := range set.URLs {
		if loc := strings.TrimSpace(entry.Location); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls
}
