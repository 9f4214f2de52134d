package strategy

import (
	"fmt"
	"strings"

	"scraper/internal/domain"
)

// companyGuidesFragment marks the listing page whose guide links never make
// it into generically rendered text; it needs a targeted DOM walk instead.
const companyGuidesFragment = "topics#companies"

// isCompanyGuidesURL reports whether the URL needs the surgical
// company-guides extraction path.
func isCompanyGuidesURL(rawURL string) bool {
	return strings.Contains(rawURL, companyGuidesFragment)
}

// companyGuidesJS walks the sibling anchors that follow the
// "Company-specific guides" heading and collects them directly.
const companyGuidesJS = `(() => {
	const links = [];
	document.querySelectorAll('h3').forEach(h3 => {
		if (h3.textContent.includes('Company-specific guides')) {
			let el = h3.nextElementSibling;
			while (el && el.tagName === 'A') {
				links.push({ title: el.textContent.trim(), url: el.href });
				el = el.nextElementSibling;
			}
		}
	});
	return links;
})()`

type guideLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// guideItems turns the collected anchors into finished content items,
// bypassing the generic extraction oracle.
func guideItems(links []guideLink) []domain.ContentItem {
	items := make([]domain.ContentItem, 0, len(links))
	for _, l := range links {
		items = append(items, domain.ContentItem{
			Title:       l.Title,
			Content:     fmt.Sprintf("A company-specific interview guide for %s.", l.Title),
			ContentType: "blog",
			SourceURL:   l.URL,
			Author:      "Unknown",
		})
	}
	return items
}
