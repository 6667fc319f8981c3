package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ListingURLs collects the detail-page URLs from one search-result page.
// Only links that carry a property identifier are kept; relative links are
// absolutized against baseURL. Duplicates within the page are dropped.
func ListingURLs(doc *goquery.Document, baseURL string) []string {
	seen := make(map[string]struct{})
	var urls []string

	doc.Find("div.property_unit a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || !strings.Contains(href, "/nc_") {
			return
		}

		if strings.HasPrefix(href, "/") {
			href = strings.TrimRight(baseURL, "/") + href
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		urls = append(urls, href)
	})

	return urls
}

// SearchPageURL appends the pagination parameter for pages past the first.
func SearchPageURL(searchURL string, page int) string {
	if page <= 1 {
		return searchURL
	}
	sep := "?"
	if strings.Contains(searchURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", searchURL, sep, page)
}
