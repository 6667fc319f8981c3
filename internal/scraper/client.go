package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the site root used to absolutize relative listing links.
const DefaultBaseURL = "https://suumo.jp"

// Client fetches site pages politely: one request at a time, with a fixed
// interval between requests, and a browser user agent.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	interval  time.Duration

	mu       sync.Mutex
	lastDone time.Time
}

// NewClient returns a Client. A zero interval disables pacing; the base URL
// defaults to the production site when empty.
func NewClient(baseURL, userAgent string, interval time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		interval:  interval,
	}
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchDocument retrieves url and parses it. It blocks until the configured
// interval since the previous request has elapsed, or returns early when the
// context is canceled.
func (c *Client) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return doc, nil
}

// DetailPageURL builds the property-overview URL for a listing detail page,
// avoiding a doubled suffix when the input already points at the overview.
func DetailPageURL(propertyURL string) string {
	if strings.Contains(propertyURL, "bukkengaiyo") {
		return propertyURL
	}
	return strings.TrimRight(propertyURL, "/") + "/bukkengaiyo/"
}

// pace waits out the remainder of the fetch interval.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	wait := time.Duration(0)
	if !c.lastDone.IsZero() {
		if elapsed := time.Since(c.lastDone); elapsed < c.interval {
			wait = c.interval - elapsed
		}
	}
	c.lastDone = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
