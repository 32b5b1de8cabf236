package source

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"

	"github.com/mmcdole/gofeed"

	"github.com/ethanocurtis/MultiNotify/internal/matcher"
	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// FeedClient downloads and parses RSS/Atom feeds.
type FeedClient struct {
	client    HTTPClient
	userAgent string
}

// NewFeed creates a FeedClient with the given HTTP client.
func NewFeed(client HTTPClient) *FeedClient {
	return &FeedClient{
		client:    client,
		userAgent: "multinotify/1.0",
	}
}

// FetchNew returns up to limit items from the feed, in document order
// (newest first for well-behaved feeds).
func (c *FeedClient) FetchNew(ctx context.Context, feedURL string, limit int) ([]model.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]model.Item, 0, limit)
	for _, it := range feed.Items {
		if len(items) >= limit {
			break
		}
		var author string
		if it.Author != nil {
			author = matcher.NormalizeAuthor(it.Author.Name)
		}
		var category string
		if len(it.Categories) > 0 {
			category = it.Categories[0]
		}
		items = append(items, model.Item{
			ID:       ItemGUID(it),
			Kind:     model.KindFeed,
			Title:    it.Title,
			Body:     truncate(it.Description, 500),
			URL:      it.Link,
			Author:   author,
			Category: category,
			Origin:   feedURL,
		})
	}
	return items, nil
}

// ItemGUID returns the GUID for a feed item. If the item has no GUID,
// a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}
