package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ethanocurtis/MultiNotify/internal/matcher"
	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// RedditClient fetches new posts from a subreddit's public listing.
type RedditClient struct {
	client    HTTPClient
	userAgent string
	baseURL   string
}

// NewReddit creates a RedditClient with the given HTTP client and
// User-Agent. Reddit rejects requests without a distinctive UA.
func NewReddit(client HTTPClient, userAgent string) *RedditClient {
	return &RedditClient{
		client:    client,
		userAgent: userAgent,
		baseURL:   "https://www.reddit.com",
	}
}

// SetBaseURL overrides the Reddit API base URL (useful for testing).
func (c *RedditClient) SetBaseURL(u string) {
	c.baseURL = u
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Selftext      string `json:"selftext"`
	Permalink     string `json:"permalink"`
	Author        string `json:"author"`
	LinkFlairText string `json:"link_flair_text"`
	Subreddit     string `json:"subreddit"`
}

// FetchNew returns up to limit newest posts from the subreddit, in the
// listing's native newest-first order.
func (c *RedditClient) FetchNew(ctx context.Context, subreddit string, limit int) ([]model.Item, error) {
	u := fmt.Sprintf("%s/r/%s/new.json?limit=%s&raw_json=1",
		c.baseURL, url.PathEscape(subreddit), strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
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

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	items := make([]model.Item, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		if p.ID == "" {
			continue
		}
		origin := p.Subreddit
		if origin == "" {
			origin = subreddit
		}
		items = append(items, model.Item{
			ID:       p.ID,
			Kind:     model.KindReddit,
			Title:    p.Title,
			Body:     truncate(p.Selftext, 500),
			URL:      "https://reddit.com" + p.Permalink,
			Author:   matcher.NormalizeAuthor(p.Author),
			Category: p.LinkFlairText,
			Origin:   origin,
		})
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}
