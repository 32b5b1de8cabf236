package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook posts notifications to an outbound webhook URL. Discord
// webhook URLs receive an embed payload; any other URL receives a
// generic JSON payload with a unique event ID so consumers can dedupe
// on their side.
type Webhook struct {
	client HTTPClient
}

// NewWebhook creates a Webhook sender with the given HTTP client.
func NewWebhook(client HTTPClient) *Webhook {
	return &Webhook{client: client}
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Timestamp   string        `json:"timestamp"`
	Footer      discordFooter `json:"footer"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type genericPayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Post sends a notification for item to url.
func (w *Webhook) Post(ctx context.Context, url string, item model.Item) error {
	var payload any
	if strings.Contains(url, "discord.com") {
		payload = discordPayload{
			Embeds: []discordEmbed{{
				Title:       item.Title,
				URL:         item.URL,
				Description: embedDescription(item),
				Color:       0xE67E22,
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
				Footer:      discordFooter{Text: "MultiNotify"},
			}},
		}
	} else {
		payload = genericPayload{
			ID:   uuid.NewString(),
			Text: renderCompact(item),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func embedDescription(item model.Item) string {
	if item.Kind == model.KindReddit {
		return fmt.Sprintf("Subreddit: r/%s\nFlair: **%s**\nAuthor: u/%s",
			item.Origin, flairOrDefault(item.Category), item.Author)
	}
	if item.Author != "" {
		return fmt.Sprintf("Feed: %s\nAuthor: %s", item.Origin, item.Author)
	}
	return fmt.Sprintf("Feed: %s", item.Origin)
}
