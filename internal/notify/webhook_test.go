package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

type capturingClient struct {
	statusCode int
	err        error

	lastURL  string
	lastBody []byte
}

func (c *capturingClient) Do(req *http.Request) (*http.Response, error) {
	c.lastURL = req.URL.String()
	if req.Body != nil {
		c.lastBody, _ = io.ReadAll(req.Body)
	}
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{
		StatusCode: c.statusCode,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

var webhookItem = model.Item{
	ID:       "abc",
	Kind:     model.KindReddit,
	Title:    "Released: dashboard v2.0",
	URL:      "https://reddit.com/r/selfhosted/comments/abc",
	Author:   "dashdev",
	Category: "Release",
	Origin:   "selfhosted",
}

func TestPostDiscordPayload(t *testing.T) {
	client := &capturingClient{statusCode: 204}
	w := NewWebhook(client)

	err := w.Post(context.Background(), "https://discord.com/api/webhooks/1/token", webhookItem)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	var payload struct {
		Embeds []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Color       int    `json:"color"`
		} `json:"embeds"`
	}
	if err := json.Unmarshal(client.lastBody, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload.Embeds) != 1 {
		t.Fatalf("got %d embeds, want 1", len(payload.Embeds))
	}
	e := payload.Embeds[0]
	if e.Title != webhookItem.Title || e.URL != webhookItem.URL {
		t.Errorf("embed = %+v, want title and URL from the item", e)
	}
	if e.Color != 0xE67E22 {
		t.Errorf("embed color = %#x, want %#x", e.Color, 0xE67E22)
	}
}

func TestPostGenericPayload(t *testing.T) {
	client := &capturingClient{statusCode: 200}
	w := NewWebhook(client)

	err := w.Post(context.Background(), "https://hooks.example.com/notify", webhookItem)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	var payload struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(client.lastBody, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, err := uuid.Parse(payload.ID); err != nil {
		t.Errorf("event ID %q is not a UUID: %v", payload.ID, err)
	}
	if payload.Text != renderCompact(webhookItem) {
		t.Errorf("text = %q, want the compact rendering", payload.Text)
	}
}

func TestPostErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *capturingClient
	}{
		{name: "http error status", client: &capturingClient{statusCode: 500}},
		{name: "rate limited", client: &capturingClient{statusCode: 429}},
		{name: "network error", client: &capturingClient{err: io.ErrUnexpectedEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWebhook(tt.client)
			if err := w.Post(context.Background(), "https://hooks.example.com/notify", webhookItem); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
