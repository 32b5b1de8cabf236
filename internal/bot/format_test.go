package bot

import (
	"strings"
	"testing"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

func TestFormatStatus(t *testing.T) {
	g := model.DefaultGlobal()
	g.Flairs = []string{"Release"}
	g.WebhookURL = "https://hooks.example.com/n"
	g.ChannelIDs = []int64{-1001234}
	g.DMEnabled = true
	g.DMUserIDs = []int64{7, 8}
	g.Routes = []model.Route{
		{Keyword: "docker", Sink: model.SinkRef{Kind: model.SinkChannel, ChatID: -1001234}},
	}

	got := FormatStatus(g, 3)
	for _, want := range []string{
		"Monitoring r/selfhosted every 300 seconds",
		"Flairs: Release",
		"Keywords: ALL",
		"Webhook: https://hooks.example.com/n",
		"Channels: -1001234",
		"DMs: enabled (users: 7, 8)",
		`"docker" -> channel -1001234`,
		"Recipients with saved preferences: 3",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("status missing %q:\n%s", want, got)
		}
	}
}

func TestFormatSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		got := FormatSettings(model.DefaultProfile(7), 0)
		for _, want := range []string{
			"Subreddits: global default",
			"Reddit keywords: ALL",
			"DMs: on",
			"Quiet hours: off",
			"Digest: off",
			"Thread mode: inherit",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("settings missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("configured", func(t *testing.T) {
		p := model.DefaultProfile(7)
		p.Subreddits = []string{"homelab"}
		p.Quiet = &model.QuietHours{Start: "22:00", End: "07:00"}
		p.Timezone = "Europe/Berlin"
		p.DigestMode = model.DigestDaily
		p.DigestTime = "08:30"
		p.RedditRoutes = []model.Route{
			{Keyword: "backup", Sink: model.SinkRef{Kind: model.SinkWebhook, URL: "https://hooks.example.com/n"}},
		}

		got := FormatSettings(p, 4)
		for _, want := range []string{
			"Subreddits: homelab",
			"Quiet hours: 22:00-07:00",
			"Timezone: Europe/Berlin",
			"Digest: daily at 08:30 (4 items pending)",
			`"backup" -> https://hooks.example.com/n`,
		} {
			if !strings.Contains(got, want) {
				t.Errorf("settings missing %q:\n%s", want, got)
			}
		}
	})
}

func TestFormatRoutes(t *testing.T) {
	if got := FormatRoutes("reddit", nil); !strings.Contains(got, "No reddit routes") {
		t.Errorf("empty routes = %q", got)
	}

	routes := []model.Route{
		{Keyword: "docker", Sink: model.SinkRef{Kind: model.SinkChannel, ChatID: 5}},
		{Keyword: "backup", Sink: model.SinkRef{Kind: model.SinkDM}},
	}
	got := FormatRoutes("reddit", routes)
	for _, want := range []string{"first match wins", `"docker" -> channel 5`, `"backup" -> DM`} {
		if !strings.Contains(got, want) {
			t.Errorf("routes missing %q:\n%s", want, got)
		}
	}
}
