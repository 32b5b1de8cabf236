package bot

import (
	"fmt"
	"strings"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// FormatStatus formats the global configuration for the /status command.
func FormatStatus(g *model.GlobalConfig, recipientCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Monitoring r/%s every %d seconds, up to %d posts per check.\n", g.Subreddit, g.IntervalSeconds, g.PostLimit)

	if len(g.Feeds) > 0 {
		fmt.Fprintf(&b, "Feeds: %s\n", strings.Join(g.Feeds, ", "))
	} else {
		b.WriteString("Feeds: none\n")
	}
	fmt.Fprintf(&b, "Flairs: %s\n", listOrAll(g.Flairs))
	fmt.Fprintf(&b, "Keywords: %s\n", listOrAll(g.Keywords))

	if g.WebhookURL != "" {
		fmt.Fprintf(&b, "Webhook: %s\n", g.WebhookURL)
	} else {
		b.WriteString("Webhook: none\n")
	}
	fmt.Fprintf(&b, "Channels: %s\n", listOrNone(formatIDs(g.ChannelIDs)))

	dmStatus := "disabled"
	if g.DMEnabled {
		dmStatus = "enabled"
	}
	fmt.Fprintf(&b, "DMs: %s (users: %s)\n", dmStatus, listOrNone(formatIDs(g.DMUserIDs)))
	fmt.Fprintf(&b, "Watched authors: %s\n", listOrNone(g.WatchedAuthors))

	if len(g.Routes) > 0 {
		b.WriteString("Routes:\n")
		for _, r := range g.Routes {
			fmt.Fprintf(&b, "  %q -> %s\n", r.Keyword, describeRouteSink(r.Sink))
		}
	}

	fmt.Fprintf(&b, "Timezone: %s | quiet policy: %s | personal routing: %s | thread mode: %s\n",
		g.Timezone, g.QuietPolicy, onOff(g.PersonalRouting), onOff(g.ThreadMode))
	fmt.Fprintf(&b, "Recipients with saved preferences: %d", recipientCount)
	return b.String()
}

// FormatSettings formats a recipient's preferences for /settings.
func FormatSettings(p *model.RecipientProfile, pendingDigest int) string {
	var b strings.Builder
	b.WriteString("Your settings:\n")
	fmt.Fprintf(&b, "Subreddits: %s\n", listOrDefault(p.Subreddits, "global default"))
	fmt.Fprintf(&b, "Feeds: %s\n", listOrDefault(p.Feeds, "global default"))
	fmt.Fprintf(&b, "Reddit keywords: %s\n", listOrAll(p.RedditKeywords))
	fmt.Fprintf(&b, "Feed keywords: %s\n", listOrAll(p.FeedKeywords))
	fmt.Fprintf(&b, "Flairs: %s\n", listOrAll(p.Flairs))
	fmt.Fprintf(&b, "Watched authors: %s\n", listOrNone(p.WatchedAuthors))
	fmt.Fprintf(&b, "DMs: %s\n", onOff(p.DMEnabled))

	if p.PreferredSink != nil {
		fmt.Fprintf(&b, "Preferred sink: %s\n", describeRouteSink(*p.PreferredSink))
	}
	writeRoutes(&b, "Reddit", p.RedditRoutes)
	writeRoutes(&b, "Feed", p.FeedRoutes)

	if p.Quiet != nil {
		fmt.Fprintf(&b, "Quiet hours: %s-%s\n", p.Quiet.Start, p.Quiet.End)
	} else {
		b.WriteString("Quiet hours: off\n")
	}
	if p.Timezone != "" {
		fmt.Fprintf(&b, "Timezone: %s\n", p.Timezone)
	}

	switch p.DigestMode {
	case model.DigestDaily:
		fmt.Fprintf(&b, "Digest: daily at %s (%d items pending)\n", p.DigestTime, pendingDigest)
	case model.DigestWeekly:
		fmt.Fprintf(&b, "Digest: weekly on %s at %s (%d items pending)\n", p.DigestDay, p.DigestTime, pendingDigest)
	default:
		b.WriteString("Digest: off\n")
	}

	switch {
	case p.ThreadMode == nil:
		b.WriteString("Thread mode: inherit")
	case *p.ThreadMode:
		b.WriteString("Thread mode: on")
	default:
		b.WriteString("Thread mode: off")
	}
	return b.String()
}

// FormatRoutes formats a routing table for display.
func FormatRoutes(kind string, routes []model.Route) string {
	if len(routes) == 0 {
		return fmt.Sprintf("No %s routes. Use /route %s add <keyword> <dest> to add one.", kind, kind)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your %s routes (first match wins):\n", kind)
	for _, r := range routes {
		fmt.Fprintf(&b, "  %q -> %s\n", r.Keyword, describeRouteSink(r.Sink))
	}
	return b.String()
}

func writeRoutes(b *strings.Builder, label string, routes []model.Route) {
	if len(routes) == 0 {
		return
	}
	fmt.Fprintf(b, "%s routes:\n", label)
	for _, r := range routes {
		fmt.Fprintf(b, "  %q -> %s\n", r.Keyword, describeRouteSink(r.Sink))
	}
}

func formatList(noun string, values []string) string {
	if len(values) == 0 {
		return fmt.Sprintf("Your %s list is empty.", noun)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your %s list:\n", noun)
	for _, v := range values {
		fmt.Fprintf(&b, "  %s\n", v)
	}
	return b.String()
}

func describeRouteSink(s model.SinkRef) string {
	switch s.Kind {
	case model.SinkChannel:
		return fmt.Sprintf("channel %d", s.ChatID)
	case model.SinkDM:
		return "DM"
	case model.SinkWebhook:
		return s.URL
	}
	return "none"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func listOrAll(values []string) string {
	if len(values) == 0 {
		return "ALL"
	}
	return strings.Join(values, ", ")
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func listOrDefault(values []string, def string) string {
	if len(values) == 0 {
		return def
	}
	return strings.Join(values, ", ")
}

func formatIDs(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("%d", id))
	}
	return out
}
