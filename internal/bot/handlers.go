package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to MultiNotify!

Get notified about new Reddit posts and RSS items, filtered your way.

Quick start:
1. /sub add <subreddit> — follow a subreddit
2. /keywords reddit add <word> — only match posts containing a word
3. /digest daily 09:00 — batch notifications into a daily digest

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Subscriptions:
/sub <add|rm|list> [name] — your subreddits
/feeds <add|rm|list> [url] — your RSS feeds
/keywords <reddit|feed> <add|rm|list|clear> [word] — keyword filters
/flairs <add|rm|list|clear> [flair] — flair allow-list

Delivery:
/dm <on|off> — direct-message notifications
/sink <channel <chat_id>|off> — preferred channel destination
/route <reddit|feed> <add|rm|list> [keyword dest] — keyword routing
/threadmode <on|off|inherit> — expanded or compact messages
/quiet <HH:MM-HH:MM|off> — do-not-disturb window
/timezone <tz> — e.g. Europe/Berlin
/digest <off|daily|weekly> [HH:MM] [mon..sun] — batched delivery

Watching:
/watch <add|rm|list> [author] — watched authors

Diagnostics:
/settings — show your current preferences
/explain <origin> [author:<name>] [flair:<text>] <title> — trace why
an item would or would not be delivered to you

Admins: /status plus the /set... commands, see /status output.`)
}

func (b *Bot) handleSettings(ctx context.Context, chatID, userID int64) {
	p, err := b.store.GetRecipient(ctx, userID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	pending, err := b.store.PendingDigest(ctx, userID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatSettings(p, pending))
}

func (b *Bot) handleSub(ctx context.Context, chatID, userID int64, args string) {
	b.handleStringList(ctx, chatID, userID, args, "subreddit",
		func(p *model.RecipientProfile) *[]string { return &p.Subreddits })
}

func (b *Bot) handleFeeds(ctx context.Context, chatID, userID int64, args string) {
	b.handleStringList(ctx, chatID, userID, args, "feed",
		func(p *model.RecipientProfile) *[]string { return &p.Feeds })
}

func (b *Bot) handleFlairs(ctx context.Context, chatID, userID int64, args string) {
	b.handleStringList(ctx, chatID, userID, args, "flair",
		func(p *model.RecipientProfile) *[]string { return &p.Flairs })
}

func (b *Bot) handleWatch(ctx context.Context, chatID, userID int64, args string) {
	b.handleStringList(ctx, chatID, userID, args, "watched author",
		func(p *model.RecipientProfile) *[]string { return &p.WatchedAuthors })
}

// handleStringList implements the shared add/rm/list/clear shape of
// the subscription and allow-list commands.
func (b *Bot) handleStringList(ctx context.Context, chatID, userID int64, args, noun string, field func(*model.RecipientProfile) *[]string) {
	op, err := ParseListOp(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	if op.Op == "list" {
		p, err := b.store.GetRecipient(ctx, userID)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.reply(chatID, formatList(noun, *field(p)))
		return
	}

	err = b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
		list := field(p)
		switch op.Op {
		case "add":
			if containsFold(*list, op.Value) {
				return fmt.Errorf("%s %q is already in the list", noun, op.Value)
			}
			*list = append(*list, op.Value)
		case "rm":
			next := removeFold(*list, op.Value)
			if len(next) == len(*list) {
				return fmt.Errorf("%s %q is not in the list", noun, op.Value)
			}
			*list = next
		case "clear":
			*list = nil
		}
		return nil
	})
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Updated, %s list changed.", noun))
}

func (b *Bot) handleKeywords(ctx context.Context, chatID, userID int64, args string) {
	kind, rest, err := splitKind(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /keywords <reddit|feed> <add|rm|list|clear> [word] (%v)", err))
		return
	}
	b.handleStringList(ctx, chatID, userID, rest, string(kind)+" keyword",
		func(p *model.RecipientProfile) *[]string {
			if kind == model.KindFeed {
				return &p.FeedKeywords
			}
			return &p.RedditKeywords
		})
}

func (b *Bot) handleQuiet(ctx context.Context, chatID, userID int64, args string) {
	q, err := ParseQuietArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
		p.Quiet = q
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if q == nil {
		b.reply(chatID, "Quiet hours disabled.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Quiet hours set to %s-%s.", q.Start, q.End))
}

func (b *Bot) handleTimezone(ctx context.Context, chatID, userID int64, args string) {
	tz := strings.TrimSpace(args)
	if tz == "" {
		b.reply(chatID, "Usage: /timezone <tz>, e.g. Europe/Berlin")
		return
	}
	if _, err := time.LoadLocation(tz); err != nil {
		b.reply(chatID, fmt.Sprintf("Unknown timezone %q.", tz))
		return
	}
	if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
		p.Timezone = tz
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Timezone set to %s.", tz))
}

func (b *Bot) handleDigest(ctx context.Context, chatID, userID int64, args string) {
	d, err := ParseDigestArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
		p.DigestMode = d.Mode
		if d.Time != "" {
			p.DigestTime = d.Time
		}
		if d.HasDay {
			p.DigestDay = d.Day
		}
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	switch d.Mode {
	case model.DigestOff:
		b.reply(chatID, "Digest mode disabled, notifications are delivered immediately.")
	case model.DigestDaily:
		b.reply(chatID, "Daily digest enabled.")
	case model.DigestWeekly:
		b.reply(chatID, "Weekly digest enabled.")
	}
}

func (b *Bot) handleRoute(ctx context.Context, chatID, userID int64, args string) {
	kind, rest, err := splitKind(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /route <reddit|feed> <add|rm|list> [keyword dest] (%v)", err))
		return
	}
	op, err := ParseListOp(rest)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	routesOf := func(p *model.RecipientProfile) *[]model.Route {
		if kind == model.KindFeed {
			return &p.FeedRoutes
		}
		return &p.RedditRoutes
	}

	switch op.Op {
	case "list":
		p, err := b.store.GetRecipient(ctx, userID)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.reply(chatID, FormatRoutes(string(kind), *routesOf(p)))
	case "add":
		r, err := ParseRouteArgs(op.Value)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
			*routesOf(p) = append(*routesOf(p), r)
			return nil
		}); err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.reply(chatID, fmt.Sprintf("Route added: %q -> %s.", r.Keyword, describeRouteSink(r.Sink)))
	case "rm":
		keyword := strings.Fields(op.Value)[0]
		var removed bool
		if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
			routes := routesOf(p)
			next := (*routes)[:0:0]
			for _, r := range *routes {
				if strings.EqualFold(r.Keyword, keyword) {
					removed = true
					continue
				}
				next = append(next, r)
			}
			*routes = next
			return nil
		}); err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		if !removed {
			b.reply(chatID, fmt.Sprintf("No route for keyword %q.", keyword))
			return
		}
		b.reply(chatID, fmt.Sprintf("Route for %q removed.", keyword))
	default:
		b.reply(chatID, "Usage: /route <reddit|feed> <add|rm|list> [keyword dest]")
	}
}

func (b *Bot) handleSink(ctx context.Context, chatID, userID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		b.reply(chatID, "Usage: /sink channel <chat_id> or /sink off")
		return
	}

	switch parts[0] {
	case "off":
		if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
			p.PreferredSink = nil
			return nil
		}); err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.reply(chatID, "Preferred sink cleared, notifications go to your DMs.")
	case "channel":
		if len(parts) < 2 {
			b.reply(chatID, "Usage: /sink channel <chat_id>")
			return
		}
		id, err := ParseIDArg(parts[1])
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
			p.PreferredSink = &model.SinkRef{Kind: model.SinkChannel, ChatID: id}
			return nil
		}); err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.reply(chatID, fmt.Sprintf("Preferred sink set to channel %d.", id))
	default:
		b.reply(chatID, "Usage: /sink channel <chat_id> or /sink off")
	}
}

func (b *Bot) handleDM(ctx context.Context, chatID, userID int64, args string) {
	on, err := ParseOnOff(args)
	if err != nil {
		b.reply(chatID, "Usage: /dm <on|off>")
		return
	}
	if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
		p.DMEnabled = on
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if on {
		b.reply(chatID, "DM notifications enabled.")
	} else {
		b.reply(chatID, "DM notifications disabled.")
	}
}

func (b *Bot) handleThreadMode(ctx context.Context, chatID, userID int64, args string) {
	s := strings.ToLower(strings.TrimSpace(args))
	if err := b.updateProfile(ctx, userID, func(p *model.RecipientProfile) error {
		switch s {
		case "inherit":
			p.ThreadMode = nil
			return nil
		case "on", "off":
			v := s == "on"
			p.ThreadMode = &v
			return nil
		}
		return fmt.Errorf("usage: /threadmode <on|off|inherit>")
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Thread mode set to %s.", s))
}

func (b *Bot) handleExplain(ctx context.Context, chatID, userID int64, args string) {
	it, err := ParseExplainArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	trace, err := b.pipeline.ExplainPersonal(ctx, userID, it)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if b.cfg.IsAdmin(userID) {
		global, err := b.pipeline.ExplainGlobal(ctx, it)
		if err == nil {
			trace = global + "\n" + trace
		}
	}
	b.reply(chatID, trace)
}

func splitKind(args string) (model.SourceKind, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}
	switch strings.ToLower(parts[0]) {
	case "reddit":
		return model.KindReddit, rest, nil
	case "feed":
		return model.KindFeed, rest, nil
	}
	return "", "", fmt.Errorf("expected reddit or feed")
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func removeFold(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if strings.EqualFold(v, s) {
			continue
		}
		out = append(out, v)
	}
	return out
}
