package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

func (b *Bot) handleAdminCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch cmd {
	case "setsubreddit":
		b.handleSetSubreddit(ctx, chatID, args)
	case "setinterval":
		b.handleSetInterval(ctx, chatID, args)
	case "setlimit":
		b.handleSetLimit(ctx, chatID, args)
	case "setwebhook":
		b.handleSetWebhook(ctx, chatID, args)
	case "setflairs":
		b.handleSetCSV(ctx, chatID, args, "flairs", func(g *model.GlobalConfig, v []string) { g.Flairs = v })
	case "setkeywords":
		b.handleSetCSV(ctx, chatID, args, "keywords", func(g *model.GlobalConfig, v []string) { g.Keywords = v })
	case "enabledms":
		b.handleEnableDMs(ctx, chatID, args)
	case "adddmuser":
		b.handleDMUser(ctx, chatID, args, true)
	case "rmdmuser":
		b.handleDMUser(ctx, chatID, args, false)
	case "addchannel":
		b.handleChannel(ctx, chatID, args, true)
	case "rmchannel":
		b.handleChannel(ctx, chatID, args, false)
	case "addroute":
		b.handleAddRoute(ctx, chatID, args)
	case "rmroute":
		b.handleRmRoute(ctx, chatID, args)
	case "addwatch":
		b.handleGlobalWatch(ctx, chatID, args, true)
	case "rmwatch":
		b.handleGlobalWatch(ctx, chatID, args, false)
	case "settimezone":
		b.handleSetTimezone(ctx, chatID, args)
	case "setquietpolicy":
		b.handleSetQuietPolicy(ctx, chatID, args)
	case "setrouting":
		b.handleSetFlag(ctx, chatID, args, "personal routing", func(g *model.GlobalConfig, v bool) { g.PersonalRouting = v })
	case "setthreads":
		b.handleSetFlag(ctx, chatID, args, "thread mode", func(g *model.GlobalConfig, v bool) { g.ThreadMode = v })
	case "status":
		b.handleStatus(ctx, chatID)
	}
}

func (b *Bot) handleSetSubreddit(ctx context.Context, chatID int64, args string) {
	name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(args), "r/"))
	if name == "" {
		b.reply(chatID, "Usage: /setsubreddit <name>")
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		g.Subreddit = name
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Now monitoring r/%s.", name))
}

func (b *Bot) handleSetInterval(ctx context.Context, chatID int64, args string) {
	secs, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || secs < 30 || secs > 86400 {
		b.reply(chatID, "Usage: /setinterval <seconds> (30-86400)")
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		g.IntervalSeconds = secs
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Now checking every %d seconds.", secs))
}

func (b *Bot) handleSetLimit(ctx context.Context, chatID int64, args string) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 1 || n > 100 {
		b.reply(chatID, "Usage: /setlimit <number> (1-100)")
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		g.PostLimit = n
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Now fetching up to %d posts per check.", n))
}

func (b *Bot) handleSetWebhook(ctx context.Context, chatID int64, args string) {
	url := strings.TrimSpace(args)
	if url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		b.reply(chatID, "Webhook URL must start with http:// or https://.")
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		g.WebhookURL = url
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if url == "" {
		b.reply(chatID, "Webhook cleared.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Webhook set to %s.", url))
}

// handleSetCSV sets a comma-separated global list; a blank argument
// clears the list (allow everything).
func (b *Bot) handleSetCSV(ctx context.Context, chatID int64, args, noun string, set func(*model.GlobalConfig, []string)) {
	var values []string
	for _, v := range strings.Split(args, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		set(g, values)
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(values) == 0 {
		b.reply(chatID, fmt.Sprintf("Global %s cleared (allow all).", noun))
		return
	}
	b.reply(chatID, fmt.Sprintf("Global %s: %s.", noun, strings.Join(values, ", ")))
}

func (b *Bot) handleEnableDMs(ctx context.Context, chatID int64, args string) {
	on, err := ParseOnOff(args)
	if err != nil {
		b.reply(chatID, "Usage: /enabledms <on|off>")
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		g.DMEnabled = on
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	status := "disabled"
	if on {
		status = "enabled"
	}
	b.reply(chatID, fmt.Sprintf("Global DM notifications are now %s.", status))
}

func (b *Bot) handleDMUser(ctx context.Context, chatID int64, args string, add bool) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		if add {
			for _, v := range g.DMUserIDs {
				if v == id {
					return fmt.Errorf("user %d is already on the DM list", id)
				}
			}
			g.DMUserIDs = append(g.DMUserIDs, id)
			return nil
		}
		next := g.DMUserIDs[:0:0]
		for _, v := range g.DMUserIDs {
			if v != id {
				next = append(next, v)
			}
		}
		g.DMUserIDs = next
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if add {
		b.reply(chatID, fmt.Sprintf("User %d added to the DM list.", id))
	} else {
		b.reply(chatID, fmt.Sprintf("User %d removed from the DM list.", id))
	}
}

func (b *Bot) handleChannel(ctx context.Context, chatID int64, args string, add bool) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		if add {
			for _, v := range g.ChannelIDs {
				if v == id {
					return fmt.Errorf("channel %d is already configured", id)
				}
			}
			g.ChannelIDs = append(g.ChannelIDs, id)
			return nil
		}
		next := g.ChannelIDs[:0:0]
		for _, v := range g.ChannelIDs {
			if v != id {
				next = append(next, v)
			}
		}
		g.ChannelIDs = next
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if add {
		b.reply(chatID, fmt.Sprintf("Channel %d added.", id))
	} else {
		b.reply(chatID, fmt.Sprintf("Channel %d removed.", id))
	}
}

func (b *Bot) handleAddRoute(ctx context.Context, chatID int64, args string) {
	r, err := ParseRouteArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		g.Routes = append(g.Routes, r)
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Global route added: %q -> %s.", r.Keyword, describeRouteSink(r.Sink)))
}

func (b *Bot) handleRmRoute(ctx context.Context, chatID int64, args string) {
	keyword := strings.TrimSpace(args)
	if keyword == "" {
		b.reply(chatID, "Usage: /rmroute <keyword>")
		return
	}
	var removed bool
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		next := g.Routes[:0:0]
		for _, r := range g.Routes {
			if strings.EqualFold(r.Keyword, keyword) {
				removed = true
				continue
			}
			next = append(next, r)
		}
		g.Routes = next
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if !removed {
		b.reply(chatID, fmt.Sprintf("No global route for keyword %q.", keyword))
		return
	}
	b.reply(chatID, fmt.Sprintf("Global route for %q removed.", keyword))
}

func (b *Bot) handleGlobalWatch(ctx context.Context, chatID int64, args string, add bool) {
	author := strings.TrimSpace(args)
	if author == "" {
		b.reply(chatID, "Usage: /addwatch <author> or /rmwatch <author>")
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		if add {
			if containsFold(g.WatchedAuthors, author) {
				return fmt.Errorf("author %q is already watched", author)
			}
			g.WatchedAuthors = append(g.WatchedAuthors, author)
			return nil
		}
		next := removeFold(g.WatchedAuthors, author)
		if len(next) == len(g.WatchedAuthors) {
			return fmt.Errorf("author %q is not watched", author)
		}
		g.WatchedAuthors = next
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if add {
		b.reply(chatID, fmt.Sprintf("Now watching author %s globally.", author))
	} else {
		b.reply(chatID, fmt.Sprintf("No longer watching author %s globally.", author))
	}
}

func (b *Bot) handleSetTimezone(ctx context.Context, chatID int64, args string) {
	tz := strings.TrimSpace(args)
	if tz == "" {
		b.reply(chatID, "Usage: /settimezone <tz>, e.g. Europe/Berlin")
		return
	}
	if _, err := time.LoadLocation(tz); err != nil {
		b.reply(chatID, fmt.Sprintf("Unknown timezone %q.", tz))
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		g.Timezone = tz
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Default timezone set to %s.", tz))
}

func (b *Bot) handleSetQuietPolicy(ctx context.Context, chatID int64, args string) {
	var policy model.QuietPolicy
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "skip":
		policy = model.QuietSkip
	case "defer":
		policy = model.QuietDefer
	default:
		b.reply(chatID, "Usage: /setquietpolicy <skip|defer>")
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		g.QuietPolicy = policy
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Quiet-hours policy set to %s.", policy))
}

func (b *Bot) handleSetFlag(ctx context.Context, chatID int64, args, noun string, set func(*model.GlobalConfig, bool)) {
	on, err := ParseOnOff(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: expected on or off for %s", noun))
		return
	}
	if err := b.updateGlobal(ctx, func(g *model.GlobalConfig) error {
		set(g, on)
		return nil
	}); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	status := "off"
	if on {
		status = "on"
	}
	b.reply(chatID, fmt.Sprintf("Global %s is now %s.", noun, status))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	g, err := b.store.GetGlobal(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	recipients, err := b.store.ListRecipients(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatStatus(g, len(recipients)))
}
