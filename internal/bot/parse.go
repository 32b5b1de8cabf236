package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// ListOp is a parsed add/rm/list/clear subcommand.
type ListOp struct {
	Op    string // "add", "rm", "list", "clear"
	Value string
}

// ParseListOp parses arguments of the form "add <value>", "rm <value>",
// "list", or "clear". An empty argument string means "list".
func ParseListOp(args string) (ListOp, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return ListOp{Op: "list"}, nil
	}
	switch parts[0] {
	case "list", "clear":
		return ListOp{Op: parts[0]}, nil
	case "add", "rm":
		if len(parts) < 2 {
			return ListOp{}, fmt.Errorf("usage: %s <value>", parts[0])
		}
		return ListOp{Op: parts[0], Value: strings.Join(parts[1:], " ")}, nil
	}
	return ListOp{}, fmt.Errorf("unknown subcommand %q, use: add, rm, list, clear", parts[0])
}

// ParseOnOff parses a boolean command argument.
func ParseOnOff(args string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off")
}

// ParseQuietArgs parses "HH:MM-HH:MM" into a quiet window, or "off"
// into nil.
func ParseQuietArgs(args string) (*model.QuietHours, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return nil, fmt.Errorf("usage: /quiet <HH:MM-HH:MM> or /quiet off")
	}
	if strings.EqualFold(s, "off") {
		return nil, nil
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected HH:MM-HH:MM, got %q", s)
	}
	q := &model.QuietHours{
		Start: strings.TrimSpace(parts[0]),
		End:   strings.TrimSpace(parts[1]),
	}
	for _, v := range []string{q.Start, q.End} {
		if _, err := time.Parse("15:04", v); err != nil {
			return nil, fmt.Errorf("invalid time %q, expected HH:MM", v)
		}
	}
	return q, nil
}

// DigestArgs holds parsed /digest arguments.
type DigestArgs struct {
	Mode   model.DigestMode
	Time   string       // optional, "" keeps the current value
	Day    time.Weekday // weekly only
	HasDay bool
}

var weekdays = map[string]time.Weekday{
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
	"sun": time.Sunday,
}

// ParseDigestArgs parses "/digest off", "/digest daily [HH:MM]", or
// "/digest weekly [HH:MM] [mon..sun]".
func ParseDigestArgs(args string) (DigestArgs, error) {
	parts := strings.Fields(strings.ToLower(args))
	if len(parts) == 0 {
		return DigestArgs{}, fmt.Errorf("usage: /digest <off|daily|weekly> [HH:MM] [mon..sun]")
	}

	var d DigestArgs
	switch parts[0] {
	case "off":
		d.Mode = model.DigestOff
		return d, nil
	case "daily":
		d.Mode = model.DigestDaily
	case "weekly":
		d.Mode = model.DigestWeekly
	default:
		return DigestArgs{}, fmt.Errorf("unknown digest mode %q", parts[0])
	}

	for _, p := range parts[1:] {
		if wd, ok := weekdays[p]; ok {
			d.Day = wd
			d.HasDay = true
			continue
		}
		if _, err := time.Parse("15:04", p); err == nil {
			d.Time = p
			continue
		}
		return DigestArgs{}, fmt.Errorf("unrecognized argument %q, expected HH:MM or mon..sun", p)
	}
	return d, nil
}

// ParseRouteArgs parses "<keyword> <chat_id|url>" into a route. A
// numeric destination is a channel, anything starting with http is a
// webhook.
func ParseRouteArgs(args string) (model.Route, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return model.Route{}, fmt.Errorf("usage: <keyword> <chat_id or webhook url>")
	}
	keyword := parts[0]
	dest := parts[1]

	if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") {
		return model.Route{
			Keyword: keyword,
			Sink:    model.SinkRef{Kind: model.SinkWebhook, URL: dest},
		}, nil
	}
	chatID, err := strconv.ParseInt(dest, 10, 64)
	if err != nil {
		return model.Route{}, fmt.Errorf("invalid destination %q, expected a chat ID or URL", dest)
	}
	return model.Route{
		Keyword: keyword,
		Sink:    model.SinkRef{Kind: model.SinkChannel, ChatID: chatID},
	}, nil
}

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("an ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

// ParseExplainArgs builds a dry-run item from command arguments.
// Format: <origin> [author:<name>] [flair:<text>] <title words...>.
// An origin starting with http is treated as a feed URL, anything else
// as a subreddit name.
func ParseExplainArgs(args string) (model.Item, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return model.Item{}, fmt.Errorf("usage: /explain <origin> [author:<name>] [flair:<text>] <title>")
	}

	it := model.Item{
		Origin: parts[0],
		Kind:   model.KindReddit,
	}
	if strings.HasPrefix(it.Origin, "http://") || strings.HasPrefix(it.Origin, "https://") {
		it.Kind = model.KindFeed
	}

	var title []string
	for _, p := range parts[1:] {
		switch {
		case strings.HasPrefix(p, "author:"):
			it.Author = strings.TrimPrefix(p, "author:")
		case strings.HasPrefix(p, "flair:"):
			it.Category = strings.TrimPrefix(p, "flair:")
		default:
			title = append(title, p)
		}
	}
	if len(title) == 0 {
		return model.Item{}, fmt.Errorf("a title is required")
	}
	it.Title = strings.Join(title, " ")
	it.ID = "dry-run"
	return it, nil
}
