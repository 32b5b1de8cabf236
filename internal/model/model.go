// Package model defines the domain types used across the application.
package model

import "time"

// SourceKind identifies which kind of source an item came from.
type SourceKind string

// Supported source kinds.
const (
	KindReddit SourceKind = "reddit"
	KindFeed   SourceKind = "feed"
)

// Item is a single piece of content fetched from a source. Identity is
// (Kind, ID); two items with the same ID from the same source kind are
// the same logical item even across polls.
type Item struct {
	ID       string
	Kind     SourceKind
	Title    string
	Body     string
	URL      string
	Author   string // normalized: lower-cased, trimmed, "u/" prefix stripped
	Category string // Reddit flair or feed category
	Origin   string // subreddit name or feed URL
}

// SinkKind identifies the type of a delivery destination.
type SinkKind string

// Supported sink kinds.
const (
	SinkChannel SinkKind = "channel"
	SinkDM      SinkKind = "dm"
	SinkWebhook SinkKind = "webhook"
)

// SinkRef is a reference to a delivery destination.
type SinkRef struct {
	Kind   SinkKind `json:"kind"`
	ChatID int64    `json:"chat_id,omitempty"`
	URL    string   `json:"url,omitempty"`
}

// IsZero reports whether the sink is unset.
func (s SinkRef) IsZero() bool {
	return s.Kind == ""
}

// Route maps a keyword to a destination sink. Routing tables are
// ordered slices; the first route whose keyword matches wins.
type Route struct {
	Keyword string  `json:"keyword"`
	Sink    SinkRef `json:"sink"`
}

// QuietHours is a daily do-not-disturb window in local time.
// The window may wrap around midnight (e.g. 22:00-07:00).
type QuietHours struct {
	Start string `json:"start"` // "HH:MM"
	End   string `json:"end"`   // "HH:MM"
}

// Contains reports whether t's time of day falls inside the window.
func (q QuietHours) Contains(t time.Time) bool {
	start, err := parseHHMM(q.Start)
	if err != nil {
		return false
	}
	end, err := parseHHMM(q.End)
	if err != nil {
		return false
	}
	cur := t.Hour()*60 + t.Minute()
	if start <= end {
		return cur >= start && cur < end
	}
	// Wraps past midnight.
	return cur >= start || cur < end
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DigestMode selects batched delivery cadence for a recipient.
type DigestMode string

// Supported digest modes.
const (
	DigestOff    DigestMode = "off"
	DigestDaily  DigestMode = "daily"
	DigestWeekly DigestMode = "weekly"
)

// QuietPolicy decides what happens to an item that fails only the
// quiet-hours check.
type QuietPolicy string

// Supported quiet policies. Skip marks the item seen and drops it;
// Defer enqueues it to the recipient's digest queue instead.
const (
	QuietSkip  QuietPolicy = "skip"
	QuietDefer QuietPolicy = "defer"
)

// WatchBypass controls which normal filters a watched author's items
// punch through.
type WatchBypass struct {
	Origin   bool `json:"origin"`
	Category bool `json:"category"`
	Keyword  bool `json:"keyword"`
}

// RecipientProfile holds one subscriber's notification preferences.
// Absence of a stored profile means defaults.
type RecipientProfile struct {
	ID             int64        `json:"id"`
	DMEnabled      bool         `json:"dm_enabled"`
	RedditKeywords []string     `json:"reddit_keywords"`
	FeedKeywords   []string     `json:"feed_keywords"`
	Flairs         []string     `json:"flairs"` // category allow-list; empty = allow all
	Subreddits     []string     `json:"subreddits"`
	Feeds          []string     `json:"feeds"`
	WatchedAuthors []string     `json:"watched_authors"`
	WatchBypass    WatchBypass  `json:"watch_bypass"`
	Quiet          *QuietHours  `json:"quiet,omitempty"`
	Timezone       string       `json:"timezone,omitempty"` // empty = global default
	DigestMode     DigestMode   `json:"digest_mode"`
	DigestTime     string       `json:"digest_time"` // "HH:MM"
	DigestDay      time.Weekday `json:"digest_day"`
	PreferredSink  *SinkRef     `json:"preferred_sink,omitempty"`
	RedditRoutes   []Route      `json:"reddit_routes"`
	FeedRoutes     []Route      `json:"feed_routes"`
	ThreadMode     *bool        `json:"thread_mode,omitempty"` // nil = inherit global
}

// DefaultProfile returns the profile an unconfigured recipient has.
func DefaultProfile(id int64) *RecipientProfile {
	return &RecipientProfile{
		ID:         id,
		DMEnabled:  true,
		DigestMode: DigestOff,
		DigestTime: "09:00",
		DigestDay:  time.Monday,
		WatchBypass: WatchBypass{
			Origin:   true,
			Category: true,
			Keyword:  false,
		},
	}
}

// KeywordsFor returns the recipient's keyword filter for a source kind.
func (p *RecipientProfile) KeywordsFor(kind SourceKind) []string {
	if kind == KindFeed {
		return p.FeedKeywords
	}
	return p.RedditKeywords
}

// RoutesFor returns the recipient's routing table for a source kind.
func (p *RecipientProfile) RoutesFor(kind SourceKind) []Route {
	if kind == KindFeed {
		return p.FeedRoutes
	}
	return p.RedditRoutes
}

// GlobalConfig holds the shared pipeline settings, mutated only by
// admin commands.
type GlobalConfig struct {
	Subreddit       string      `json:"subreddit"`
	Feeds           []string    `json:"feeds"`
	Keywords        []string    `json:"keywords"` // empty = allow all
	Flairs          []string    `json:"flairs"`   // empty = allow all
	WatchedAuthors  []string    `json:"watched_authors"`
	Routes          []Route     `json:"routes"`
	WebhookURL      string      `json:"webhook_url"`
	ChannelIDs      []int64     `json:"channel_ids"`
	DMEnabled       bool        `json:"dm_enabled"`
	DMUserIDs       []int64     `json:"dm_user_ids"`
	IntervalSeconds int         `json:"interval_seconds"`
	PostLimit       int         `json:"post_limit"`
	Timezone        string      `json:"timezone"`
	ThreadMode      bool        `json:"thread_mode"`
	PersonalRouting bool        `json:"personal_routing"` // false = personal delivery is DM-only
	QuietPolicy     QuietPolicy `json:"quiet_policy"`
}

// DefaultGlobal returns the starting global configuration.
func DefaultGlobal() *GlobalConfig {
	return &GlobalConfig{
		Subreddit:       "selfhosted",
		IntervalSeconds: 300,
		PostLimit:       10,
		Timezone:        "UTC",
		QuietPolicy:     QuietSkip,
	}
}

// Interval returns the poll interval as a duration.
func (g *GlobalConfig) Interval() time.Duration {
	if g.IntervalSeconds < 1 {
		return 5 * time.Minute
	}
	return time.Duration(g.IntervalSeconds) * time.Second
}

// DigestEntry is one deferred item in a recipient's digest queue.
type DigestEntry struct {
	ID          int64
	RecipientID int64
	Title       string
	URL         string
	Origin      string
	Kind        SourceKind
	EnqueuedAt  time.Time
}

// DigestMeta tracks cadence watermarks that prevent double-sending a
// digest within the same window.
type DigestMeta struct {
	RecipientID   int64
	LastDailyDate string // "2006-01-02" in the recipient's local time
	LastWeeklyISO string // "2006-W02"
}
