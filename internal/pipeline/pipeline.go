// Package pipeline implements the filtering-and-delivery routing
// engine: for every newly observed item it decides, per pipeline
// (global, personal, watched-author), whether the item is delivered
// immediately, deferred to a digest, or dropped, and to which sink.
package pipeline

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/digest"
	"github.com/ethanocurtis/MultiNotify/internal/model"
	"github.com/ethanocurtis/MultiNotify/internal/notify"
	"github.com/ethanocurtis/MultiNotify/internal/route"
	"github.com/ethanocurtis/MultiNotify/internal/storage"
)

// Sender is the interface for sending chat messages. Failures are
// handled (logged) by the implementation; delivery is fire-and-forget
// from the pipeline's perspective.
type Sender interface {
	SendMessage(chatID int64, text string)
}

// WebhookPoster is the interface for outbound webhook delivery.
type WebhookPoster interface {
	Post(ctx context.Context, url string, item model.Item) error
}

// RedditFetcher is the interface for the Reddit source collaborator.
type RedditFetcher interface {
	FetchNew(ctx context.Context, subreddit string, limit int) ([]model.Item, error)
}

// FeedFetcher is the interface for the RSS/Atom source collaborator.
type FeedFetcher interface {
	FetchNew(ctx context.Context, feedURL string, limit int) ([]model.Item, error)
}

// Pipeline orchestrates one fetch-and-deliver cycle at a time.
type Pipeline struct {
	store   storage.Storage
	reddit  RedditFetcher
	feeds   FeedFetcher
	sender  Sender
	webhook WebhookPoster
	log     *slog.Logger
	now     func() time.Time
}

// New creates a Pipeline.
func New(store storage.Storage, reddit RedditFetcher, feeds FeedFetcher, sender Sender, webhook WebhookPoster, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:   store,
		reddit:  reddit,
		feeds:   feeds,
		sender:  sender,
		webhook: webhook,
		log:     log,
		now:     time.Now,
	}
}

// SetNow overrides the clock (useful for testing).
func (p *Pipeline) SetNow(now func() time.Time) {
	p.now = now
}

func recipientScope(id int64) string {
	return strconv.FormatInt(id, 10)
}

// RunCycle executes one full poll cycle: fetch all configured sources,
// then run every fetched item through the global, personal, and
// watched-author pipelines. Errors from a single source or a single
// delivery never abort the cycle.
func (p *Pipeline) RunCycle(ctx context.Context) {
	g, err := p.store.GetGlobal(ctx)
	if err != nil {
		p.log.Error("load global config", "error", err)
		return
	}
	recipients, err := p.store.ListRecipients(ctx)
	if err != nil {
		p.log.Error("list recipients", "error", err)
		return
	}

	items := p.fetchAll(ctx, g, recipients)
	if len(items) == 0 {
		return
	}
	p.log.Debug("cycle fetched", "items", len(items))

	for _, it := range items {
		if ctx.Err() != nil {
			return
		}
		p.runGlobal(ctx, g, recipients, it)
	}
	for _, it := range items {
		for i := range recipients {
			if ctx.Err() != nil {
				return
			}
			p.runPersonal(ctx, g, &recipients[i], it)
		}
	}
	for _, it := range items {
		for i := range recipients {
			if ctx.Err() != nil {
				return
			}
			p.runWatch(ctx, g, &recipients[i], it)
		}
	}
}

// fetchAll polls the global origin plus every personally subscribed
// origin and feed, once each, and returns the items oldest-first so
// delivery order is chronological.
func (p *Pipeline) fetchAll(ctx context.Context, g *model.GlobalConfig, recipients []model.RecipientProfile) []model.Item {
	subreddits := uniqueStrings(append([]string{g.Subreddit}, collect(recipients, func(r model.RecipientProfile) []string { return r.Subreddits })...))
	feedURLs := uniqueStrings(append(append([]string{}, g.Feeds...), collect(recipients, func(r model.RecipientProfile) []string { return r.Feeds })...))

	var items []model.Item
	for _, sub := range subreddits {
		fetched, err := p.reddit.FetchNew(ctx, sub, g.PostLimit)
		if err != nil {
			p.log.Error("fetch subreddit", "subreddit", sub, "error", err)
			continue
		}
		items = appendReversed(items, fetched)
	}
	for _, u := range feedURLs {
		fetched, err := p.feeds.FetchNew(ctx, u, g.PostLimit)
		if err != nil {
			p.log.Error("fetch feed", "url", u, "error", err)
			continue
		}
		items = appendReversed(items, fetched)
	}
	return items
}

// appendReversed appends src to dst in reverse order, turning a
// newest-first listing into oldest-first processing order.
func appendReversed(dst, src []model.Item) []model.Item {
	for i := len(src) - 1; i >= 0; i-- {
		dst = append(dst, src[i])
	}
	return dst
}

func (p *Pipeline) runGlobal(ctx context.Context, g *model.GlobalConfig, recipients []model.RecipientProfile, it model.Item) {
	if ev := EvaluateGlobal(it, g); ev.Outcome != OutcomeDeliver {
		return
	}
	seen, err := p.store.IsSeen(ctx, storage.GlobalScope, it.Kind, it.ID)
	if err != nil {
		p.log.Error("check seen", "scope", storage.GlobalScope, "item", it.ID, "error", err)
		return
	}
	if seen {
		return
	}

	text := notify.Render(it, g.ThreadMode)

	// A matching global route narrows delivery to its sink; otherwise
	// the item fans out to the webhook and every configured channel.
	// The DM fanout list is notified either way.
	sink := route.Resolve(it.Title+" "+it.Body, g.Routes, model.SinkRef{})
	switch sink.Kind {
	case model.SinkChannel:
		p.sender.SendMessage(sink.ChatID, text)
	case model.SinkWebhook:
		p.postWebhook(ctx, sink.URL, it)
	default:
		if g.WebhookURL != "" {
			p.postWebhook(ctx, g.WebhookURL, it)
		}
		for _, ch := range g.ChannelIDs {
			p.sender.SendMessage(ch, text)
		}
	}
	if g.DMEnabled {
		for _, uid := range g.DMUserIDs {
			p.sender.SendMessage(uid, notify.Render(it, threadModeFor(uid, recipients, g)))
		}
	}

	p.markSeen(ctx, storage.GlobalScope, it)
}

// threadModeFor resolves the render mode for a global DM fanout
// target: a stored profile's thread-mode override wins over the
// global setting.
func threadModeFor(uid int64, recipients []model.RecipientProfile, g *model.GlobalConfig) bool {
	for i := range recipients {
		if recipients[i].ID == uid {
			if recipients[i].ThreadMode != nil {
				return *recipients[i].ThreadMode
			}
			break
		}
	}
	return g.ThreadMode
}

func (p *Pipeline) runPersonal(ctx context.Context, g *model.GlobalConfig, r *model.RecipientProfile, it model.Item) {
	nowLocal := digest.Localize(p.now(), r.Timezone, g.Timezone)
	ev := EvaluatePersonal(it, g, r, nowLocal)
	p.applyOutcome(ctx, g, r, it, ev)
}

func (p *Pipeline) runWatch(ctx context.Context, g *model.GlobalConfig, r *model.RecipientProfile, it model.Item) {
	nowLocal := digest.Localize(p.now(), r.Timezone, g.Timezone)
	ev := EvaluateWatch(it, g, r, nowLocal)
	p.applyOutcome(ctx, g, r, it, ev)
}

// applyOutcome executes an evaluation's decision for one recipient.
// The per-recipient seen ledger is what deduplicates the personal and
// watched-author pipelines against each other: whichever runs first
// marks the item seen and the other skips it.
func (p *Pipeline) applyOutcome(ctx context.Context, g *model.GlobalConfig, r *model.RecipientProfile, it model.Item, ev Evaluation) {
	if ev.Outcome == OutcomeDrop {
		return
	}

	scope := recipientScope(r.ID)
	seen, err := p.store.IsSeen(ctx, scope, it.Kind, it.ID)
	if err != nil {
		p.log.Error("check seen", "scope", scope, "item", it.ID, "error", err)
		return
	}
	if seen {
		return
	}

	if ev.Outcome == OutcomeSkip {
		// Quiet hours under the skip policy: processed, never sent.
		p.markSeen(ctx, scope, it)
		return
	}

	sink := PersonalSink(it, g, r)
	if DMGuard(it, g, r, sink) {
		// The global DM fanout already reached this recipient.
		p.markSeen(ctx, scope, it)
		return
	}

	if ev.Outcome == OutcomeDigest {
		entry := &model.DigestEntry{
			RecipientID: r.ID,
			Title:       it.Title,
			URL:         it.URL,
			Origin:      it.Origin,
			Kind:        it.Kind,
			EnqueuedAt:  p.now().UTC(),
		}
		if err := p.store.EnqueueDigest(ctx, entry); err != nil {
			p.log.Error("enqueue digest", "recipient", r.ID, "item", it.ID, "error", err)
			return
		}
		p.markSeen(ctx, scope, it)
		return
	}

	if sink.IsZero() {
		// Passed every filter but has nowhere to go (DMs disabled, no
		// sink configured). Not marked seen: enabling DMs later lets
		// the next cycle deliver newer items normally.
		return
	}
	p.deliver(ctx, g, r, sink, it)
	p.markSeen(ctx, scope, it)
}

func (p *Pipeline) deliver(ctx context.Context, g *model.GlobalConfig, r *model.RecipientProfile, sink model.SinkRef, it model.Item) {
	expanded := g.ThreadMode
	if r.ThreadMode != nil {
		expanded = *r.ThreadMode
	}
	switch sink.Kind {
	case model.SinkWebhook:
		p.postWebhook(ctx, sink.URL, it)
	default:
		p.sender.SendMessage(sink.ChatID, notify.Render(it, expanded))
	}
}

func (p *Pipeline) postWebhook(ctx context.Context, url string, it model.Item) {
	if err := p.webhook.Post(ctx, url, it); err != nil {
		p.log.Error("post webhook", "url", url, "item", it.ID, "error", err)
	}
}

func (p *Pipeline) markSeen(ctx context.Context, scope string, it model.Item) {
	if err := p.store.MarkSeen(ctx, scope, it.Kind, it.ID); err != nil {
		p.log.Error("mark seen", "scope", scope, "item", it.ID, "error", err)
	}
}

// FlushDigests sends every due recipient's digest and advances their
// cadence watermark. A due recipient with an empty queue is still
// marked sent so the window is consumed without an empty message.
// Recipients with digests off get any quiet-hours deferrals released
// instead.
func (p *Pipeline) FlushDigests(ctx context.Context) {
	g, err := p.store.GetGlobal(ctx)
	if err != nil {
		p.log.Error("load global config", "error", err)
		return
	}
	recipients, err := p.store.ListRecipients(ctx)
	if err != nil {
		p.log.Error("list recipients", "error", err)
		return
	}

	for i := range recipients {
		if ctx.Err() != nil {
			return
		}
		r := &recipients[i]
		nowLocal := digest.Localize(p.now(), r.Timezone, g.Timezone)

		if r.DigestMode == model.DigestOff || r.DigestMode == "" {
			// Quiet-hours deferrals still land in the queue for
			// digest-off recipients; release them once the window ends.
			p.releaseDeferred(ctx, g, r, nowLocal)
			continue
		}

		meta, err := p.store.GetDigestMeta(ctx, r.ID)
		if err != nil {
			p.log.Error("load digest meta", "recipient", r.ID, "error", err)
			continue
		}
		if !digest.Due(nowLocal, r, meta) {
			continue
		}

		pending, err := p.store.PendingDigest(ctx, r.ID)
		if err != nil {
			p.log.Error("pending digest", "recipient", r.ID, "error", err)
			continue
		}
		if pending > 0 {
			sink := digestSink(g, r)
			if sink.IsZero() {
				// Keep the queue and the watermark: the next flush
				// retries once a destination exists.
				p.log.Warn("digest has no destination", "recipient", r.ID, "items", pending)
				continue
			}
			entries, err := p.store.DrainDigest(ctx, r.ID)
			if err != nil {
				p.log.Error("drain digest", "recipient", r.ID, "error", err)
				continue
			}
			for _, chunk := range digest.FormatChunks(entries) {
				p.sender.SendMessage(sink.ChatID, chunk)
			}
			p.log.Info("sent digest", "recipient", r.ID, "items", len(entries))
		}

		digest.MarkSent(nowLocal, r, meta)
		if err := p.store.SaveDigestMeta(ctx, meta); err != nil {
			p.log.Error("save digest meta", "recipient", r.ID, "error", err)
		}
	}
}

// releaseDeferred delivers queued entries for a recipient whose digest
// mode is off. Such entries exist only when the quiet-hours policy is
// defer; there is no cadence watermark, so they go out on the first
// flush outside the recipient's quiet window.
func (p *Pipeline) releaseDeferred(ctx context.Context, g *model.GlobalConfig, r *model.RecipientProfile, nowLocal time.Time) {
	if r.Quiet != nil && r.Quiet.Contains(nowLocal) {
		return
	}
	pending, err := p.store.PendingDigest(ctx, r.ID)
	if err != nil {
		p.log.Error("pending digest", "recipient", r.ID, "error", err)
		return
	}
	if pending == 0 {
		return
	}
	sink := digestSink(g, r)
	if sink.IsZero() {
		p.log.Warn("deferred items have no destination", "recipient", r.ID, "items", pending)
		return
	}
	entries, err := p.store.DrainDigest(ctx, r.ID)
	if err != nil {
		p.log.Error("drain digest", "recipient", r.ID, "error", err)
		return
	}
	for _, chunk := range digest.FormatChunks(entries) {
		p.sender.SendMessage(sink.ChatID, chunk)
	}
	p.log.Info("released deferred items", "recipient", r.ID, "items", len(entries))
}

// digestSink resolves where a recipient's digest goes: their preferred
// channel when personal routing is on, otherwise their DMs.
func digestSink(g *model.GlobalConfig, r *model.RecipientProfile) model.SinkRef {
	if g.PersonalRouting && r.PreferredSink != nil && r.PreferredSink.Kind == model.SinkChannel {
		return *r.PreferredSink
	}
	if r.DMEnabled {
		return model.SinkRef{Kind: model.SinkDM, ChatID: r.ID}
	}
	return model.SinkRef{}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if s == "" {
			continue
		}
		key := s
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func collect(recipients []model.RecipientProfile, get func(model.RecipientProfile) []string) []string {
	var out []string
	for _, r := range recipients {
		out = append(out, get(r)...)
	}
	return out
}
