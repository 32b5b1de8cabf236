package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethanocurtis/MultiNotify/internal/digest"
	"github.com/ethanocurtis/MultiNotify/internal/model"
	"github.com/ethanocurtis/MultiNotify/internal/storage"
)

// ExplainGlobal runs an item through the global pipeline without
// delivering and returns a readable trace of every check.
func (p *Pipeline) ExplainGlobal(ctx context.Context, it model.Item) (string, error) {
	g, err := p.store.GetGlobal(ctx)
	if err != nil {
		return "", fmt.Errorf("load global config: %w", err)
	}

	ev := EvaluateGlobal(it, g)
	seen, err := p.store.IsSeen(ctx, storage.GlobalScope, it.Kind, it.ID)
	if err != nil {
		return "", fmt.Errorf("check seen: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Global pipeline for %q:\n", it.Title)
	writeChecks(&b, ev.Checks)
	if seen {
		b.WriteString("  already seen: would not deliver again\n")
	}
	fmt.Fprintf(&b, "-> %s\n", describeOutcome(ev.Outcome, seen))
	return b.String(), nil
}

// ExplainPersonal runs an item through one recipient's personal and
// watched-author pipelines without delivering and returns a readable
// trace of every check plus the resolved destination.
func (p *Pipeline) ExplainPersonal(ctx context.Context, recipientID int64, it model.Item) (string, error) {
	g, err := p.store.GetGlobal(ctx)
	if err != nil {
		return "", fmt.Errorf("load global config: %w", err)
	}
	r, err := p.store.GetRecipient(ctx, recipientID)
	if err != nil {
		return "", fmt.Errorf("load recipient: %w", err)
	}
	seen, err := p.store.IsSeen(ctx, recipientScope(recipientID), it.Kind, it.ID)
	if err != nil {
		return "", fmt.Errorf("check seen: %w", err)
	}

	nowLocal := digest.Localize(p.now(), r.Timezone, g.Timezone)
	personal := EvaluatePersonal(it, g, r, nowLocal)
	watch := EvaluateWatch(it, g, r, nowLocal)

	var b strings.Builder
	fmt.Fprintf(&b, "Personal pipeline for %q:\n", it.Title)
	writeChecks(&b, personal.Checks)
	fmt.Fprintf(&b, "-> %s\n", describeOutcome(personal.Outcome, seen))

	fmt.Fprintf(&b, "\nWatched-author pipeline:\n")
	writeChecks(&b, watch.Checks)
	fmt.Fprintf(&b, "-> %s\n", describeOutcome(watch.Outcome, seen))

	if personal.Outcome == OutcomeDeliver || watch.Outcome == OutcomeDeliver {
		sink := PersonalSink(it, g, r)
		switch {
		case sink.IsZero():
			b.WriteString("\nDestination: none (enable DMs or set a sink)\n")
		case DMGuard(it, g, r, sink):
			b.WriteString("\nDestination: suppressed (item already reaches you via the global DM list)\n")
		default:
			fmt.Fprintf(&b, "\nDestination: %s\n", describeSink(sink))
		}
	}
	return b.String(), nil
}

func writeChecks(b *strings.Builder, checks []Check) {
	for _, c := range checks {
		mark := "ok"
		if !c.Pass {
			mark = "no"
		}
		fmt.Fprintf(b, "  [%s] %s: %s\n", mark, c.Name, c.Detail)
	}
}

func describeOutcome(o Outcome, seen bool) string {
	if seen && o != OutcomeDrop {
		return "already delivered (seen)"
	}
	switch o {
	case OutcomeDeliver:
		return "would deliver immediately"
	case OutcomeDigest:
		return "would defer to digest"
	case OutcomeSkip:
		return "would skip (quiet hours)"
	default:
		return "would drop"
	}
}

func describeSink(s model.SinkRef) string {
	switch s.Kind {
	case model.SinkChannel:
		return fmt.Sprintf("channel %d", s.ChatID)
	case model.SinkDM:
		return "direct message"
	case model.SinkWebhook:
		return fmt.Sprintf("webhook %s", s.URL)
	}
	return "none"
}
