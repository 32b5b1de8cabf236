package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/matcher"
	"github.com/ethanocurtis/MultiNotify/internal/model"
	"github.com/ethanocurtis/MultiNotify/internal/route"
)

// Outcome is the decision an evaluation reaches for one
// (item, pipeline) pair. Exactly one outcome applies per evaluation.
type Outcome string

// Possible outcomes. Drop means a filter mismatch and is never marked
// seen; Skip means a quiet-hours suppression that is marked seen under
// the skip policy.
const (
	OutcomeDeliver Outcome = "deliver"
	OutcomeDigest  Outcome = "digest"
	OutcomeDrop    Outcome = "drop"
	OutcomeSkip    Outcome = "skip"
)

// Check is one filter step in an evaluation trace.
type Check struct {
	Name   string
	Pass   bool
	Detail string
}

// Evaluation is the structured result of running an item through one
// pipeline's filters. The same evaluation backs live delivery and the
// /explain command, so the two can never drift apart.
type Evaluation struct {
	Outcome Outcome
	Checks  []Check
}

func (e *Evaluation) check(name string, pass bool, detail string) bool {
	e.Checks = append(e.Checks, Check{Name: name, Pass: pass, Detail: detail})
	return pass
}

func matchText(it model.Item) string {
	return it.Title + " " + it.Body
}

// EvaluateGlobal runs an item through the global pipeline's filters.
func EvaluateGlobal(it model.Item, g *model.GlobalConfig) Evaluation {
	var ev Evaluation

	if !ev.check("origin", globalOrigin(it, g), fmt.Sprintf("item origin %q", it.Origin)) {
		ev.Outcome = OutcomeDrop
		return ev
	}
	if !ev.check("category", matcher.MatchCategory(it.Category, g.Flairs), categoryDetail(it.Category, g.Flairs)) {
		ev.Outcome = OutcomeDrop
		return ev
	}
	if !ev.check("keywords", matcher.MatchKeywords(matchText(it), g.Keywords), keywordDetail(g.Keywords)) {
		ev.Outcome = OutcomeDrop
		return ev
	}

	ev.Outcome = OutcomeDeliver
	return ev
}

func globalOrigin(it model.Item, g *model.GlobalConfig) bool {
	if it.Kind == model.KindFeed {
		return containsString(g.Feeds, it.Origin)
	}
	return strings.EqualFold(it.Origin, g.Subreddit)
}

// EvaluatePersonal runs an item through one recipient's subscription
// pipeline. nowLocal must be in the recipient's local timezone.
func EvaluatePersonal(it model.Item, g *model.GlobalConfig, r *model.RecipientProfile, nowLocal time.Time) Evaluation {
	var ev Evaluation

	if !ev.check("subscription", personalOrigin(it, g, r), fmt.Sprintf("item origin %q", it.Origin)) {
		ev.Outcome = OutcomeDrop
		return ev
	}
	if !ev.check("category", matcher.MatchCategory(it.Category, r.Flairs), categoryDetail(it.Category, r.Flairs)) {
		ev.Outcome = OutcomeDrop
		return ev
	}
	if !ev.check("keywords", matcher.MatchKeywords(matchText(it), r.KeywordsFor(it.Kind)), keywordDetail(r.KeywordsFor(it.Kind))) {
		ev.Outcome = OutcomeDrop
		return ev
	}

	finishPersonal(&ev, g, r, nowLocal)
	return ev
}

// EvaluateWatch runs an item through one recipient's watched-author
// pipeline, applying the recipient's bypass flags.
func EvaluateWatch(it model.Item, g *model.GlobalConfig, r *model.RecipientProfile, nowLocal time.Time) Evaluation {
	var ev Evaluation

	watched := matcher.MatchAuthor(it.Author, r.WatchedAuthors) ||
		matcher.MatchAuthor(it.Author, g.WatchedAuthors)
	if !ev.check("watched author", watched, fmt.Sprintf("author %q", it.Author)) {
		ev.Outcome = OutcomeDrop
		return ev
	}

	if r.WatchBypass.Origin {
		ev.check("subscription", true, "bypassed for watched author")
	} else if !ev.check("subscription", personalOrigin(it, g, r), fmt.Sprintf("item origin %q", it.Origin)) {
		ev.Outcome = OutcomeDrop
		return ev
	}

	if r.WatchBypass.Category {
		ev.check("category", true, "bypassed for watched author")
	} else if !ev.check("category", matcher.MatchCategory(it.Category, r.Flairs), categoryDetail(it.Category, r.Flairs)) {
		ev.Outcome = OutcomeDrop
		return ev
	}

	if r.WatchBypass.Keyword {
		ev.check("keywords", true, "bypassed for watched author")
	} else if !ev.check("keywords", matcher.MatchKeywords(matchText(it), r.KeywordsFor(it.Kind)), keywordDetail(r.KeywordsFor(it.Kind))) {
		ev.Outcome = OutcomeDrop
		return ev
	}

	finishPersonal(&ev, g, r, nowLocal)
	return ev
}

// finishPersonal applies the quiet-hours and digest decisions shared
// by the personal and watched-author pipelines.
func finishPersonal(ev *Evaluation, g *model.GlobalConfig, r *model.RecipientProfile, nowLocal time.Time) {
	if r.Quiet != nil && r.Quiet.Contains(nowLocal) {
		detail := fmt.Sprintf("inside %s-%s", r.Quiet.Start, r.Quiet.End)
		ev.check("quiet hours", false, detail)
		if g.QuietPolicy == model.QuietDefer {
			ev.Outcome = OutcomeDigest
		} else {
			ev.Outcome = OutcomeSkip
		}
		return
	}
	if r.Quiet != nil {
		ev.check("quiet hours", true, fmt.Sprintf("outside %s-%s", r.Quiet.Start, r.Quiet.End))
	}

	if r.DigestMode != model.DigestOff && r.DigestMode != "" {
		ev.Outcome = OutcomeDigest
		return
	}
	ev.Outcome = OutcomeDeliver
}

func personalOrigin(it model.Item, g *model.GlobalConfig, r *model.RecipientProfile) bool {
	if it.Kind == model.KindFeed {
		// An empty personal feed list falls back to the global feeds.
		if len(r.Feeds) == 0 {
			return containsString(g.Feeds, it.Origin)
		}
		return containsString(r.Feeds, it.Origin)
	}
	// An empty subreddit list is an implicit subscription to the
	// global subreddit.
	if len(r.Subreddits) == 0 {
		return strings.EqualFold(it.Origin, g.Subreddit)
	}
	return containsString(r.Subreddits, it.Origin)
}

// PersonalSink resolves the destination for a recipient's immediate
// delivery. With personal routing enabled, keyword routes are
// consulted first, then the preferred sink; otherwise delivery is
// DM-only. A zero sink means the recipient has no usable destination.
func PersonalSink(it model.Item, g *model.GlobalConfig, r *model.RecipientProfile) model.SinkRef {
	if g.PersonalRouting {
		var def model.SinkRef
		if r.PreferredSink != nil {
			def = *r.PreferredSink
		}
		if s := route.Resolve(matchText(it), r.RoutesFor(it.Kind), def); !s.IsZero() {
			return s
		}
	}
	if r.DMEnabled {
		return model.SinkRef{Kind: model.SinkDM, ChatID: r.ID}
	}
	return model.SinkRef{}
}

// DMGuard reports whether personal delivery must be suppressed because
// the recipient would receive the same item twice: their destination
// is a DM, they are on the global DM fanout list, and the item
// qualified for global delivery this cycle.
func DMGuard(it model.Item, g *model.GlobalConfig, r *model.RecipientProfile, sink model.SinkRef) bool {
	if sink.Kind != model.SinkDM {
		return false
	}
	if !g.DMEnabled || !containsID(g.DMUserIDs, r.ID) {
		return false
	}
	return EvaluateGlobal(it, g).Outcome == OutcomeDeliver
}

func categoryDetail(category string, allow []string) string {
	if len(allow) == 0 {
		return "allow-list empty"
	}
	if category == "" {
		return "item has no category"
	}
	return fmt.Sprintf("category %q", category)
}

func keywordDetail(keywords []string) string {
	if len(keywords) == 0 {
		return "filter empty"
	}
	return fmt.Sprintf("filter %v", keywords)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

func containsID(list []int64, id int64) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
