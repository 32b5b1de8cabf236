package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGlobalConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.GetGlobal(ctx)
	if err != nil {
		t.Fatalf("get global: %v", err)
	}
	if diff := cmp.Diff(model.DefaultGlobal(), got); diff != "" {
		t.Errorf("unsaved global should be defaults (-want +got):\n%s", diff)
	}

	g := model.DefaultGlobal()
	g.Subreddit = "homelab"
	g.Keywords = []string{"docker", "proxmox"}
	g.Routes = []model.Route{
		{Keyword: "docker", Sink: model.SinkRef{Kind: model.SinkChannel, ChatID: 100}},
	}
	g.DMUserIDs = []int64{7, 8}
	g.PersonalRouting = true
	if err := s.SaveGlobal(ctx, g); err != nil {
		t.Fatalf("save global: %v", err)
	}

	got, err = s.GetGlobal(ctx)
	if err != nil {
		t.Fatalf("get global: %v", err)
	}
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("global round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRecipientRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.GetRecipient(ctx, 42)
	if err != nil {
		t.Fatalf("get recipient: %v", err)
	}
	if diff := cmp.Diff(model.DefaultProfile(42), got); diff != "" {
		t.Errorf("unknown recipient should get defaults (-want +got):\n%s", diff)
	}

	recipients, err := s.ListRecipients(ctx)
	if err != nil {
		t.Fatalf("list recipients: %v", err)
	}
	if len(recipients) != 0 {
		t.Errorf("unknown recipient must not appear in ListRecipients, got %d", len(recipients))
	}

	p := model.DefaultProfile(42)
	p.Subreddits = []string{"homelab"}
	p.RedditKeywords = []string{"docker"}
	p.Quiet = &model.QuietHours{Start: "22:00", End: "07:00"}
	p.DigestMode = model.DigestDaily
	threadOn := true
	p.ThreadMode = &threadOn
	if err := s.SaveRecipient(ctx, p); err != nil {
		t.Fatalf("save recipient: %v", err)
	}

	got, err = s.GetRecipient(ctx, 42)
	if err != nil {
		t.Fatalf("get recipient: %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("recipient round trip mismatch (-want +got):\n%s", diff)
	}

	recipients, err = s.ListRecipients(ctx)
	if err != nil {
		t.Fatalf("list recipients: %v", err)
	}
	if len(recipients) != 1 || recipients[0].ID != 42 {
		t.Errorf("ListRecipients = %+v, want the one saved profile", recipients)
	}
}

func TestSeenLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seen, err := s.IsSeen(ctx, GlobalScope, model.KindReddit, "abc")
	if err != nil {
		t.Fatalf("is seen: %v", err)
	}
	if seen {
		t.Error("unmarked item should not be seen")
	}

	if err := s.MarkSeen(ctx, GlobalScope, model.KindReddit, "abc"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if err := s.MarkSeen(ctx, GlobalScope, model.KindReddit, "abc"); err != nil {
		t.Fatalf("mark seen should be idempotent: %v", err)
	}

	seen, err = s.IsSeen(ctx, GlobalScope, model.KindReddit, "abc")
	if err != nil {
		t.Fatalf("is seen: %v", err)
	}
	if !seen {
		t.Error("marked item should be seen")
	}

	// Partitions are independent.
	for _, check := range []struct {
		scope string
		kind  model.SourceKind
	}{
		{"7", model.KindReddit},
		{GlobalScope, model.KindFeed},
	} {
		seen, err := s.IsSeen(ctx, check.scope, check.kind, "abc")
		if err != nil {
			t.Fatalf("is seen: %v", err)
		}
		if seen {
			t.Errorf("item should not be seen in partition (%s, %s)", check.scope, check.kind)
		}
	}
}

func TestSeenLedgerEviction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.SetSeenCap(5)

	for i := 0; i < 8; i++ {
		if err := s.MarkSeen(ctx, GlobalScope, model.KindReddit, fmt.Sprintf("id-%d", i)); err != nil {
			t.Fatalf("mark seen: %v", err)
		}
	}

	// Oldest three fell out of the bound, newest five remain.
	for i := 0; i < 3; i++ {
		seen, err := s.IsSeen(ctx, GlobalScope, model.KindReddit, fmt.Sprintf("id-%d", i))
		if err != nil {
			t.Fatalf("is seen: %v", err)
		}
		if seen {
			t.Errorf("id-%d should have been evicted", i)
		}
	}
	for i := 3; i < 8; i++ {
		seen, err := s.IsSeen(ctx, GlobalScope, model.KindReddit, fmt.Sprintf("id-%d", i))
		if err != nil {
			t.Fatalf("is seen: %v", err)
		}
		if !seen {
			t.Errorf("id-%d should still be seen", i)
		}
	}
}

func TestDigestQueue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entries, err := s.DrainDigest(ctx, 1)
	if err != nil {
		t.Fatalf("drain empty queue: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("empty queue drained %d entries", len(entries))
	}

	for i := 0; i < 3; i++ {
		e := &model.DigestEntry{
			RecipientID: 1,
			Title:       fmt.Sprintf("post %d", i),
			URL:         "https://example.com",
			Origin:      "selfhosted",
			Kind:        model.KindReddit,
		}
		if err := s.EnqueueDigest(ctx, e); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if err := s.EnqueueDigest(ctx, &model.DigestEntry{RecipientID: 2, Title: "other", Kind: model.KindFeed}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := s.PendingDigest(ctx, 1)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending != 3 {
		t.Errorf("pending = %d, want 3", pending)
	}

	entries, err = s.DrainDigest(ctx, 1)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("drained %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if want := fmt.Sprintf("post %d", i); e.Title != want {
			t.Errorf("entry %d title = %q, want %q (enqueue order)", i, e.Title, want)
		}
	}

	// Drain is destructive; a second drain returns nothing.
	entries, err = s.DrainDigest(ctx, 1)
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("second drain returned %d entries, want 0", len(entries))
	}

	// Another recipient's queue is untouched.
	pending, err = s.PendingDigest(ctx, 2)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending != 1 {
		t.Errorf("recipient 2 pending = %d, want 1", pending)
	}
}

func TestDigestMeta(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	meta, err := s.GetDigestMeta(ctx, 5)
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if diff := cmp.Diff(&model.DigestMeta{RecipientID: 5}, meta); diff != "" {
		t.Errorf("unsaved meta should be zero-valued (-want +got):\n%s", diff)
	}

	meta.LastDailyDate = "2025-06-10"
	meta.LastWeeklyISO = "2025-W24"
	if err := s.SaveDigestMeta(ctx, meta); err != nil {
		t.Fatalf("save meta: %v", err)
	}

	got, err := s.GetDigestMeta(ctx, 5)
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if diff := cmp.Diff(meta, got); diff != "" {
		t.Errorf("meta round trip mismatch (-want +got):\n%s", diff)
	}

	// Upsert overwrites.
	meta.LastDailyDate = "2025-06-11"
	if err := s.SaveDigestMeta(ctx, meta); err != nil {
		t.Fatalf("save meta: %v", err)
	}
	got, err = s.GetDigestMeta(ctx, 5)
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if got.LastDailyDate != "2025-06-11" {
		t.Errorf("LastDailyDate = %q, want 2025-06-11", got.LastDailyDate)
	}
}
