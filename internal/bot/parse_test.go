package bot

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

func TestParseListOp(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    ListOp
		wantErr bool
	}{
		{name: "empty means list", args: "", want: ListOp{Op: "list"}},
		{name: "explicit list", args: "list", want: ListOp{Op: "list"}},
		{name: "clear", args: "clear", want: ListOp{Op: "clear"}},
		{name: "add with value", args: "add docker", want: ListOp{Op: "add", Value: "docker"}},
		{name: "add multi-word value", args: "add home assistant", want: ListOp{Op: "add", Value: "home assistant"}},
		{name: "rm with value", args: "rm docker", want: ListOp{Op: "rm", Value: "docker"}},
		{name: "add without value", args: "add", wantErr: true},
		{name: "unknown op", args: "frobnicate docker", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseListOp(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseOnOff(t *testing.T) {
	for _, s := range []string{"on", "ON", "true", "yes"} {
		got, err := ParseOnOff(s)
		if err != nil || !got {
			t.Errorf("ParseOnOff(%q) = %v, %v, want true", s, got, err)
		}
	}
	for _, s := range []string{"off", "false", "no"} {
		got, err := ParseOnOff(s)
		if err != nil || got {
			t.Errorf("ParseOnOff(%q) = %v, %v, want false", s, got, err)
		}
	}
	if _, err := ParseOnOff("maybe"); err == nil {
		t.Error("ParseOnOff(maybe) should fail")
	}
}

func TestParseQuietArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    *model.QuietHours
		wantErr bool
	}{
		{name: "window", args: "22:00-07:00", want: &model.QuietHours{Start: "22:00", End: "07:00"}},
		{name: "off clears", args: "off", want: nil},
		{name: "spaces tolerated", args: " 09:00 - 17:00 ", want: &model.QuietHours{Start: "09:00", End: "17:00"}},
		{name: "empty", args: "", wantErr: true},
		{name: "missing dash", args: "22:00", wantErr: true},
		{name: "bad time", args: "25:00-07:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuietArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDigestArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    DigestArgs
		wantErr bool
	}{
		{name: "off", args: "off", want: DigestArgs{Mode: model.DigestOff}},
		{name: "daily", args: "daily", want: DigestArgs{Mode: model.DigestDaily}},
		{name: "daily with time", args: "daily 08:30", want: DigestArgs{Mode: model.DigestDaily, Time: "08:30"}},
		{
			name: "weekly with time and day",
			args: "weekly 10:00 fri",
			want: DigestArgs{Mode: model.DigestWeekly, Time: "10:00", Day: time.Friday, HasDay: true},
		},
		{
			name: "weekly day before time",
			args: "weekly sun 18:00",
			want: DigestArgs{Mode: model.DigestWeekly, Time: "18:00", Day: time.Sunday, HasDay: true},
		},
		{name: "empty", args: "", wantErr: true},
		{name: "unknown mode", args: "hourly", wantErr: true},
		{name: "junk argument", args: "daily noonish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDigestArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRouteArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    model.Route
		wantErr bool
	}{
		{
			name: "numeric destination is a channel",
			args: "docker -1001234",
			want: model.Route{
				Keyword: "docker",
				Sink:    model.SinkRef{Kind: model.SinkChannel, ChatID: -1001234},
			},
		},
		{
			name: "http destination is a webhook",
			args: "backup https://hooks.example.com/n",
			want: model.Route{
				Keyword: "backup",
				Sink:    model.SinkRef{Kind: model.SinkWebhook, URL: "https://hooks.example.com/n"},
			},
		},
		{name: "missing destination", args: "docker", wantErr: true},
		{name: "bad destination", args: "docker somewhere", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRouteArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseExplainArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    model.Item
		wantErr bool
	}{
		{
			name: "subreddit origin",
			args: "selfhosted author:alice flair:Release new dashboard out",
			want: model.Item{
				ID:       "dry-run",
				Kind:     model.KindReddit,
				Title:    "new dashboard out",
				Author:   "alice",
				Category: "Release",
				Origin:   "selfhosted",
			},
		},
		{
			name: "http origin is a feed",
			args: "https://example.com/rss backup guide",
			want: model.Item{
				ID:     "dry-run",
				Kind:   model.KindFeed,
				Title:  "backup guide",
				Origin: "https://example.com/rss",
			},
		},
		{name: "no title", args: "selfhosted author:alice", wantErr: true},
		{name: "empty", args: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExplainArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
