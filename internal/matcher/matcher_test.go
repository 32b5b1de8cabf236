package matcher

import "testing"

func TestMatchKeywords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{
			name:     "empty set matches everything",
			text:     "anything",
			keywords: nil,
			want:     true,
		},
		{
			name:     "whole word match",
			text:     "Docker is great",
			keywords: []string{"docker"},
			want:     true,
		},
		{
			name:     "no substring match",
			text:     "dockerized",
			keywords: []string{"docker"},
			want:     false,
		},
		{
			name:     "case insensitive",
			text:     "PROXMOX cluster upgrade",
			keywords: []string{"proxmox"},
			want:     true,
		},
		{
			name:     "any keyword suffices",
			text:     "new proxmox release",
			keywords: []string{"docker", "proxmox"},
			want:     true,
		},
		{
			name:     "none match",
			text:     "kubernetes release",
			keywords: []string{"docker", "proxmox"},
			want:     false,
		},
		{
			name:     "punctuation is a word boundary",
			text:     "running docker, in production",
			keywords: []string{"docker"},
			want:     true,
		},
		{
			name:     "multi-word keyword",
			text:     "a home assistant setup",
			keywords: []string{"home assistant"},
			want:     true,
		},
		{
			name:     "regex metacharacters are literal",
			text:     "version 1.2 released",
			keywords: []string{"1.2"},
			want:     true,
		},
		{
			name:     "blank keyword matches nothing",
			text:     "anything",
			keywords: []string{"  "},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchKeywords(tt.text, tt.keywords); got != tt.want {
				t.Errorf("MatchKeywords(%q, %v) = %v, want %v", tt.text, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		allow    []string
		want     bool
	}{
		{name: "empty allowlist allows all", category: "Help", allow: nil, want: true},
		{name: "exact member", category: "Release", allow: []string{"Release", "News"}, want: true},
		{name: "not a member", category: "Help", allow: []string{"Release"}, want: false},
		{name: "case sensitive", category: "release", allow: []string{"Release"}, want: false},
		{name: "trimmed comparison", category: "Release", allow: []string{" Release "}, want: true},
		{name: "empty category with allowlist", category: "", allow: []string{"Release"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchCategory(tt.category, tt.allow); got != tt.want {
				t.Errorf("MatchCategory(%q, %v) = %v, want %v", tt.category, tt.allow, got, tt.want)
			}
		})
	}
}

func TestNormalizeAuthor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SomeUser", "someuser"},
		{"u/SomeUser", "someuser"},
		{"/u/SomeUser", "someuser"},
		{"  u/someuser  ", "someuser"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeAuthor(tt.in); got != tt.want {
			t.Errorf("NormalizeAuthor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchAuthor(t *testing.T) {
	tests := []struct {
		name    string
		author  string
		authors []string
		want    bool
	}{
		{name: "member", author: "someuser", authors: []string{"someuser"}, want: true},
		{name: "prefix stripped on both sides", author: "u/SomeUser", authors: []string{"someuser"}, want: true},
		{name: "not a member", author: "other", authors: []string{"someuser"}, want: false},
		{name: "empty author never matches", author: "", authors: []string{"someuser"}, want: false},
		{name: "empty set", author: "someuser", authors: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchAuthor(tt.author, tt.authors); got != tt.want {
				t.Errorf("MatchAuthor(%q, %v) = %v, want %v", tt.author, tt.authors, got, tt.want)
			}
		})
	}
}
