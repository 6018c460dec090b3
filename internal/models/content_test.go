// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "testing"

// TestContentIsPublished verifies visibility for status-bearing kinds and
// for advertisements, which are always visible.
func TestContentIsPublished(t *testing.T) {
	tests := []struct {
		name   string
		kind   ContentKind
		status ContentStatus
		want   bool
	}{
		{name: "published post", kind: KindPost, status: ContentStatusPublished, want: true},
		{name: "draft post", kind: KindPost, status: ContentStatusDraft, want: false},
		{name: "empty status video", kind: KindVideo, status: ContentStatus(""), want: false},
		{name: "uppercase PUBLISHED", kind: KindOpinion, status: ContentStatus("PUBLISHED"), want: false},
		{name: "ad without status", kind: KindAd, status: ContentStatus(""), want: true},
		{name: "ad marked draft", kind: KindAd, status: ContentStatusDraft, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Content{Kind: tt.kind, Status: tt.status}
			if got := c.IsPublished(); got != tt.want {
				t.Errorf("Content{Kind: %q, Status: %q}.IsPublished() = %v, want %v",
					tt.kind, tt.status, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want ContentKind
		ok   bool
	}{
		{"post", KindPost, true},
		{"posts", KindPost, true},
		{"videos", KindVideo, true},
		{"opinion", KindOpinion, true},
		{"ads", KindAd, true},
		{"pages", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseKind(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseKind(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestContentPatchEmpty(t *testing.T) {
	if !(ContentPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	title := "x"
	if (ContentPatch{Title: &title}).Empty() {
		t.Error("patch with title should not be empty")
	}
}

func TestContentIsFeatured(t *testing.T) {
	pos := 1
	if !(&Content{FeaturedPosition: &pos}).IsFeatured() {
		t.Error("expected featured")
	}
	if (&Content{}).IsFeatured() {
		t.Error("expected not featured")
	}
}
