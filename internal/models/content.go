// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentKind distinguishes the publishable units stored in the unified
// content table.
type ContentKind string

const (
	KindPost    ContentKind = "post"
	KindVideo   ContentKind = "video"
	KindOpinion ContentKind = "opinion"
	KindAd      ContentKind = "ad"
)

// Kinds lists every content kind in display order.
var Kinds = []ContentKind{KindPost, KindVideo, KindOpinion, KindAd}

// ParseKind accepts either the singular kind ("post") or the plural
// collection name used in URLs ("posts").
func ParseKind(s string) (ContentKind, bool) {
	for _, k := range Kinds {
		if s == string(k) || s == k.Plural() {
			return k, true
		}
	}
	return "", false
}

// Plural returns the collection name for the kind.
func (k ContentKind) Plural() string {
	return string(k) + "s"
}

// HasStatus reports whether the kind goes through draft/published states.
// Advertisements are always visible.
func (k ContentKind) HasStatus() bool {
	return k != KindAd
}

// Namespace returns the asset namespace used for images of this kind.
func (k ContentKind) Namespace() string {
	return k.Plural()
}

// ContentStatus represents the publishing state of a content item.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
)

// Valid reports whether s is a known status.
func (s ContentStatus) Valid() bool {
	return s == ContentStatusDraft || s == ContentStatusPublished
}

// Content is a post, video, opinion, or advertisement. All kinds share
// one table and one shape; MediaURL holds the video source for videos and
// the click-through link for ads.
type Content struct {
	ID               uuid.UUID     `json:"id"`
	Kind             ContentKind   `json:"kind"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Body             string        `json:"body"`
	Status           ContentStatus `json:"status"`
	AuthorID         *uuid.UUID    `json:"author_id,omitempty"`
	SubcategoryID    *uuid.UUID    `json:"subcategory_id,omitempty"`
	ImageURL         *string       `json:"image_url,omitempty"`
	MediaURL         *string       `json:"media_url,omitempty"`
	FeaturedPosition *int          `json:"featured_position,omitempty"`
	ViewCount        int64         `json:"view_count"`
	PublishedAt      *time.Time    `json:"published_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	// Read-model fields populated by store and service methods.
	AuthorName string     `json:"author_name,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	Tags       []Tag      `json:"tags,omitempty"`
}

// IsPublished returns true if the content item is visible to readers.
func (c *Content) IsPublished() bool {
	return !c.Kind.HasStatus() || c.Status == ContentStatusPublished
}

// IsFeatured returns true if the item claims a featured slot.
func (c *Content) IsFeatured() bool {
	return c.FeaturedPosition != nil
}

// ContentPatch lists the content fields an update may change. Nil fields
// are left untouched; a non-nil pointer to nil clears a nullable column.
type ContentPatch struct {
	Title            *string
	Slug             *string
	Body             *string
	Status           *ContentStatus
	SubcategoryID    **uuid.UUID
	ImageURL         **string
	MediaURL         **string
	FeaturedPosition **int
	PublishedAt      **time.Time
}

// Empty reports whether the patch changes nothing.
func (p ContentPatch) Empty() bool {
	return p == ContentPatch{}
}
