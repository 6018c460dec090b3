// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/content"
	"newsdesk/internal/metrics"
	"newsdesk/internal/preview"
	"newsdesk/internal/store"
)

// Public groups the unauthenticated read handlers. Drafts are never
// visible here except through a valid preview token.
type Public struct {
	content  *content.Service
	taxonomy *content.TaxonomyService
	comments *content.CommentService
	previews *preview.Signer
	metrics  *metrics.Metrics
}

// NewPublic creates the public handler group. m may be nil.
func NewPublic(svc *content.Service, taxonomy *content.TaxonomyService, comments *content.CommentService, previews *preview.Signer, m *metrics.Metrics) *Public {
	return &Public{content: svc, taxonomy: taxonomy, comments: comments, previews: previews, metrics: m}
}

// List returns one page of published items of the requested kind.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	f, sort, err := contentFilter(r, kind)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	res, err := p.content.ListPublic(r.Context(), f, sort, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, res)
}

// Featured returns the published featured items of the kind, one per slot.
func (p *Public) Featured(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	slots, err := p.content.Featured(r.Context(), kind)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, slots)
}

// Get returns one published item.
func (p *Public) Get(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := p.content.GetPublic(r.Context(), kind, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, c)
}

// GetBySlug returns one published item by its slug.
func (p *Public) GetBySlug(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := p.content.GetBySlug(r.Context(), kind, chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if !c.IsPublished() {
		fail(w, r, store.ErrNotFound)
		return
	}
	ok(w, http.StatusOK, c)
}

type viewCount struct {
	Views int64 `json:"views"`
}

// View records one view of an item and returns the new count.
func (p *Public) View(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	n, err := p.content.IncrementView(r.Context(), kind, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	p.metrics.View(kind)
	ok(w, http.StatusOK, viewCount{Views: n})
}

// Comments lists the approved comments of a published item.
func (p *Public) Comments(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if _, err := p.content.GetPublic(r.Context(), kind, id); err != nil {
		fail(w, r, err)
		return
	}
	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	approved := true
	res, err := p.comments.List(r.Context(), store.CommentFilter{ContentID: &id, Approved: &approved}, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, res)
}

// Categories returns the category tree for navigation.
func (p *Public) Categories(w http.ResponseWriter, r *http.Request) {
	tree, err := p.taxonomy.CategoryTree(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, tree)
}

// Tags returns one page of tags.
func (p *Public) Tags(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := p.taxonomy.Tags(r.Context(), store.TaxonomyFilter{Search: r.URL.Query().Get("q")}, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, res)
}

// Preview shows the item named by a signed preview token, whatever its
// status. Invalid tokens answer 404 and expired ones 410.
func (p *Public) Preview(w http.ResponseWriter, r *http.Request) {
	kind, id, err := p.previews.Verify(chi.URLParam(r, "token"))
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := p.content.Get(r.Context(), kind, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Robots-Tag", "noindex")
	ok(w, http.StatusOK, c)
}
