// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/content"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/preview"
	"newsdesk/internal/store"
)

// Admin groups the editorial content handlers. Every route is mounted
// under /api/admin/{kind} where kind is posts, videos, opinions or ads.
type Admin struct {
	content   *content.Service
	previews  *preview.Signer
	maxMemory int64
}

// NewAdmin creates the admin content handler group. maxMemory bounds the
// in-memory part of multipart forms.
func NewAdmin(svc *content.Service, previews *preview.Signer, maxMemory int64) *Admin {
	return &Admin{content: svc, previews: previews, maxMemory: maxMemory}
}

// contentFilter reads the list filters shared by admin and public listings.
func contentFilter(r *http.Request, kind models.ContentKind) (store.ContentFilter, store.ContentSort, error) {
	q := r.URL.Query()
	f := store.ContentFilter{
		Kind:   kind,
		Status: models.ContentStatus(q.Get("status")),
		Search: q.Get("q"),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, "", badRequest{"status must be draft or published."}
	}

	var err error
	if f.AuthorID, err = uuidQuery(r, "author"); err != nil {
		return f, "", err
	}
	if f.SubcategoryID, err = uuidQuery(r, "subcategory"); err != nil {
		return f, "", err
	}
	if f.CategoryIDs, err = uuidsQuery(r, "category"); err != nil {
		return f, "", err
	}
	if f.TagIDs, err = uuidsQuery(r, "tag"); err != nil {
		return f, "", err
	}
	featured, err := boolQuery(r, "featured")
	if err != nil {
		return f, "", err
	}
	f.FeaturedOnly = featured != nil && *featured
	if f.PublishedFrom, err = timeQuery(r, "from"); err != nil {
		return f, "", err
	}
	if f.PublishedTo, err = timeQuery(r, "to"); err != nil {
		return f, "", err
	}
	return f, store.ParseContentSort(q.Get("sort")), nil
}

// List returns one page of items of the requested kind, any status.
func (a *Admin) List(w http.ResponseWriter, r *http.Request) {
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

	p, err := a.content.List(r.Context(), f, sort, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, p)
}

// Get returns one item with its categories and tags.
func (a *Admin) Get(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := a.content.Get(r.Context(), kind, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, c)
}

// Create adds a new item authored by the signed-in identity.
func (a *Admin) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	body, err := readContentBody(r, a.maxMemory)
	if err != nil {
		fail(w, r, err)
		return
	}

	in := body.input()
	if body.image != nil {
		up, closeFile, err := openUpload(body.image)
		if err != nil {
			fail(w, r, err)
			return
		}
		defer closeFile()
		in.Image = up
	}

	c, err := a.content.Create(r.Context(), kind, actorID(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, c)
}

// Update applies a partial update. Absent fields are left alone; null
// clears nullable fields.
func (a *Admin) Update(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	body, err := readContentBody(r, a.maxMemory)
	if err != nil {
		fail(w, r, err)
		return
	}

	p := body.patch()
	if body.image != nil {
		up, closeFile, err := openUpload(body.image)
		if err != nil {
			fail(w, r, err)
			return
		}
		defer closeFile()
		p.Image = up
	}

	c, err := a.content.Update(r.Context(), kind, id, p)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, c)
}

// Delete removes an item and its image.
func (a *Admin) Delete(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := a.content.Delete(r.Context(), kind, id); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// SetStatus publishes or unpublishes an item.
func (a *Admin) SetStatus(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var body struct {
		Status models.ContentStatus `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}

	c, err := a.content.SetStatus(r.Context(), kind, id, body.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, c)
}

// SetFeatured assigns or clears the item's featured slot. Other items
// already holding the slot are reported as a warning, not an error.
func (a *Admin) SetFeatured(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var body struct {
		Position *int `json:"position"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}

	c, conflicts, err := a.content.SetFeatured(r.Context(), kind, id, body.Position)
	if err != nil {
		fail(w, r, err)
		return
	}

	resp := envelope{Data: c}
	if len(conflicts) > 0 {
		ids := make([]any, len(conflicts))
		for i, other := range conflicts {
			ids[i] = other.ID
		}
		resp.Meta = &Meta{Warnings: []Warning{{
			Code:    "featured_slot_shared",
			Message: fmt.Sprintf("Featured slot %d is also claimed by %d other item(s).", *body.Position, len(conflicts)),
			IDs:     ids,
		}}}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Featured lists the resolved featured slots for the kind.
func (a *Admin) Featured(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	slots, err := a.content.Featured(r.Context(), kind)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, slots)
}

type previewLink struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PreviewLink issues a signed, expiring link that shows the item to
// anyone holding it, draft or not.
func (a *Admin) PreviewLink(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if _, err := a.content.Get(r.Context(), kind, id); err != nil {
		fail(w, r, err)
		return
	}

	token, exp, err := a.previews.Sign(kind, id)
	if err != nil {
		fail(w, r, fmt.Errorf("sign preview: %w", err))
		return
	}
	ok(w, http.StatusCreated, previewLink{
		URL:       "/api/public/preview/" + token,
		Token:     token,
		ExpiresAt: exp.UTC(),
	})
}

func kindAndID(r *http.Request) (models.ContentKind, uuid.UUID, error) {
	kind, err := kindParam(r)
	if err != nil {
		return "", uuid.Nil, err
	}
	id, err := idParam(r)
	if err != nil {
		return "", uuid.Nil, err
	}
	return kind, id, nil
}

// actorID is the signed-in identity's id, or uuid.Nil.
func actorID(r *http.Request) uuid.UUID {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		return sess.UserID
	}
	return uuid.Nil
}
