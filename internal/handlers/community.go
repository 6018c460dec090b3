// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"newsdesk/internal/auth"
	"newsdesk/internal/content"
	"newsdesk/internal/middleware"
	"newsdesk/internal/store"
)

// Community groups the comment and newsletter handlers.
type Community struct {
	comments    *content.CommentService
	subscribers *content.SubscriberService
}

// NewCommunity creates the comment and subscriber handler group.
func NewCommunity(comments *content.CommentService, subscribers *content.SubscriberService) *Community {
	return &Community{comments: comments, subscribers: subscribers}
}

// --- Comments ---

// Comments lists comments for moderation.
func (c *Community) Comments(w http.ResponseWriter, r *http.Request) {
	var f store.CommentFilter
	var err error
	if f.ContentID, err = uuidQuery(r, "content_id"); err != nil {
		fail(w, r, err)
		return
	}
	if f.UserID, err = uuidQuery(r, "user_id"); err != nil {
		fail(w, r, err)
		return
	}
	if f.Approved, err = boolQuery(r, "approved"); err != nil {
		fail(w, r, err)
		return
	}
	f.Search = r.URL.Query().Get("q")

	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := c.comments.List(r.Context(), f, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, p)
}

// CreateComment posts a comment as the signed-in identity. Staff comments
// are approved immediately; others wait for moderation.
func (c *Community) CreateComment(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if !sess.Authenticated() {
		fail(w, r, auth.ErrUnauthorized)
		return
	}
	var body struct {
		ContentID uuid.UUID `json:"content_id"`
		Body      string    `json:"body"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}

	cm, err := c.comments.Create(r.Context(), sess.UserID, sess.Role, body.ContentID, body.Body)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, cm)
}

// ApproveComment sets or clears a comment's approval.
func (c *Community) ApproveComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var body struct {
		Approved bool `json:"approved"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	if err := c.comments.SetApproved(r.Context(), id, body.Approved); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// DeleteComment removes a comment.
func (c *Community) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := c.comments.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// --- Subscribers ---

// Subscribe records a newsletter sign-up. No session is required.
func (c *Community) Subscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	s, err := c.subscribers.Subscribe(r.Context(), body.Email, body.Name)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, s)
}

// Subscribers lists newsletter sign-ups.
func (c *Community) Subscribers(w http.ResponseWriter, r *http.Request) {
	f := store.SubscriberFilter{Search: r.URL.Query().Get("q")}
	var err error
	if f.Confirmed, err = boolQuery(r, "confirmed"); err != nil {
		fail(w, r, err)
		return
	}
	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := c.subscribers.List(r.Context(), f, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, p)
}

// ConfirmSubscriber marks a subscriber as confirmed or not.
func (c *Community) ConfirmSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var body struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	if err := c.subscribers.SetConfirmed(r.Context(), id, body.Confirmed); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// DeleteSubscriber removes a sign-up.
func (c *Community) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := c.subscribers.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}
