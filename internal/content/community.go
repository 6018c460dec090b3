// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsdesk/internal/models"
	"newsdesk/internal/query"
	"newsdesk/internal/store"
)

const maxCommentLen = 5_000

// CommentRepository is the comment storage.
type CommentRepository interface {
	List(ctx context.Context, f store.CommentFilter, page, perPage int) (*query.Page[models.CommentView], error)
	Find(ctx context.Context, id uuid.UUID) (*models.CommentView, error)
	Create(ctx context.Context, c *models.Comment) (uuid.UUID, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContentLookup finds the item a comment is attached to.
type ContentLookup interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Content, error)
}

// CommentService handles reader comments. Any signed-in identity may
// comment on a visible item; staff moderate.
type CommentService struct {
	comments CommentRepository
	content  ContentLookup
}

// NewCommentService wires the comment and content stores.
func NewCommentService(comments CommentRepository, content ContentLookup) *CommentService {
	return &CommentService{comments: comments, content: content}
}

// List returns one page of the moderation read model.
func (s *CommentService) List(ctx context.Context, f store.CommentFilter, page, perPage int) (*query.Page[models.CommentView], error) {
	return s.comments.List(ctx, f, page, perPage)
}

// Create posts a comment by userID. Staff comments are approved at once;
// reader comments wait for moderation.
func (s *CommentService) Create(ctx context.Context, userID uuid.UUID, role models.Role, contentID uuid.UUID, body string) (*models.CommentView, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.Invalid("body", "Comment cannot be empty.")
	}
	if utf8.RuneCountInString(body) > maxCommentLen {
		return nil, models.Invalid("body", "Comment is too long (max 5,000 characters).")
	}

	c, err := s.content.Find(ctx, contentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.Invalid("content_id", "Unknown content item.")
		}
		return nil, err
	}
	if !c.IsPublished() {
		return nil, models.Invalid("content_id", "Unknown content item.")
	}

	id, err := s.comments.Create(ctx, &models.Comment{
		ContentID: contentID,
		UserID:    userID,
		Body:      body,
		Approved:  models.StaffRoles.Allows(role),
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.comments.Find(ctx, id)
}

// SetApproved shows or hides a comment.
func (s *CommentService) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return s.comments.SetApproved(ctx, id, approved)
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.comments.Delete(ctx, id)
}

// SubscriberRepository is the newsletter subscriber storage.
type SubscriberRepository interface {
	List(ctx context.Context, f store.SubscriberFilter, page, perPage int) (*query.Page[models.Subscriber], error)
	Find(ctx context.Context, id uuid.UUID) (*models.Subscriber, error)
	Create(ctx context.Context, sub *models.Subscriber) (uuid.UUID, error)
	SetConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubscriberService handles newsletter sign-ups.
type SubscriberService struct {
	subscribers SubscriberRepository
}

// NewSubscriberService wires the subscriber store.
func NewSubscriberService(subscribers SubscriberRepository) *SubscriberService {
	return &SubscriberService{subscribers: subscribers}
}

// Subscribe records a sign-up. Signing up twice with one address fails
// with a DuplicateKeyError.
func (s *SubscriberService) Subscribe(ctx context.Context, email, name string) (*models.Subscriber, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, models.Invalid("email", "A valid email address is required.")
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, models.Invalid("name", "Name is too long (max 200 characters).")
	}
	id, err := s.subscribers.Create(ctx, &models.Subscriber{Email: email, Name: name})
	if err != nil {
		return nil, err
	}
	return s.subscribers.Find(ctx, id)
}

// List returns one page of subscribers.
func (s *SubscriberService) List(ctx context.Context, f store.SubscriberFilter, page, perPage int) (*query.Page[models.Subscriber], error) {
	return s.subscribers.List(ctx, f, page, perPage)
}

// SetConfirmed marks a subscriber confirmed or not.
func (s *SubscriberService) SetConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error {
	return s.subscribers.SetConfirmed(ctx, id, confirmed)
}

// Delete removes a subscriber.
func (s *SubscriberService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.subscribers.Delete(ctx, id)
}
