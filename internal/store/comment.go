// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/models"
	"newsdesk/internal/query"
)

// Comment columns, declared on the read model so that filters can reach
// the joined content title and author name.
var (
	commentID           = query.NewField[models.CommentView]("id")
	commentContentID    = query.NewField[models.CommentView]("content_id")
	commentUserID       = query.NewField[models.CommentView]("user_id")
	commentBody         = query.NewField[models.CommentView]("body")
	commentApproved     = query.NewField[models.CommentView]("approved")
	commentCreatedAt    = query.NewField[models.CommentView]("created_at")
	commentContentTitle = query.NewField[models.CommentView]("c.title")
	commentAuthorName   = query.NewField[models.CommentView]("u.name")
)

const commentColumns = `cm.id, cm.content_id, cm.user_id, cm.body, cm.approved, cm.created_at,
	COALESCE(c.title, ''), COALESCE(u.name, '')`

func scanComment(s scanner) (*models.CommentView, error) {
	var v models.CommentView
	err := s.Scan(&v.ID, &v.ContentID, &v.UserID, &v.Body, &v.Approved, &v.CreatedAt,
		&v.ContentTitle, &v.AuthorName)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CommentFilter narrows comment listings.
type CommentFilter struct {
	ContentID *uuid.UUID
	UserID    *uuid.UUID
	Approved  *bool
	Search    string // body, content title or author name contains
}

func (f CommentFilter) predicate() query.Predicate[models.CommentView] {
	var conds []query.Cond[models.CommentView]
	if f.ContentID != nil {
		conds = append(conds, query.Eq(commentContentID, *f.ContentID))
	}
	if f.UserID != nil {
		conds = append(conds, query.Eq(commentUserID, *f.UserID))
	}
	if f.Approved != nil {
		conds = append(conds, query.Eq(commentApproved, *f.Approved))
	}
	if f.Search != "" {
		conds = append(conds, query.Or(
			query.Like(commentBody, f.Search),
			query.Like(commentContentTitle, f.Search),
			query.Like(commentAuthorName, f.Search),
		))
	}
	return query.Where(conds...)
}

// CommentStore owns the comment read model, joining each comment with the
// title of its content and the name of its author.
type CommentStore struct {
	table *Table[models.CommentView]
}

// NewCommentStore returns a new CommentStore.
func NewCommentStore(db *sql.DB, d query.Dialect) *CommentStore {
	return &CommentStore{
		table: newTable(db, d, tableDef[models.CommentView]{
			name:    "comments",
			from:    "comments cm JOIN content c ON c.id = cm.content_id LEFT JOIN users u ON u.id = cm.user_id",
			alias:   "cm",
			columns: commentColumns,
			id:      commentID,
			scan:    scanComment,
		}),
	}
}

// List returns one page of comments, newest first.
func (s *CommentStore) List(ctx context.Context, f CommentFilter, page, perPage int) (*query.Page[models.CommentView], error) {
	return s.table.Paginate(ctx, f.predicate(), page, perPage, query.Desc(commentCreatedAt), query.Asc(commentID))
}

// Find retrieves a comment by id, or ErrNotFound.
func (s *CommentStore) Find(ctx context.Context, id uuid.UUID) (*models.CommentView, error) {
	return s.table.Find(ctx, id)
}

// Create inserts a comment and returns its id.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) (uuid.UUID, error) {
	set := new(query.Set[models.CommentView]).
		Assign(commentContentID, c.ContentID).
		Assign(commentUserID, c.UserID).
		Assign(commentBody, c.Body).
		Assign(commentApproved, c.Approved).
		Assign(commentCreatedAt, time.Now().UTC())
	return s.table.Create(ctx, c.ID, set)
}

// SetApproved marks a comment as approved or hidden.
func (s *CommentStore) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return s.table.Update(ctx, id, new(query.Set[models.CommentView]).Assign(commentApproved, approved))
}

// Delete removes a comment.
func (s *CommentStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.table.Delete(ctx, id)
}
