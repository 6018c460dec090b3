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

var (
	tagID        = query.NewField[models.Tag]("id")
	tagName      = query.NewField[models.Tag]("name")
	tagSlug      = query.NewField[models.Tag]("slug")
	tagCreatedAt = query.NewField[models.Tag]("created_at")
)

func scanTag(s scanner) (*models.Tag, error) {
	var t models.Tag
	if err := s.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// TagStore manages tags.
type TagStore struct {
	table *Table[models.Tag]
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB, d query.Dialect) *TagStore {
	return &TagStore{
		table: newTable(db, d, tableDef[models.Tag]{
			name:    "tags",
			alias:   "t",
			columns: "t.id, t.name, t.slug, t.created_at",
			id:      tagID,
			scan:    scanTag,
		}),
	}
}

func (f TaxonomyFilter) tagPredicate() query.Predicate[models.Tag] {
	if f.Search == "" {
		return query.Predicate[models.Tag]{}
	}
	return query.Where(query.Or(query.Like(tagName, f.Search), query.Like(tagSlug, f.Search)))
}

// List returns one page of tags ordered by name.
func (s *TagStore) List(ctx context.Context, f TaxonomyFilter, page, perPage int) (*query.Page[models.Tag], error) {
	return s.table.Paginate(ctx, f.tagPredicate(), page, perPage, query.Asc(tagName), query.Asc(tagID))
}

// Find retrieves a tag by ID, or ErrNotFound.
func (s *TagStore) Find(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	return s.table.Find(ctx, id)
}

// SlugTaken reports whether a tag other than except uses slug.
func (s *TagStore) SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	return s.table.Exists(ctx, query.Where(query.Eq(tagSlug, slug), query.Ne(tagID, except)))
}

// CountExisting returns how many of ids name existing tags.
func (s *TagStore) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	return s.table.Count(ctx, query.Where(query.In(tagID, dedupe(ids))))
}

// Create inserts a new tag and returns its id.
func (s *TagStore) Create(ctx context.Context, t *models.Tag) (uuid.UUID, error) {
	set := new(query.Set[models.Tag]).
		Assign(tagName, t.Name).
		Assign(tagSlug, t.Slug).
		Assign(tagCreatedAt, time.Now().UTC())
	return s.table.Create(ctx, t.ID, set)
}

// Update applies the name and slug of p.
func (s *TagStore) Update(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) error {
	set := new(query.Set[models.Tag])
	if p.Name != nil {
		set.Assign(tagName, *p.Name)
	}
	if p.Slug != nil {
		set.Assign(tagSlug, *p.Slug)
	}
	return s.table.Update(ctx, id, set)
}

// Delete removes a tag and its content links.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.table.Delete(ctx, id)
}
