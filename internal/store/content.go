// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/models"
	"newsdesk/internal/query"
)

// Content columns. contentAuthorName comes from the users join.
var (
	contentID            = query.NewField[models.Content]("id")
	contentKind          = query.NewField[models.Content]("kind")
	contentTitle         = query.NewField[models.Content]("title")
	contentSlug          = query.NewField[models.Content]("slug")
	contentBody          = query.NewField[models.Content]("body")
	contentStatus        = query.NewField[models.Content]("status")
	contentAuthorID      = query.NewField[models.Content]("author_id")
	contentSubcategoryID = query.NewField[models.Content]("subcategory_id")
	contentImageURL      = query.NewField[models.Content]("image_url")
	contentMediaURL      = query.NewField[models.Content]("media_url")
	contentFeatured      = query.NewField[models.Content]("featured_position")
	contentViews         = query.NewField[models.Content]("view_count")
	contentPublishedAt   = query.NewField[models.Content]("published_at")
	contentCreatedAt     = query.NewField[models.Content]("created_at")
	contentUpdatedAt     = query.NewField[models.Content]("updated_at")
	contentAuthorName    = query.NewField[models.Content]("u.name")

	contentInCategory = query.NewRelation(contentID, "content_categories", "content_id", "category_id")
	contentHasTag     = query.NewRelation(contentID, "content_tags", "content_id", "tag_id")
)

const contentColumns = `c.id, c.kind, c.title, c.slug, c.body, c.status, c.author_id,
	c.subcategory_id, c.image_url, c.media_url, c.featured_position, c.view_count,
	c.published_at, c.created_at, c.updated_at, COALESCE(u.name, '')`

func scanContent(s scanner) (*models.Content, error) {
	var c models.Content
	err := s.Scan(
		&c.ID, &c.Kind, &c.Title, &c.Slug, &c.Body, &c.Status, &c.AuthorID,
		&c.SubcategoryID, &c.ImageURL, &c.MediaURL, &c.FeaturedPosition, &c.ViewCount,
		&c.PublishedAt, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ContentSort selects the ordering of content listings.
type ContentSort string

const (
	SortNewest     ContentSort = "newest"
	SortOldest     ContentSort = "oldest"
	SortMostViewed ContentSort = "popular"
	SortTitle      ContentSort = "title"
	SortFeatured   ContentSort = "featured"
)

// ParseContentSort returns the sort named by s, defaulting to SortNewest.
func ParseContentSort(s string) ContentSort {
	switch ContentSort(s) {
	case SortOldest, SortMostViewed, SortTitle, SortFeatured:
		return ContentSort(s)
	}
	return SortNewest
}

// orders always ends with the id so that pages never overlap.
func (s ContentSort) orders() []query.Order[models.Content] {
	switch s {
	case SortOldest:
		return []query.Order[models.Content]{query.Asc(contentCreatedAt), query.Asc(contentID)}
	case SortMostViewed:
		return []query.Order[models.Content]{query.Desc(contentViews), query.Desc(contentCreatedAt), query.Asc(contentID)}
	case SortTitle:
		return []query.Order[models.Content]{query.Asc(contentTitle), query.Asc(contentID)}
	case SortFeatured:
		return []query.Order[models.Content]{query.Asc(contentFeatured), query.Desc(contentCreatedAt), query.Asc(contentID)}
	default:
		return []query.Order[models.Content]{query.Desc(contentCreatedAt), query.Asc(contentID)}
	}
}

// ContentFilter narrows a content listing. Zero-valued fields do not filter.
type ContentFilter struct {
	Kind             models.ContentKind
	Status           models.ContentStatus
	Search           string // title or author name contains
	AuthorID         *uuid.UUID
	SubcategoryID    *uuid.UUID
	CategoryIDs      []uuid.UUID // member of any
	TagIDs           []uuid.UUID // tagged with any
	FeaturedOnly     bool
	FeaturedPosition *int
	PublishedFrom    *time.Time
	PublishedTo      *time.Time
	ExcludeID        *uuid.UUID
}

// Predicate translates f into a query predicate.
func (f ContentFilter) Predicate() query.Predicate[models.Content] {
	var conds []query.Cond[models.Content]
	if f.Kind != "" {
		conds = append(conds, query.Eq(contentKind, string(f.Kind)))
	}
	if f.Status != "" {
		conds = append(conds, query.Eq(contentStatus, string(f.Status)))
	}
	if f.Search != "" {
		conds = append(conds, query.Or(
			query.Like(contentTitle, f.Search),
			query.Like(contentAuthorName, f.Search),
		))
	}
	if f.AuthorID != nil {
		conds = append(conds, query.Eq(contentAuthorID, *f.AuthorID))
	}
	if f.SubcategoryID != nil {
		conds = append(conds, query.Eq(contentSubcategoryID, *f.SubcategoryID))
	}
	if len(f.CategoryIDs) > 0 {
		conds = append(conds, query.HasAny(contentInCategory, f.CategoryIDs))
	}
	if len(f.TagIDs) > 0 {
		conds = append(conds, query.HasAny(contentHasTag, f.TagIDs))
	}
	if f.FeaturedOnly {
		conds = append(conds, query.NotNull(contentFeatured))
	}
	if f.FeaturedPosition != nil {
		conds = append(conds, query.Eq(contentFeatured, *f.FeaturedPosition))
	}
	if f.PublishedFrom != nil {
		conds = append(conds, query.Gte(contentPublishedAt, *f.PublishedFrom))
	}
	if f.PublishedTo != nil {
		conds = append(conds, query.Lte(contentPublishedAt, *f.PublishedTo))
	}
	if f.ExcludeID != nil {
		conds = append(conds, query.Ne(contentID, *f.ExcludeID))
	}
	return query.Where(conds...)
}

// ContentStore manages posts, videos, opinions and ads in the unified
// content table.
type ContentStore struct {
	db      *sql.DB
	dialect query.Dialect
	table   *Table[models.Content]
}

// NewContentStore returns a new ContentStore.
func NewContentStore(db *sql.DB, d query.Dialect) *ContentStore {
	return &ContentStore{
		db:      db,
		dialect: d,
		table: newTable(db, d, tableDef[models.Content]{
			name:    "content",
			from:    "content c LEFT JOIN users u ON u.id = c.author_id",
			alias:   "c",
			columns: contentColumns,
			id:      contentID,
			scan:    scanContent,
		}),
	}
}

// Find returns a content item by id, or ErrNotFound.
func (s *ContentStore) Find(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	return s.table.Find(ctx, id)
}

// FindBySlug returns the item of the given kind with the given slug.
func (s *ContentStore) FindBySlug(ctx context.Context, kind models.ContentKind, slug string) (*models.Content, error) {
	return s.table.FindOne(ctx, query.Where(
		query.Eq(contentKind, string(kind)),
		query.Eq(contentSlug, slug),
	))
}

// List returns one page of items matching f.
func (s *ContentStore) List(ctx context.Context, f ContentFilter, sort ContentSort, page, perPage int) (*query.Page[models.Content], error) {
	return s.table.Paginate(ctx, f.Predicate(), page, perPage, sort.orders()...)
}

// FindMany returns up to limit items matching f. A limit of zero returns all.
func (s *ContentStore) FindMany(ctx context.Context, f ContentFilter, sort ContentSort, limit int) ([]models.Content, error) {
	return s.table.FindMany(ctx, f.Predicate(), sort.orders(), limit, 0)
}

// Count returns the number of items matching f.
func (s *ContentStore) Count(ctx context.Context, f ContentFilter) (int, error) {
	return s.table.Count(ctx, f.Predicate())
}

// SlugTaken reports whether another item of the same kind uses slug.
func (s *ContentStore) SlugTaken(ctx context.Context, kind models.ContentKind, slug string, except uuid.UUID) (bool, error) {
	return s.table.Exists(ctx, query.Where(
		query.Eq(contentKind, string(kind)),
		query.Eq(contentSlug, slug),
		query.Ne(contentID, except),
	))
}

// ReferencesAsset reports whether any item uses ref as its image.
func (s *ContentStore) ReferencesAsset(ctx context.Context, ref string) (bool, error) {
	return s.table.Exists(ctx, query.Where(query.Eq(contentImageURL, ref)))
}

// Create inserts c and returns its id. c.ID is used when set.
func (s *ContentStore) Create(ctx context.Context, c *models.Content) (uuid.UUID, error) {
	now := time.Now().UTC()
	set := new(query.Set[models.Content]).
		Assign(contentKind, string(c.Kind)).
		Assign(contentTitle, c.Title).
		Assign(contentSlug, c.Slug).
		Assign(contentBody, c.Body).
		Assign(contentStatus, string(c.Status)).
		Assign(contentAuthorID, nullable(c.AuthorID)).
		Assign(contentSubcategoryID, nullable(c.SubcategoryID)).
		Assign(contentImageURL, nullable(c.ImageURL)).
		Assign(contentMediaURL, nullable(c.MediaURL)).
		Assign(contentFeatured, nullable(c.FeaturedPosition)).
		Assign(contentPublishedAt, nullable(c.PublishedAt)).
		Assign(contentCreatedAt, now).
		Assign(contentUpdatedAt, now)
	return s.table.Create(ctx, c.ID, set)
}

// Update applies the non-nil fields of p to the item.
func (s *ContentStore) Update(ctx context.Context, id uuid.UUID, p models.ContentPatch) error {
	set := new(query.Set[models.Content])
	if p.Title != nil {
		set.Assign(contentTitle, *p.Title)
	}
	if p.Slug != nil {
		set.Assign(contentSlug, *p.Slug)
	}
	if p.Body != nil {
		set.Assign(contentBody, *p.Body)
	}
	if p.Status != nil {
		set.Assign(contentStatus, string(*p.Status))
	}
	if p.SubcategoryID != nil {
		set.Assign(contentSubcategoryID, nullable(*p.SubcategoryID))
	}
	if p.ImageURL != nil {
		set.Assign(contentImageURL, nullable(*p.ImageURL))
	}
	if p.MediaURL != nil {
		set.Assign(contentMediaURL, nullable(*p.MediaURL))
	}
	if p.FeaturedPosition != nil {
		set.Assign(contentFeatured, nullable(*p.FeaturedPosition))
	}
	if p.PublishedAt != nil {
		set.Assign(contentPublishedAt, nullable(*p.PublishedAt))
	}
	if set.Len() > 0 {
		set.Assign(contentUpdatedAt, time.Now().UTC())
	}
	return s.table.Update(ctx, id, set)
}

// Delete removes the item. Association rows go with it via ON DELETE CASCADE.
func (s *ContentStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.table.Delete(ctx, id)
}

// IncrementViews adds one view and returns the new count.
func (s *ContentStore) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.table.Increment(ctx, id, contentViews)
}

// Categories returns the categories linked to the item.
func (s *ContentStore) Categories(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cat.id, cat.name, cat.slug, cat.description, cat.sort_order, cat.created_at, cat.updated_at
		FROM categories cat
		JOIN content_categories cc ON cc.category_id = cat.id
		WHERE cc.content_id = `+s.dialect.Placeholder(1)+`
		ORDER BY cat.sort_order, cat.name`, id)
	if err != nil {
		return nil, fmt.Errorf("content categories: %w", classify(err))
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Tags returns the tags linked to the item.
func (s *ContentStore) Tags(ctx context.Context, id uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at
		FROM tags t
		JOIN content_tags ct ON ct.tag_id = t.id
		WHERE ct.content_id = `+s.dialect.Placeholder(1)+`
		ORDER BY t.name`, id)
	if err != nil {
		return nil, fmt.Errorf("content tags: %w", classify(err))
	}
	defer rows.Close()

	items := []models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// ReplaceCategories makes ids the exact category set of the item.
func (s *ContentStore) ReplaceCategories(ctx context.Context, id uuid.UUID, ids []uuid.UUID) error {
	if err := categoryLinks.replace(ctx, s.db, s.dialect, id, ids); err != nil {
		return fmt.Errorf("replace categories: %w", err)
	}
	return nil
}

// ReplaceTags makes ids the exact tag set of the item.
func (s *ContentStore) ReplaceTags(ctx context.Context, id uuid.UUID, ids []uuid.UUID) error {
	if err := tagLinks.replace(ctx, s.db, s.dialect, id, ids); err != nil {
		return fmt.Errorf("replace tags: %w", err)
	}
	return nil
}

// nullable turns a nil pointer into an untyped nil argument.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
