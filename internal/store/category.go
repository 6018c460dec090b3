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

var (
	categoryID          = query.NewField[models.Category]("id")
	categoryName        = query.NewField[models.Category]("name")
	categorySlug        = query.NewField[models.Category]("slug")
	categoryDescription = query.NewField[models.Category]("description")
	categorySortOrder   = query.NewField[models.Category]("sort_order")
	categoryCreatedAt   = query.NewField[models.Category]("created_at")
	categoryUpdatedAt   = query.NewField[models.Category]("updated_at")

	subcategoryID         = query.NewField[models.Subcategory]("id")
	subcategoryCategoryID = query.NewField[models.Subcategory]("category_id")
	subcategoryName       = query.NewField[models.Subcategory]("name")
	subcategorySlug       = query.NewField[models.Subcategory]("slug")
	subcategoryCreatedAt  = query.NewField[models.Subcategory]("created_at")
	subcategoryUpdatedAt  = query.NewField[models.Subcategory]("updated_at")
)

const (
	categoryColumns    = `cat.id, cat.name, cat.slug, cat.description, cat.sort_order, cat.created_at, cat.updated_at`
	subcategoryColumns = `sub.id, sub.category_id, sub.name, sub.slug, sub.created_at, sub.updated_at`
)

// scanCategory scans a row into a Category struct.
func scanCategory(s scanner) (*models.Category, error) {
	var c models.Category
	err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanSubcategory(s scanner) (*models.Subcategory, error) {
	var c models.Subcategory
	err := s.Scan(&c.ID, &c.CategoryID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TaxonomyFilter narrows category, subcategory and tag listings.
type TaxonomyFilter struct {
	Search     string     // name or slug contains
	CategoryID *uuid.UUID // subcategories only
}

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db    *sql.DB
	table *Table[models.Category]
	subs  *SubcategoryStore
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB, d query.Dialect) *CategoryStore {
	return &CategoryStore{
		db: db,
		table: newTable(db, d, tableDef[models.Category]{
			name:    "categories",
			alias:   "cat",
			columns: categoryColumns,
			id:      categoryID,
			scan:    scanCategory,
		}),
		subs: NewSubcategoryStore(db, d),
	}
}

var categoryOrder = []query.Order[models.Category]{
	query.Asc(categorySortOrder), query.Asc(categoryName), query.Asc(categoryID),
}

func (f TaxonomyFilter) categoryPredicate() query.Predicate[models.Category] {
	if f.Search == "" {
		return query.Predicate[models.Category]{}
	}
	return query.Where(query.Or(
		query.Like(categoryName, f.Search),
		query.Like(categorySlug, f.Search),
	))
}

// List returns one page of categories.
func (s *CategoryStore) List(ctx context.Context, f TaxonomyFilter, page, perPage int) (*query.Page[models.Category], error) {
	return s.table.Paginate(ctx, f.categoryPredicate(), page, perPage, categoryOrder...)
}

// Tree returns every category with its subcategories attached.
func (s *CategoryStore) Tree(ctx context.Context) ([]models.Category, error) {
	cats, err := s.table.FindMany(ctx, query.Predicate[models.Category]{}, categoryOrder, 0, 0)
	if err != nil {
		return nil, err
	}
	subs, err := s.subs.table.FindMany(ctx, query.Predicate[models.Subcategory]{}, subcategoryOrder, 0, 0)
	if err != nil {
		return nil, err
	}

	byParent := make(map[uuid.UUID][]models.Subcategory)
	for _, sc := range subs {
		byParent[sc.CategoryID] = append(byParent[sc.CategoryID], sc)
	}
	for i := range cats {
		cats[i].Subcategories = byParent[cats[i].ID]
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

// Find retrieves a category by ID, or ErrNotFound.
func (s *CategoryStore) Find(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.table.Find(ctx, id)
}

// FindBySlug retrieves a category by slug, or ErrNotFound.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.table.FindOne(ctx, query.Where(query.Eq(categorySlug, slug)))
}

// SlugTaken reports whether a category other than except uses slug.
func (s *CategoryStore) SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	return s.table.Exists(ctx, query.Where(query.Eq(categorySlug, slug), query.Ne(categoryID, except)))
}

// CountExisting returns how many of ids name existing categories.
func (s *CategoryStore) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	return s.table.Count(ctx, query.Where(query.In(categoryID, dedupe(ids))))
}

// Create inserts a new category and returns its id.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (uuid.UUID, error) {
	now := time.Now().UTC()
	set := new(query.Set[models.Category]).
		Assign(categoryName, c.Name).
		Assign(categorySlug, c.Slug).
		Assign(categoryDescription, c.Description).
		Assign(categorySortOrder, c.SortOrder).
		Assign(categoryCreatedAt, now).
		Assign(categoryUpdatedAt, now)
	return s.table.Create(ctx, c.ID, set)
}

// Update applies the non-nil fields of p.
func (s *CategoryStore) Update(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) error {
	set := new(query.Set[models.Category])
	if p.Name != nil {
		set.Assign(categoryName, *p.Name)
	}
	if p.Slug != nil {
		set.Assign(categorySlug, *p.Slug)
	}
	if p.Description != nil {
		set.Assign(categoryDescription, *p.Description)
	}
	if p.SortOrder != nil {
		set.Assign(categorySortOrder, *p.SortOrder)
	}
	if set.Len() > 0 {
		set.Assign(categoryUpdatedAt, time.Now().UTC())
	}
	return s.table.Update(ctx, id, set)
}

// Delete removes a category. Its subcategories and content links are
// removed by ON DELETE CASCADE.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.table.Delete(ctx, id)
}

// ReorderItem is a single item in a reorder request.
type ReorderItem struct {
	ID    uuid.UUID `json:"id"`
	Order int       `json:"order"`
}

// Reorder updates sort_order for several categories in a transaction.
func (s *CategoryStore) Reorder(ctx context.Context, items []ReorderItem) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		t := s.table.bind(tx)
		now := time.Now().UTC()
		for _, item := range items {
			set := new(query.Set[models.Category]).
				Assign(categorySortOrder, item.Order).
				Assign(categoryUpdatedAt, now)
			if err := t.Update(ctx, item.ID, set); err != nil {
				return fmt.Errorf("reorder category %s: %w", item.ID, err)
			}
		}
		return nil
	})
}

// NextSortOrder returns one past the highest sort_order in use.
func (s *CategoryStore) NextSortOrder(ctx context.Context) (int, error) {
	var maxOrder sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM categories`).Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("next sort order: %w", classify(err))
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 0, nil
}

// SubcategoryStore manages subcategories, each owned by one category.
type SubcategoryStore struct {
	table *Table[models.Subcategory]
}

// NewSubcategoryStore returns a new SubcategoryStore.
func NewSubcategoryStore(db *sql.DB, d query.Dialect) *SubcategoryStore {
	return &SubcategoryStore{
		table: newTable(db, d, tableDef[models.Subcategory]{
			name:    "subcategories",
			alias:   "sub",
			columns: subcategoryColumns,
			id:      subcategoryID,
			scan:    scanSubcategory,
		}),
	}
}

var subcategoryOrder = []query.Order[models.Subcategory]{
	query.Asc(subcategoryName), query.Asc(subcategoryID),
}

func (f TaxonomyFilter) subcategoryPredicate() query.Predicate[models.Subcategory] {
	var conds []query.Cond[models.Subcategory]
	if f.Search != "" {
		conds = append(conds, query.Or(
			query.Like(subcategoryName, f.Search),
			query.Like(subcategorySlug, f.Search),
		))
	}
	if f.CategoryID != nil {
		conds = append(conds, query.Eq(subcategoryCategoryID, *f.CategoryID))
	}
	return query.Where(conds...)
}

// List returns one page of subcategories.
func (s *SubcategoryStore) List(ctx context.Context, f TaxonomyFilter, page, perPage int) (*query.Page[models.Subcategory], error) {
	return s.table.Paginate(ctx, f.subcategoryPredicate(), page, perPage, subcategoryOrder...)
}

// Find retrieves a subcategory by ID, or ErrNotFound.
func (s *SubcategoryStore) Find(ctx context.Context, id uuid.UUID) (*models.Subcategory, error) {
	return s.table.Find(ctx, id)
}

// SlugTaken reports whether a subcategory other than except uses slug.
func (s *SubcategoryStore) SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	return s.table.Exists(ctx, query.Where(query.Eq(subcategorySlug, slug), query.Ne(subcategoryID, except)))
}

// Create inserts a new subcategory and returns its id.
func (s *SubcategoryStore) Create(ctx context.Context, c *models.Subcategory) (uuid.UUID, error) {
	now := time.Now().UTC()
	set := new(query.Set[models.Subcategory]).
		Assign(subcategoryCategoryID, c.CategoryID).
		Assign(subcategoryName, c.Name).
		Assign(subcategorySlug, c.Slug).
		Assign(subcategoryCreatedAt, now).
		Assign(subcategoryUpdatedAt, now)
	return s.table.Create(ctx, c.ID, set)
}

// Update applies the non-nil fields of p. Description and SortOrder do
// not apply to subcategories.
func (s *SubcategoryStore) Update(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) error {
	set := new(query.Set[models.Subcategory])
	if p.Name != nil {
		set.Assign(subcategoryName, *p.Name)
	}
	if p.Slug != nil {
		set.Assign(subcategorySlug, *p.Slug)
	}
	if p.CategoryID != nil {
		set.Assign(subcategoryCategoryID, *p.CategoryID)
	}
	if set.Len() > 0 {
		set.Assign(subcategoryUpdatedAt, time.Now().UTC())
	}
	return s.table.Update(ctx, id, set)
}

// Delete removes a subcategory. Content pointing at it is detached.
func (s *SubcategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.table.Delete(ctx, id)
}
