// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/models"
	"newsdesk/internal/query"
	"newsdesk/internal/store"
)

// fakeRepo is an in-memory content store. Filters cover what the service
// relies on.
type fakeRepo struct {
	mu         sync.Mutex
	items      map[uuid.UUID]models.Content
	order      []uuid.UUID
	categories map[uuid.UUID][]uuid.UUID
	tags       map[uuid.UUID][]uuid.UUID
	failCreate error
	failUpdate error
	failLinks  error
	clock      time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		items:      make(map[uuid.UUID]models.Content),
		categories: make(map[uuid.UUID][]uuid.UUID),
		tags:       make(map[uuid.UUID][]uuid.UUID),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) Find(_ context.Context, id uuid.UUID) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepo) FindBySlug(_ context.Context, kind models.ContentKind, slug string) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.Kind == kind && c.Slug == slug {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) match(c models.Content, flt store.ContentFilter) bool {
	switch {
	case flt.Kind != "" && c.Kind != flt.Kind:
		return false
	case flt.Status != "" && c.Status != flt.Status:
		return false
	case flt.FeaturedOnly && c.FeaturedPosition == nil:
		return false
	case flt.FeaturedPosition != nil && (c.FeaturedPosition == nil || *c.FeaturedPosition != *flt.FeaturedPosition):
		return false
	case flt.ExcludeID != nil && c.ID == *flt.ExcludeID:
		return false
	}
	return true
}

// matching returns items in insertion order, or by slot for SortFeatured.
func (f *fakeRepo) matching(flt store.ContentFilter, s store.ContentSort) []models.Content {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Content
	for _, id := range f.order {
		if c, ok := f.items[id]; ok && f.match(c, flt) {
			out = append(out, c)
		}
	}
	if s == store.SortFeatured {
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].FeaturedPosition < *out[j].FeaturedPosition
		})
	}
	return out
}

func (f *fakeRepo) List(_ context.Context, flt store.ContentFilter, s store.ContentSort, page, perPage int) (*query.Page[models.Content], error) {
	return pageOf(f.matching(flt, s), page, perPage), nil
}

func (f *fakeRepo) FindMany(_ context.Context, flt store.ContentFilter, s store.ContentSort, limit int) ([]models.Content, error) {
	rows := f.matching(flt, s)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeRepo) SlugTaken(_ context.Context, kind models.ContentKind, slug string, except uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.items {
		if id != except && c.Kind == kind && c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Create(_ context.Context, c *models.Content) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return uuid.Nil, f.failCreate
	}
	v := *c
	v.ID = uuid.New()
	f.clock = f.clock.Add(time.Minute)
	v.CreatedAt, v.UpdatedAt = f.clock, f.clock
	f.items[v.ID] = v
	f.order = append(f.order, v.ID)
	return v.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, p models.ContentPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	c, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Slug != nil {
		c.Slug = *p.Slug
	}
	if p.Body != nil {
		c.Body = *p.Body
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.SubcategoryID != nil {
		c.SubcategoryID = *p.SubcategoryID
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.MediaURL != nil {
		c.MediaURL = *p.MediaURL
	}
	if p.FeaturedPosition != nil {
		c.FeaturedPosition = *p.FeaturedPosition
	}
	if p.PublishedAt != nil {
		c.PublishedAt = *p.PublishedAt
	}
	f.items[id] = c
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	delete(f.categories, id)
	delete(f.tags, id)
	return nil
}

func (f *fakeRepo) IncrementViews(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	c.ViewCount++
	f.items[id] = c
	return c.ViewCount, nil
}

func (f *fakeRepo) Categories(_ context.Context, id uuid.UUID) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Category
	for _, cid := range f.categories[id] {
		out = append(out, models.Category{ID: cid})
	}
	return out, nil
}

func (f *fakeRepo) Tags(_ context.Context, id uuid.UUID) ([]models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Tag
	for _, tid := range f.tags[id] {
		out = append(out, models.Tag{ID: tid})
	}
	return out, nil
}

func (f *fakeRepo) ReplaceCategories(_ context.Context, id uuid.UUID, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLinks != nil {
		return f.failLinks
	}
	f.categories[id] = unique(ids)
	return nil
}

func (f *fakeRepo) ReplaceTags(_ context.Context, id uuid.UUID, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags[id] = unique(ids)
	return nil
}

// pageOf slices rows the way the paginator would.
func pageOf[T any](rows []T, page, perPage int) *query.Page[T] {
	start := min(query.Offset(page, perPage), len(rows))
	end := min(start+perPage, len(rows))
	return &query.Page[T]{
		Rows:     append([]T{}, rows[start:end]...),
		Total:    len(rows),
		Page:     page,
		PerPage:  perPage,
		LastPage: query.LastPage(len(rows), perPage),
	}
}

// idSet answers CountExisting from a fixed set of ids.
type idSet map[uuid.UUID]bool

func (s idSet) CountExisting(_ context.Context, ids []uuid.UUID) (int, error) {
	n := 0
	for _, id := range ids {
		if s[id] {
			n++
		}
	}
	return n, nil
}

type fakeCategories struct {
	rows []models.Category
}

func (f *fakeCategories) List(_ context.Context, _ store.TaxonomyFilter, page, perPage int) (*query.Page[models.Category], error) {
	return pageOf(f.rows, page, perPage), nil
}

func (f *fakeCategories) Tree(context.Context) ([]models.Category, error) { return f.rows, nil }

func (f *fakeCategories) Find(_ context.Context, id uuid.UUID) (*models.Category, error) {
	for _, c := range f.rows {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeCategories) SlugTaken(_ context.Context, slug string, except uuid.UUID) (bool, error) {
	for _, c := range f.rows {
		if c.Slug == slug && c.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) Create(_ context.Context, c *models.Category) (uuid.UUID, error) {
	v := *c
	v.ID = uuid.New()
	f.rows = append(f.rows, v)
	return v.ID, nil
}

func (f *fakeCategories) Update(_ context.Context, id uuid.UUID, p models.TaxonomyPatch) error {
	for i := range f.rows {
		if f.rows[i].ID != id {
			continue
		}
		if p.Name != nil {
			f.rows[i].Name = *p.Name
		}
		if p.Slug != nil {
			f.rows[i].Slug = *p.Slug
		}
		if p.Description != nil {
			f.rows[i].Description = *p.Description
		}
		if p.SortOrder != nil {
			f.rows[i].SortOrder = *p.SortOrder
		}
		return nil
	}
	return store.ErrNotFound
}

func (f *fakeCategories) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeCategories) Reorder(ctx context.Context, items []store.ReorderItem) error {
	for _, it := range items {
		order := it.Order
		if err := f.Update(ctx, it.ID, models.TaxonomyPatch{SortOrder: &order}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCategories) NextSortOrder(context.Context) (int, error) {
	next := 0
	for _, c := range f.rows {
		next = max(next, c.SortOrder+1)
	}
	return next, nil
}

type fakeSubcategories struct {
	rows []models.Subcategory
}

func (f *fakeSubcategories) List(_ context.Context, _ store.TaxonomyFilter, page, perPage int) (*query.Page[models.Subcategory], error) {
	return pageOf(f.rows, page, perPage), nil
}

func (f *fakeSubcategories) Find(_ context.Context, id uuid.UUID) (*models.Subcategory, error) {
	for _, c := range f.rows {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeSubcategories) SlugTaken(_ context.Context, slug string, except uuid.UUID) (bool, error) {
	for _, c := range f.rows {
		if c.Slug == slug && c.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubcategories) Create(_ context.Context, c *models.Subcategory) (uuid.UUID, error) {
	v := *c
	v.ID = uuid.New()
	f.rows = append(f.rows, v)
	return v.ID, nil
}

func (f *fakeSubcategories) Update(_ context.Context, id uuid.UUID, p models.TaxonomyPatch) error {
	for i := range f.rows {
		if f.rows[i].ID != id {
			continue
		}
		if p.Name != nil {
			f.rows[i].Name = *p.Name
		}
		if p.Slug != nil {
			f.rows[i].Slug = *p.Slug
		}
		if p.CategoryID != nil {
			f.rows[i].CategoryID = *p.CategoryID
		}
		return nil
	}
	return store.ErrNotFound
}

func (f *fakeSubcategories) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeTags struct {
	rows []models.Tag
	// race simulates a concurrent insert that slipped past SlugTaken.
	race bool
}

func (f *fakeTags) List(_ context.Context, _ store.TaxonomyFilter, page, perPage int) (*query.Page[models.Tag], error) {
	return pageOf(f.rows, page, perPage), nil
}

func (f *fakeTags) Find(_ context.Context, id uuid.UUID) (*models.Tag, error) {
	for _, t := range f.rows {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeTags) SlugTaken(_ context.Context, slug string, except uuid.UUID) (bool, error) {
	if f.race {
		return false, nil
	}
	for _, t := range f.rows {
		if t.Slug == slug && t.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTags) Create(_ context.Context, t *models.Tag) (uuid.UUID, error) {
	for _, existing := range f.rows {
		if existing.Slug == t.Slug {
			return uuid.Nil, &store.DuplicateKeyError{Constraint: "tags_slug_key", Err: errors.New("unique violation")}
		}
	}
	v := *t
	v.ID = uuid.New()
	f.rows = append(f.rows, v)
	return v.ID, nil
}

func (f *fakeTags) Update(_ context.Context, id uuid.UUID, p models.TaxonomyPatch) error {
	for i := range f.rows {
		if f.rows[i].ID != id {
			continue
		}
		if p.Name != nil {
			f.rows[i].Name = *p.Name
		}
		if p.Slug != nil {
			f.rows[i].Slug = *p.Slug
		}
		return nil
	}
	return store.ErrNotFound
}

func (f *fakeTags) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
