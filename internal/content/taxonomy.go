// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsdesk/internal/models"
	"newsdesk/internal/query"
	"newsdesk/internal/slug"
	"newsdesk/internal/store"
)

const (
	maxNameLen        = 200
	maxDescriptionLen = 2_000
)

// CategoryRepository is the category storage the taxonomy service needs.
type CategoryRepository interface {
	List(ctx context.Context, f store.TaxonomyFilter, page, perPage int) (*query.Page[models.Category], error)
	Tree(ctx context.Context) ([]models.Category, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Category, error)
	SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error)
	Create(ctx context.Context, c *models.Category) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, items []store.ReorderItem) error
	NextSortOrder(ctx context.Context) (int, error)
}

// SubcategoryRepository is the subcategory storage.
type SubcategoryRepository interface {
	List(ctx context.Context, f store.TaxonomyFilter, page, perPage int) (*query.Page[models.Subcategory], error)
	Find(ctx context.Context, id uuid.UUID) (*models.Subcategory, error)
	SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error)
	Create(ctx context.Context, c *models.Subcategory) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TagRepository is the tag storage.
type TagRepository interface {
	List(ctx context.Context, f store.TaxonomyFilter, page, perPage int) (*query.Page[models.Tag], error)
	Find(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error)
	Create(ctx context.Context, t *models.Tag) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaxonomyInput describes a new category, subcategory or tag. Fields that
// do not apply to the target type are ignored.
type TaxonomyInput struct {
	Name        string
	Slug        string // generated from Name when empty
	Description string
	SortOrder   *int      // categories; appended last when nil
	CategoryID  uuid.UUID // subcategories
}

// TaxonomyService manages categories, subcategories and tags.
//
// Slugs are checked before writing so the common case gets a clear error,
// but two concurrent creates can both pass the check; the unique index
// then rejects one of them with the same DuplicateKeyError.
type TaxonomyService struct {
	categories    CategoryRepository
	subcategories SubcategoryRepository
	tags          TagRepository
}

// NewTaxonomyService wires the taxonomy stores.
func NewTaxonomyService(categories CategoryRepository, subcategories SubcategoryRepository, tags TagRepository) *TaxonomyService {
	return &TaxonomyService{categories: categories, subcategories: subcategories, tags: tags}
}

// Categories returns one page of categories.
func (s *TaxonomyService) Categories(ctx context.Context, f store.TaxonomyFilter, page, perPage int) (*query.Page[models.Category], error) {
	return s.categories.List(ctx, f, page, perPage)
}

// CategoryTree returns every category with its subcategories.
func (s *TaxonomyService) CategoryTree(ctx context.Context) ([]models.Category, error) {
	return s.categories.Tree(ctx)
}

// Category returns one category.
func (s *TaxonomyService) Category(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.categories.Find(ctx, id)
}

// CreateCategory validates and inserts a category.
func (s *TaxonomyService) CreateCategory(ctx context.Context, in TaxonomyInput) (*models.Category, error) {
	name, sl, err := nameAndSlug(in.Name, in.Slug)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}
	if err := slugFree(ctx, s.categories.SlugTaken, sl, uuid.Nil, "categories_slug_key"); err != nil {
		return nil, err
	}

	order := 0
	if in.SortOrder != nil {
		order = *in.SortOrder
	} else if order, err = s.categories.NextSortOrder(ctx); err != nil {
		return nil, err
	}

	c := &models.Category{Name: name, Slug: sl, Description: strings.TrimSpace(in.Description), SortOrder: order}
	id, err := s.categories.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.categories.Find(ctx, id)
}

// UpdateCategory applies p to a category.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) (*models.Category, error) {
	existing, err := s.categories.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := normalizePatch(&p, existing.Name); err != nil {
		return nil, err
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return nil, err
		}
	}
	if p.Slug != nil && *p.Slug != existing.Slug {
		if err := slugFree(ctx, s.categories.SlugTaken, *p.Slug, id, "categories_slug_key"); err != nil {
			return nil, err
		}
	}
	if err := s.categories.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.categories.Find(ctx, id)
}

// DeleteCategory removes a category with its subcategories.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}

// ReorderCategories rewrites the display order of several categories.
func (s *TaxonomyService) ReorderCategories(ctx context.Context, items []store.ReorderItem) error {
	if len(items) == 0 {
		return models.Invalid("items", "Nothing to reorder.")
	}
	return s.categories.Reorder(ctx, items)
}

// Subcategories returns one page of subcategories.
func (s *TaxonomyService) Subcategories(ctx context.Context, f store.TaxonomyFilter, page, perPage int) (*query.Page[models.Subcategory], error) {
	return s.subcategories.List(ctx, f, page, perPage)
}

// CreateSubcategory validates and inserts a subcategory under an
// existing category.
func (s *TaxonomyService) CreateSubcategory(ctx context.Context, in TaxonomyInput) (*models.Subcategory, error) {
	name, sl, err := nameAndSlug(in.Name, in.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.parentExists(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if err := slugFree(ctx, s.subcategories.SlugTaken, sl, uuid.Nil, "subcategories_slug_key"); err != nil {
		return nil, err
	}
	id, err := s.subcategories.Create(ctx, &models.Subcategory{CategoryID: in.CategoryID, Name: name, Slug: sl})
	if err != nil {
		return nil, translateParent(err)
	}
	return s.subcategories.Find(ctx, id)
}

// UpdateSubcategory applies p to a subcategory, possibly moving it to
// another category.
func (s *TaxonomyService) UpdateSubcategory(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) (*models.Subcategory, error) {
	existing, err := s.subcategories.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := normalizePatch(&p, existing.Name); err != nil {
		return nil, err
	}
	if p.CategoryID != nil {
		if err := s.parentExists(ctx, *p.CategoryID); err != nil {
			return nil, err
		}
	}
	if p.Slug != nil && *p.Slug != existing.Slug {
		if err := slugFree(ctx, s.subcategories.SlugTaken, *p.Slug, id, "subcategories_slug_key"); err != nil {
			return nil, err
		}
	}
	if err := s.subcategories.Update(ctx, id, p); err != nil {
		return nil, translateParent(err)
	}
	return s.subcategories.Find(ctx, id)
}

// DeleteSubcategory removes a subcategory.
func (s *TaxonomyService) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	return s.subcategories.Delete(ctx, id)
}

// Tags returns one page of tags.
func (s *TaxonomyService) Tags(ctx context.Context, f store.TaxonomyFilter, page, perPage int) (*query.Page[models.Tag], error) {
	return s.tags.List(ctx, f, page, perPage)
}

// CreateTag validates and inserts a tag.
func (s *TaxonomyService) CreateTag(ctx context.Context, in TaxonomyInput) (*models.Tag, error) {
	name, sl, err := nameAndSlug(in.Name, in.Slug)
	if err != nil {
		return nil, err
	}
	if err := slugFree(ctx, s.tags.SlugTaken, sl, uuid.Nil, "tags_slug_key"); err != nil {
		return nil, err
	}
	id, err := s.tags.Create(ctx, &models.Tag{Name: name, Slug: sl})
	if err != nil {
		return nil, err
	}
	return s.tags.Find(ctx, id)
}

// UpdateTag applies the name and slug of p to a tag.
func (s *TaxonomyService) UpdateTag(ctx context.Context, id uuid.UUID, p models.TaxonomyPatch) (*models.Tag, error) {
	existing, err := s.tags.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := normalizePatch(&p, existing.Name); err != nil {
		return nil, err
	}
	if p.Slug != nil && *p.Slug != existing.Slug {
		if err := slugFree(ctx, s.tags.SlugTaken, *p.Slug, id, "tags_slug_key"); err != nil {
			return nil, err
		}
	}
	if err := s.tags.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.tags.Find(ctx, id)
}

// DeleteTag removes a tag and its content links.
func (s *TaxonomyService) DeleteTag(ctx context.Context, id uuid.UUID) error {
	return s.tags.Delete(ctx, id)
}

func (s *TaxonomyService) parentExists(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return models.Invalid("category_id", "Category is required.")
	}
	if _, err := s.categories.Find(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Invalid("category_id", "Unknown category.")
		}
		return err
	}
	return nil
}

func translateParent(err error) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return models.Invalid("category_id", "Unknown category.")
	}
	return err
}

// nameAndSlug trims and validates a name and returns the slug to use,
// generating it from the name when none was given.
func nameAndSlug(name, sl string) (string, string, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return "", "", err
	}
	sl = strings.TrimSpace(sl)
	if sl == "" {
		sl = slug.Generate(name)
	}
	if !slug.Valid(sl) {
		return "", "", models.Invalid("slug", "Slug may only contain lowercase letters, digits and single hyphens.")
	}
	return name, sl, nil
}

// normalizePatch trims and validates the name and slug of p in place.
// An explicitly empty slug is regenerated from the (new or current) name.
func normalizePatch(p *models.TaxonomyPatch, currentName string) error {
	name := currentName
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		if err := validateName(name); err != nil {
			return err
		}
		p.Name = &name
	}
	if p.Slug != nil {
		sl := strings.TrimSpace(*p.Slug)
		if sl == "" {
			sl = slug.Generate(name)
		}
		if !slug.Valid(sl) {
			return models.Invalid("slug", "Slug may only contain lowercase letters, digits and single hyphens.")
		}
		p.Slug = &sl
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return models.Invalid("name", "Name is required.")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return models.Invalid("name", "Name is too long (max 200 characters).")
	}
	return nil
}

func validateDescription(d string) error {
	if utf8.RuneCountInString(d) > maxDescriptionLen {
		return models.Invalid("description", "Description is too long (max 2,000 characters).")
	}
	return nil
}

func slugFree(ctx context.Context, taken func(context.Context, string, uuid.UUID) (bool, error), sl string, except uuid.UUID, constraint string) error {
	used, err := taken(ctx, sl, except)
	if err != nil {
		return err
	}
	if used {
		return &store.DuplicateKeyError{Constraint: constraint}
	}
	return nil
}
