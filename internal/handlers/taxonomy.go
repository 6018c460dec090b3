// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"newsdesk/internal/content"
	"newsdesk/internal/models"
	"newsdesk/internal/store"
)

// Taxonomy groups the category, subcategory and tag handlers.
type Taxonomy struct {
	svc *content.TaxonomyService
}

// NewTaxonomy creates the taxonomy handler group.
func NewTaxonomy(svc *content.TaxonomyService) *Taxonomy {
	return &Taxonomy{svc: svc}
}

type taxonomyBody struct {
	Name        *string    `json:"name"`
	Slug        *string    `json:"slug"`
	Description *string    `json:"description"`
	SortOrder   *int       `json:"sort_order"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

func (b taxonomyBody) input() content.TaxonomyInput {
	in := content.TaxonomyInput{SortOrder: b.SortOrder}
	if b.Name != nil {
		in.Name = *b.Name
	}
	if b.Slug != nil {
		in.Slug = *b.Slug
	}
	if b.Description != nil {
		in.Description = *b.Description
	}
	if b.CategoryID != nil {
		in.CategoryID = *b.CategoryID
	}
	return in
}

func (b taxonomyBody) patch() models.TaxonomyPatch {
	return models.TaxonomyPatch{
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		SortOrder:   b.SortOrder,
		CategoryID:  b.CategoryID,
	}
}

func taxonomyFilter(r *http.Request) (store.TaxonomyFilter, error) {
	f := store.TaxonomyFilter{Search: r.URL.Query().Get("q")}
	var err error
	f.CategoryID, err = uuidQuery(r, "category_id")
	return f, err
}

// --- Categories ---

// Categories lists categories in display order.
func (t *Taxonomy) Categories(w http.ResponseWriter, r *http.Request) {
	f, err := taxonomyFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := t.svc.Categories(r.Context(), f, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, p)
}

// CategoryTree returns every category with its subcategories.
func (t *Taxonomy) CategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := t.svc.CategoryTree(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, tree)
}

// Category returns one category.
func (t *Taxonomy) Category(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := t.svc.Category(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, c)
}

// CreateCategory adds a category. A taken slug answers 409.
func (t *Taxonomy) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body taxonomyBody
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	c, err := t.svc.CreateCategory(r.Context(), body.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, c)
}

// UpdateCategory applies a partial update.
func (t *Taxonomy) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var body taxonomyBody
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	c, err := t.svc.UpdateCategory(r.Context(), id, body.patch())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, c)
}

// DeleteCategory removes a category and its subcategories.
func (t *Taxonomy) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := t.svc.DeleteCategory(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// ReorderCategories sets the sort order of several categories at once.
func (t *Taxonomy) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []store.ReorderItem `json:"items"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	if err := t.svc.ReorderCategories(r.Context(), body.Items); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// --- Subcategories ---

// Subcategories lists subcategories, optionally of one category.
func (t *Taxonomy) Subcategories(w http.ResponseWriter, r *http.Request) {
	f, err := taxonomyFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := t.svc.Subcategories(r.Context(), f, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, p)
}

// CreateSubcategory adds a subcategory under category_id.
func (t *Taxonomy) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var body taxonomyBody
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	s, err := t.svc.CreateSubcategory(r.Context(), body.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, s)
}

// UpdateSubcategory renames or moves a subcategory.
func (t *Taxonomy) UpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var body taxonomyBody
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	s, err := t.svc.UpdateSubcategory(r.Context(), id, body.patch())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, s)
}

// DeleteSubcategory removes a subcategory.
func (t *Taxonomy) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := t.svc.DeleteSubcategory(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// --- Tags ---

// Tags lists tags alphabetically.
func (t *Taxonomy) Tags(w http.ResponseWriter, r *http.Request) {
	f, err := taxonomyFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := t.svc.Tags(r.Context(), f, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, p)
}

// CreateTag adds a tag.
func (t *Taxonomy) CreateTag(w http.ResponseWriter, r *http.Request) {
	var body taxonomyBody
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	tag, err := t.svc.CreateTag(r.Context(), body.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, tag)
}

// UpdateTag renames a tag.
func (t *Taxonomy) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var body taxonomyBody
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	tag, err := t.svc.UpdateTag(r.Context(), id, body.patch())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, tag)
}

// DeleteTag removes a tag and its links to content.
func (t *Taxonomy) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := t.svc.DeleteTag(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}
