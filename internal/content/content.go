// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content implements the editorial operations on posts, videos,
// opinions and ads: validated create and update with image handling and
// category/tag associations, publishing, featured slots and view counts.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsdesk/internal/assets"
	"newsdesk/internal/models"
	"newsdesk/internal/query"
	"newsdesk/internal/slug"
	"newsdesk/internal/store"
)

// Validation limits for content fields.
const (
	maxTitleLen = 300
	maxSlugLen  = 300
	maxBodyLen  = 100_000
	maxURLLen   = 2_000
	maxFeatured = 100
)

// Repository is the content storage the service needs.
type Repository interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Content, error)
	FindBySlug(ctx context.Context, kind models.ContentKind, slug string) (*models.Content, error)
	List(ctx context.Context, f store.ContentFilter, sort store.ContentSort, page, perPage int) (*query.Page[models.Content], error)
	FindMany(ctx context.Context, f store.ContentFilter, sort store.ContentSort, limit int) ([]models.Content, error)
	SlugTaken(ctx context.Context, kind models.ContentKind, slug string, except uuid.UUID) (bool, error)
	Create(ctx context.Context, c *models.Content) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, p models.ContentPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) (int64, error)
	Categories(ctx context.Context, id uuid.UUID) ([]models.Category, error)
	Tags(ctx context.Context, id uuid.UUID) ([]models.Tag, error)
	ReplaceCategories(ctx context.Context, id uuid.UUID, ids []uuid.UUID) error
	ReplaceTags(ctx context.Context, id uuid.UUID, ids []uuid.UUID) error
}

// Existence counts how many of the given ids exist; implemented by the
// category and tag stores.
type Existence interface {
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}

// Assets is the part of the asset manager the service uses.
type Assets interface {
	Store(ctx context.Context, up assets.Upload, namespace string) (string, error)
	Replace(ctx context.Context, oldRef string, up assets.Upload, namespace string, commit func(ref string) error) (string, error)
	DeleteIfOwned(ctx context.Context, ref string) (bool, error)
}

// Input is a complete new item.
type Input struct {
	Title            string
	Slug             string // generated from Title when empty
	Body             string
	Status           models.ContentStatus
	SubcategoryID    *uuid.UUID
	MediaURL         *string
	FeaturedPosition *int
	CategoryIDs      []uuid.UUID
	TagIDs           []uuid.UUID
	Image            *assets.Upload
}

// Patch changes only the fields that are set. A nil double pointer
// leaves the field alone; a pointer to nil clears it.
type Patch struct {
	Title            *string
	Slug             *string
	Body             *string
	Status           *models.ContentStatus
	SubcategoryID    **uuid.UUID
	MediaURL         **string
	FeaturedPosition **int
	CategoryIDs      *[]uuid.UUID
	TagIDs           *[]uuid.UUID
	Image            *assets.Upload
	RemoveImage      bool
}

// Service is the content aggregate service.
type Service struct {
	repo       Repository
	categories Existence
	tags       Existence
	media      Assets
	now        func() time.Time
}

// NewService wires the content repository, taxonomy stores and assets.
func NewService(repo Repository, categories, tags Existence, media Assets) *Service {
	return &Service{repo: repo, categories: categories, tags: tags, media: media, now: time.Now}
}

// Get returns one item of kind with its categories and tags.
func (s *Service) Get(ctx context.Context, kind models.ContentKind, id uuid.UUID) (*models.Content, error) {
	c, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.withAssociations(ctx, c)
}

// GetBySlug returns one item of kind by slug with its associations.
func (s *Service) GetBySlug(ctx context.Context, kind models.ContentKind, slug string) (*models.Content, error) {
	c, err := s.repo.FindBySlug(ctx, kind, slug)
	if err != nil {
		return nil, err
	}
	return s.withAssociations(ctx, c)
}

// List returns one page of items matching f.
func (s *Service) List(ctx context.Context, f store.ContentFilter, sort store.ContentSort, page, perPage int) (*query.Page[models.Content], error) {
	return s.repo.List(ctx, f, sort, page, perPage)
}

// ListPublic lists only what anonymous readers may see: published items,
// and ads, which have no status.
func (s *Service) ListPublic(ctx context.Context, f store.ContentFilter, sort store.ContentSort, page, perPage int) (*query.Page[models.Content], error) {
	f.Status = ""
	if f.Kind.HasStatus() {
		f.Status = models.ContentStatusPublished
	}
	return s.repo.List(ctx, f, sort, page, perPage)
}

// GetPublic returns an item only if anonymous readers may see it.
func (s *Service) GetPublic(ctx context.Context, kind models.ContentKind, id uuid.UUID) (*models.Content, error) {
	c, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished() {
		return nil, store.ErrNotFound
	}
	return c, nil
}

// Create validates in, stores its image, inserts the record and then links
// categories and tags. If the insert fails the stored image is removed.
func (s *Service) Create(ctx context.Context, kind models.ContentKind, authorID uuid.UUID, in Input) (*models.Content, error) {
	c := &models.Content{
		Kind:             kind,
		Title:            strings.TrimSpace(in.Title),
		Slug:             strings.TrimSpace(in.Slug),
		Body:             in.Body,
		Status:           in.Status,
		SubcategoryID:    in.SubcategoryID,
		MediaURL:         trimmed(in.MediaURL),
		FeaturedPosition: in.FeaturedPosition,
	}
	if authorID != uuid.Nil {
		c.AuthorID = &authorID
	}
	if c.Slug == "" {
		c.Slug = slug.Generate(c.Title)
	}
	if !kind.HasStatus() {
		c.Status = models.ContentStatusPublished
	} else if c.Status == "" {
		c.Status = models.ContentStatusDraft
	}

	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.checkSlug(ctx, kind, c.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.checkTaxonomy(ctx, in.CategoryIDs, in.TagIDs); err != nil {
		return nil, err
	}
	if c.Status == models.ContentStatusPublished {
		now := s.now().UTC()
		c.PublishedAt = &now
	}

	if in.Image != nil {
		ref, err := s.media.Store(ctx, *in.Image, kind.Namespace())
		if err != nil {
			return nil, err
		}
		c.ImageURL = &ref
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		if c.ImageURL != nil {
			s.discard(ctx, *c.ImageURL)
		}
		return nil, translate(err)
	}

	if err := s.replaceAssociations(ctx, id, &in.CategoryIDs, &in.TagIDs); err != nil {
		s.rollbackCreate(ctx, id, c.ImageURL)
		return nil, err
	}
	return s.Get(ctx, kind, id)
}

// rollbackCreate removes a row whose associations could not be written,
// then its image, so a retry does not collide with the half-created item.
func (s *Service) rollbackCreate(ctx context.Context, id uuid.UUID, image *string) {
	if err := s.repo.Delete(ctx, id); err != nil {
		slog.Error("roll back content create failed", "id", id, "error", err)
		return
	}
	if image != nil {
		s.discard(ctx, *image)
	}
}

// Update applies p. The write order is: new image stored, record updated,
// old image deleted, associations replaced. A failure at any step leaves
// the record pointing at an image that exists.
func (s *Service) Update(ctx context.Context, kind models.ContentKind, id uuid.UUID, p Patch) (*models.Content, error) {
	existing, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	patch, err := s.buildPatch(ctx, existing, p)
	if err != nil {
		return nil, err
	}
	if err := s.checkTaxonomy(ctx, deref(p.CategoryIDs), deref(p.TagIDs)); err != nil {
		return nil, err
	}

	var oldImage string
	if existing.ImageURL != nil {
		oldImage = *existing.ImageURL
	}

	switch {
	case p.Image != nil:
		_, err = s.media.Replace(ctx, oldImage, *p.Image, kind.Namespace(), func(ref string) error {
			image := &ref
			patch.ImageURL = &image
			return s.repo.Update(ctx, id, patch)
		})
		if err != nil {
			return nil, translate(err)
		}
	case p.RemoveImage && oldImage != "":
		var none *string
		patch.ImageURL = &none
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return nil, translate(err)
		}
		s.discard(ctx, oldImage)
	default:
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return nil, translate(err)
		}
	}

	if err := s.replaceAssociations(ctx, id, p.CategoryIDs, p.TagIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, kind, id)
}

// Delete removes the item and then its image.
func (s *Service) Delete(ctx context.Context, kind models.ContentKind, id uuid.UUID) error {
	c, err := s.find(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if c.ImageURL != nil {
		s.discard(ctx, *c.ImageURL)
	}
	return nil
}

// SetStatus moves an item between draft and published. The first
// publication stamps published_at; later ones keep it.
func (s *Service) SetStatus(ctx context.Context, kind models.ContentKind, id uuid.UUID, status models.ContentStatus) (*models.Content, error) {
	if !kind.HasStatus() {
		return nil, models.Invalid("status", "Ads are always visible and have no status.")
	}
	return s.Update(ctx, kind, id, Patch{Status: &status})
}

// IncrementView adds exactly one view to a published item and returns the
// new count. Drafts answer ErrNotFound, as they do on every public read.
func (s *Service) IncrementView(ctx context.Context, kind models.ContentKind, id uuid.UUID) (int64, error) {
	c, err := s.find(ctx, kind, id)
	if err != nil {
		return 0, err
	}
	if !c.IsPublished() {
		return 0, store.ErrNotFound
	}
	return s.repo.IncrementViews(ctx, id)
}

func (s *Service) find(ctx context.Context, kind models.ContentKind, id uuid.UUID) (*models.Content, error) {
	c, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Kind != kind {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *Service) withAssociations(ctx context.Context, c *models.Content) (*models.Content, error) {
	var err error
	if c.Categories, err = s.repo.Categories(ctx, c.ID); err != nil {
		return nil, err
	}
	if c.Tags, err = s.repo.Tags(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// buildPatch validates p against the existing item and converts it to a
// store patch.
func (s *Service) buildPatch(ctx context.Context, existing *models.Content, p Patch) (models.ContentPatch, error) {
	var patch models.ContentPatch
	merged := *existing

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		merged.Title, patch.Title = title, &title
	}
	if p.Slug != nil {
		sl := strings.TrimSpace(*p.Slug)
		if sl == "" {
			sl = slug.Generate(merged.Title)
		}
		merged.Slug, patch.Slug = sl, &sl
	}
	if p.Body != nil {
		merged.Body, patch.Body = *p.Body, p.Body
	}
	if p.Status != nil {
		if !existing.Kind.HasStatus() {
			return patch, models.Invalid("status", "Ads are always visible and have no status.")
		}
		merged.Status, patch.Status = *p.Status, p.Status
		if *p.Status == models.ContentStatusPublished && existing.PublishedAt == nil {
			now := s.now().UTC()
			stamp := &now
			patch.PublishedAt = &stamp
		}
	}
	if p.SubcategoryID != nil {
		merged.SubcategoryID, patch.SubcategoryID = *p.SubcategoryID, p.SubcategoryID
	}
	if p.MediaURL != nil {
		media := trimmed(*p.MediaURL)
		merged.MediaURL, patch.MediaURL = media, &media
	}
	if p.FeaturedPosition != nil {
		merged.FeaturedPosition, patch.FeaturedPosition = *p.FeaturedPosition, p.FeaturedPosition
	}

	if err := validate(&merged); err != nil {
		return patch, err
	}
	if patch.Slug != nil && *patch.Slug != existing.Slug {
		if err := s.checkSlug(ctx, existing.Kind, *patch.Slug, existing.ID); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

func (s *Service) checkSlug(ctx context.Context, kind models.ContentKind, sl string, except uuid.UUID) error {
	taken, err := s.repo.SlugTaken(ctx, kind, sl, except)
	if err != nil {
		return err
	}
	if taken {
		return &store.DuplicateKeyError{Constraint: "content_kind_slug_key"}
	}
	return nil
}

func (s *Service) checkTaxonomy(ctx context.Context, categoryIDs, tagIDs []uuid.UUID) error {
	if err := checkExisting(ctx, s.categories, categoryIDs, "category_ids", "Unknown category."); err != nil {
		return err
	}
	return checkExisting(ctx, s.tags, tagIDs, "tag_ids", "Unknown tag.")
}

func checkExisting(ctx context.Context, e Existence, ids []uuid.UUID, field, message string) error {
	want := unique(ids)
	if len(want) == 0 {
		return nil
	}
	n, err := e.CountExisting(ctx, want)
	if err != nil {
		return err
	}
	if n != len(want) {
		return models.Invalid(field, message)
	}
	return nil
}

func (s *Service) replaceAssociations(ctx context.Context, id uuid.UUID, categoryIDs, tagIDs *[]uuid.UUID) error {
	if categoryIDs != nil {
		if err := s.repo.ReplaceCategories(ctx, id, *categoryIDs); err != nil {
			return translate(err)
		}
	}
	if tagIDs != nil {
		if err := s.repo.ReplaceTags(ctx, id, *tagIDs); err != nil {
			return translate(err)
		}
	}
	return nil
}

// discard deletes an asset the record no longer references. Failures
// leave an orphaned file, not a broken record, so they are only logged.
func (s *Service) discard(ctx context.Context, ref string) {
	if _, err := s.media.DeleteIfOwned(ctx, ref); err != nil {
		slog.Warn("delete content image failed", "ref", ref, "error", err)
	}
}

// validate checks the complete state of an item.
func validate(c *models.Content) error {
	if _, ok := models.ParseKind(string(c.Kind)); !ok {
		return models.Invalid("kind", "Unknown content kind.")
	}
	if c.Title == "" {
		return models.Invalid("title", "Title is required.")
	}
	if utf8.RuneCountInString(c.Title) > maxTitleLen {
		return models.Invalid("title", fmt.Sprintf("Title is too long (max %d characters).", maxTitleLen))
	}
	if c.Slug == "" || !slug.Valid(c.Slug) {
		return models.Invalid("slug", "Slug may only contain lowercase letters, digits and single hyphens.")
	}
	if utf8.RuneCountInString(c.Slug) > maxSlugLen {
		return models.Invalid("slug", fmt.Sprintf("Slug is too long (max %d characters).", maxSlugLen))
	}
	if utf8.RuneCountInString(c.Body) > maxBodyLen {
		return models.Invalid("body", "Body is too long (max 100,000 characters).")
	}
	if !c.Status.Valid() {
		return models.Invalid("status", "Status must be draft or published.")
	}
	if c.Kind == models.KindVideo && c.MediaURL == nil {
		return models.Invalid("media_url", "Video URL is required.")
	}
	if c.MediaURL != nil && !validURL(*c.MediaURL) {
		return models.Invalid("media_url", "Media URL must be an http(s) link.")
	}
	if c.FeaturedPosition != nil && (*c.FeaturedPosition < 1 || *c.FeaturedPosition > maxFeatured) {
		return models.Invalid("featured_position", fmt.Sprintf("Featured position must be between 1 and %d.", maxFeatured))
	}
	return nil
}

func validURL(raw string) bool {
	if len(raw) > maxURLLen {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// translate turns store reference errors into field validation errors.
func translate(err error) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return models.Invalid("subcategory_id", "Referenced subcategory, category or tag does not exist.")
	}
	return err
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func deref(p *[]uuid.UUID) []uuid.UUID {
	if p == nil {
		return nil
	}
	return *p
}

func unique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
