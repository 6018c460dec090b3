// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"newsdesk/internal/assets"
	"newsdesk/internal/content"
	"newsdesk/internal/models"
)

// imageField is the multipart part carrying an uploaded image.
const imageField = "image"

// contentBody is the create/update payload for a content item. It is read
// from JSON or from a multipart form; only the form can carry an image.
type contentBody struct {
	Title            *string               `json:"title"`
	Slug             *string               `json:"slug"`
	Body             *string               `json:"body"`
	Status           *models.ContentStatus `json:"status"`
	SubcategoryID    optional[uuid.UUID]   `json:"subcategory_id"`
	MediaURL         optional[string]      `json:"media_url"`
	FeaturedPosition optional[int]         `json:"featured_position"`
	CategoryIDs      *[]uuid.UUID          `json:"category_ids"`
	TagIDs           *[]uuid.UUID          `json:"tag_ids"`
	RemoveImage      bool                  `json:"remove_image"`

	image *multipart.FileHeader
}

// isMultipart reports whether the request carries a multipart form.
func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// readContentBody parses the request into a contentBody. maxMemory bounds
// the part of a multipart form kept in memory.
func readContentBody(r *http.Request, maxMemory int64) (*contentBody, error) {
	var b contentBody
	if !isMultipart(r) {
		if err := decodeJSON(r, &b); err != nil {
			return nil, err
		}
		return &b, nil
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, badRequest{"Malformed multipart form."}
	}
	form := r.MultipartForm
	str := func(key string) *string {
		if vs, ok := form.Value[key]; ok && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}

	b.Title, b.Slug, b.Body = str("title"), str("slug"), str("body")
	if s := str("status"); s != nil {
		st := models.ContentStatus(*s)
		b.Status = &st
	}
	if s := str("media_url"); s != nil {
		b.MediaURL.Set = true
		if *s != "" {
			b.MediaURL.Value = s
		}
	}
	if s := str("subcategory_id"); s != nil {
		b.SubcategoryID.Set = true
		if *s != "" {
			id, err := uuid.Parse(*s)
			if err != nil {
				return nil, models.Invalid("subcategory_id", "Subcategory id is malformed.")
			}
			b.SubcategoryID.Value = &id
		}
	}
	if s := str("featured_position"); s != nil {
		b.FeaturedPosition.Set = true
		if *s != "" {
			n, err := strconv.Atoi(*s)
			if err != nil {
				return nil, models.Invalid("featured_position", "Featured position must be a number.")
			}
			b.FeaturedPosition.Value = &n
		}
	}

	var err error
	if b.CategoryIDs, err = formIDs(form, "category_ids"); err != nil {
		return nil, err
	}
	if b.TagIDs, err = formIDs(form, "tag_ids"); err != nil {
		return nil, err
	}
	if s := str("remove_image"); s != nil {
		b.RemoveImage, _ = strconv.ParseBool(*s)
	}
	if files := form.File[imageField]; len(files) > 0 {
		b.image = files[0]
	}
	return &b, nil
}

// formIDs reads a repeated id field. A present field with only empty
// values means "no ids"; an absent field means "unchanged".
func formIDs(form *multipart.Form, key string) (*[]uuid.UUID, error) {
	vs, present := form.Value[key]
	if !present {
		return nil, nil
	}
	ids := []uuid.UUID{}
	for _, v := range vs {
		for part := range strings.SplitSeq(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, models.Invalid(key, "Ids must be UUIDs.")
			}
			ids = append(ids, id)
		}
	}
	return &ids, nil
}

// openUpload opens a multipart file as an asset upload. The caller closes
// the returned closer.
func openUpload(fh *multipart.FileHeader) (*assets.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, badRequest{"Could not read the uploaded file."}
	}
	up := &assets.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
	return up, func() { f.Close() }, nil
}

func (b *contentBody) input() content.Input {
	in := content.Input{
		SubcategoryID:    b.SubcategoryID.Value,
		MediaURL:         b.MediaURL.Value,
		FeaturedPosition: b.FeaturedPosition.Value,
	}
	if b.Title != nil {
		in.Title = *b.Title
	}
	if b.Slug != nil {
		in.Slug = *b.Slug
	}
	if b.Body != nil {
		in.Body = *b.Body
	}
	if b.Status != nil {
		in.Status = *b.Status
	}
	if b.CategoryIDs != nil {
		in.CategoryIDs = *b.CategoryIDs
	}
	if b.TagIDs != nil {
		in.TagIDs = *b.TagIDs
	}
	return in
}

func (b *contentBody) patch() content.Patch {
	return content.Patch{
		Title:            b.Title,
		Slug:             b.Slug,
		Body:             b.Body,
		Status:           b.Status,
		SubcategoryID:    b.SubcategoryID.patch(),
		MediaURL:         b.MediaURL.patch(),
		FeaturedPosition: b.FeaturedPosition.patch(),
		CategoryIDs:      b.CategoryIDs,
		TagIDs:           b.TagIDs,
		RemoveImage:      b.RemoveImage,
	}
}
