// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"newsdesk/internal/models"
	"newsdesk/internal/store"
)

// Pagination defaults for list endpoints.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequest{"Request body is empty."}
		}
		return badRequest{"Request body is not valid JSON: " + err.Error()}
	}
	return nil
}

// pageParams reads ?page and ?per_page. per_page is capped at maxPerPage.
func pageParams(r *http.Request) (page, perPage int, err error) {
	page, perPage = 1, defaultPerPage
	if v := r.URL.Query().Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			return 0, 0, badRequest{"page must be a positive integer."}
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if perPage, err = strconv.Atoi(v); err != nil || perPage < 1 {
			return 0, 0, badRequest{"per_page must be a positive integer."}
		}
	}
	return page, min(perPage, maxPerPage), nil
}

// idParam parses the {id} URL parameter. A malformed id cannot match a
// row, so it is reported as not found.
func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, store.ErrNotFound
	}
	return id, nil
}

// kindParam parses the {kind} URL parameter ("posts", "videos", ...).
func kindParam(r *http.Request) (models.ContentKind, error) {
	kind, ok := models.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		return "", store.ErrNotFound
	}
	return kind, nil
}

// uuidQuery parses an optional single id from the query string.
func uuidQuery(r *http.Request, key string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, badRequest{key + " must be a UUID."}
	}
	return &id, nil
}

// uuidsQuery parses repeated or comma-separated ids from the query string.
func uuidsQuery(r *http.Request, key string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, v := range r.URL.Query()[key] {
		for part := range strings.SplitSeq(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, badRequest{key + " must be a list of UUIDs."}
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// boolQuery parses an optional boolean flag from the query string.
func boolQuery(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, badRequest{key + " must be true or false."}
	}
	return &b, nil
}

// timeQuery accepts RFC 3339 timestamps or plain dates.
func timeQuery(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, badRequest{key + " must be a date (YYYY-MM-DD) or RFC 3339 timestamp."}
}

// optional distinguishes a JSON key that is absent from one set to null.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// patch converts o to the double pointer used by service patches.
func (o optional[T]) patch() **T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}
