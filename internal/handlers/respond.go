// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the newsdesk API.
// Handlers are grouped by concern (auth, admin content, taxonomy,
// community, users, public) and receive their dependencies through the
// handler struct. Every response uses the JSON envelope defined here.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"newsdesk/internal/assets"
	"newsdesk/internal/auth"
	"newsdesk/internal/csrf"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/preview"
	"newsdesk/internal/query"
	"newsdesk/internal/store"
)

// Meta carries pagination details and non-fatal warnings.
type Meta struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
	LastPage int       `json:"last_page"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Warning is a non-fatal remark about a successful mutation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	IDs     []any  `json:"ids,omitempty"`
}

type envelope struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// ErrorInfo is the body of an error response.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorEnvelope struct {
	Error ErrorInfo `json:"error"`
}

// badRequest marks malformed input that never reached a service.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// ok sends data in the success envelope.
func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

// paged sends one page of rows with its pagination meta.
func paged[T any](w http.ResponseWriter, p *query.Page[T]) {
	rows := p.Rows
	if rows == nil {
		rows = []T{}
	}
	writeJSON(w, http.StatusOK, envelope{Data: rows, Meta: &Meta{
		Total:    p.Total,
		Page:     p.Page,
		PerPage:  p.PerPage,
		LastPage: p.LastPage,
	}})
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, status int, info ErrorInfo) {
	writeJSON(w, status, errorEnvelope{Error: info})
}

// fail maps err onto a status code and error envelope. Unexpected errors
// are logged and reported without detail.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *models.ValidationError
		duplicate  *store.DuplicateKeyError
		rejected   *assets.RejectedError
		tooLarge   *http.MaxBytesError
		bad        badRequest
	)

	switch {
	case errors.As(err, &validation):
		writeErr(w, http.StatusUnprocessableEntity, ErrorInfo{Code: "validation", Message: validation.Message, Field: validation.Field})
	case errors.As(err, &duplicate):
		writeErr(w, http.StatusConflict, ErrorInfo{Code: "duplicate", Message: duplicateMessage(duplicate.Constraint)})
	case errors.Is(err, store.ErrDuplicateKey):
		writeErr(w, http.StatusConflict, ErrorInfo{Code: "duplicate", Message: duplicateMessage("")})
	case errors.Is(err, assets.ErrInUse):
		writeErr(w, http.StatusConflict, ErrorInfo{Code: "in_use", Message: "The file is still used by a content item or avatar. Remove it there first."})
	case errors.As(err, &rejected):
		writeErr(w, http.StatusUnprocessableEntity, ErrorInfo{Code: "rejected_asset", Message: rejected.Reason})
	case errors.As(err, &tooLarge):
		writeErr(w, http.StatusRequestEntityTooLarge, ErrorInfo{Code: "too_large", Message: "Request body is too large."})
	case errors.As(err, &bad):
		writeErr(w, http.StatusBadRequest, ErrorInfo{Code: "bad_request", Message: bad.msg})
	case errors.Is(err, query.ErrInvalidPage):
		writeErr(w, http.StatusBadRequest, ErrorInfo{Code: "bad_request", Message: "page and per_page must be positive."})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, preview.ErrInvalidToken):
		writeErr(w, http.StatusNotFound, ErrorInfo{Code: "not_found", Message: "Not found."})
	case errors.Is(err, preview.ErrExpiredToken):
		writeErr(w, http.StatusGone, ErrorInfo{Code: "expired", Message: "This preview link has expired."})
	case errors.Is(err, auth.ErrUnauthorized):
		if middleware.WantsHTML(r) {
			http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
			return
		}
		writeErr(w, http.StatusUnauthorized, ErrorInfo{Code: "unauthorized", Message: "Please sign in."})
	case errors.Is(err, auth.ErrSelfLockout):
		writeErr(w, http.StatusForbidden, ErrorInfo{Code: "self_lockout", Message: "You cannot delete, suspend or demote your own account."})
	case errors.Is(err, auth.ErrForbidden):
		writeErr(w, http.StatusForbidden, ErrorInfo{Code: "forbidden", Message: "You do not have permission to do that."})
	case errors.Is(err, csrf.ErrMismatch):
		writeErr(w, http.StatusForbidden, ErrorInfo{Code: "csrf", Message: "Invalid or missing security token. Reload the page and try again."})
	case errors.Is(err, store.ErrStoreUnavailable):
		slog.Error("store unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErr(w, http.StatusServiceUnavailable, ErrorInfo{Code: "unavailable", Message: "Service temporarily unavailable."})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErr(w, http.StatusInternalServerError, ErrorInfo{Code: "internal", Message: "An unexpected error occurred."})
	}
}

// duplicateMessage turns a constraint name into a user-facing sentence.
func duplicateMessage(constraint string) string {
	switch {
	case strings.Contains(constraint, "slug"):
		return "That slug is already in use."
	case strings.Contains(constraint, "email"):
		return "That email address is already registered."
	default:
		return "A record with those values already exists."
	}
}
