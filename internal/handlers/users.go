// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"

	"newsdesk/internal/auth"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/store"
)

// Users groups the identity administration handlers. All of them except
// Avatar are mounted for admins only.
type Users struct {
	manager   *auth.Manager
	maxMemory int64
}

// NewUsers creates the identity handler group.
func NewUsers(manager *auth.Manager, maxMemory int64) *Users {
	return &Users{manager: manager, maxMemory: maxMemory}
}

// List returns one page of identities.
func (u *Users) List(w http.ResponseWriter, r *http.Request) {
	f := store.UserFilter{
		Search: r.URL.Query().Get("q"),
		Role:   models.Role(r.URL.Query().Get("role")),
	}
	if f.Role != "" && !f.Role.Valid() {
		fail(w, r, badRequest{"role must be admin, editor or reader."})
		return
	}
	var err error
	if f.Suspended, err = boolQuery(r, "suspended"); err != nil {
		fail(w, r, err)
		return
	}
	page, perPage, err := pageParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := u.manager.ListIdentities(r.Context(), f, page, perPage)
	if err != nil {
		fail(w, r, err)
		return
	}
	paged(w, p)
}

// Get returns one identity.
func (u *Users) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	user, err := u.manager.Identity(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, user)
}

// Create adds an identity with an initial password.
func (u *Users) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string      `json:"name"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Role     models.Role `json:"role"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	user, err := u.manager.CreateIdentity(r.Context(), auth.NewIdentity{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, user)
}

// Update changes profile, role or suspension in one write. An admin cannot
// demote or suspend themself; such a request changes nothing.
func (u *Users) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var body struct {
		Name      *string      `json:"name"`
		Email     *string      `json:"email"`
		Role      *models.Role `json:"role"`
		Suspended *bool        `json:"suspended"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}

	user, err := u.manager.UpdateIdentity(r.Context(), middleware.SessionFromCtx(r.Context()), id, auth.IdentityChange{
		Name:      body.Name,
		Email:     body.Email,
		Role:      body.Role,
		Suspended: body.Suspended,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, user)
}

// Delete removes an identity and its avatar.
func (u *Users) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := u.manager.DeleteIdentity(r.Context(), middleware.SessionFromCtx(r.Context()), id); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// Avatar replaces an identity's avatar with the multipart "file" part.
func (u *Users) Avatar(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !isMultipart(r) {
		fail(w, r, badRequest{"Expected a multipart/form-data upload."})
		return
	}
	if err := r.ParseMultipartForm(u.maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = badRequest{"Malformed multipart form."}
		}
		fail(w, r, err)
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		fail(w, r, models.Invalid("file", "No file provided."))
		return
	}
	up, closeFile, err := openUpload(files[0])
	if err != nil {
		fail(w, r, err)
		return
	}
	defer closeFile()

	ref, err := u.manager.SetAvatar(r.Context(), middleware.SessionFromCtx(r.Context()), id, *up)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, uploaded{URL: ref})
}
