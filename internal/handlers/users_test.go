// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newsdesk/internal/models"
)

func TestUsers_SelfLockout(t *testing.T) {
	env := newTestEnv(t)
	admin := env.staff(t, models.RoleAdmin)
	path := "/api/admin/users/" + admin.UserID.String()

	rec := serve(env.UsersAPI.Delete, http.MethodDelete, "/api/admin/users/{id}", httptest.NewRequest(http.MethodDelete, path, nil), admin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("self delete: status = %d, want 403", rec.Code)
	}
	if info := decodeErr(t, rec); info.Code != "self_lockout" {
		t.Errorf("code = %q, want self_lockout", info.Code)
	}

	for _, body := range []map[string]any{
		{"role": "editor"},
		{"suspended": true},
		{"name": "Renamed", "role": "editor"},
		{"email": "renamed@test.local", "suspended": true},
	} {
		rec = serve(env.UsersAPI.Update, http.MethodPatch, "/api/admin/users/{id}", jsonRequest(t, http.MethodPatch, path, body), admin)
		if rec.Code != http.StatusForbidden {
			t.Errorf("self update %v: status = %d, want 403", body, rec.Code)
		}
	}

	stored, err := env.Users.Find(context.Background(), admin.UserID)
	if err != nil {
		t.Fatalf("admin record: %v", err)
	}
	if stored.Name != admin.Name || stored.Email != admin.Email || stored.Role != models.RoleAdmin || stored.Suspended {
		t.Errorf("rejected self update left changes: name %q email %q role %q suspended %v",
			stored.Name, stored.Email, stored.Role, stored.Suspended)
	}

	// Profile edits on oneself are still allowed.
	rec = serve(env.UsersAPI.Update, http.MethodPatch, "/api/admin/users/{id}",
		jsonRequest(t, http.MethodPatch, path, map[string]any{"name": "Still Admin", "role": "admin"}), admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("self rename: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var renamed models.User
	decodeData(t, rec, &renamed)
	if renamed.Name != "Still Admin" || renamed.Role != models.RoleAdmin {
		t.Errorf("self rename = name %q role %q", renamed.Name, renamed.Role)
	}
}

func TestUsers_CreateUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.staff(t, models.RoleAdmin)
	email := "new-" + strings.ToLower(strings.ReplaceAll(uniqueTitle("user"), " ", "-")) + "@test.local"

	rec := serve(env.UsersAPI.Create, http.MethodPost, "/api/admin/users", jsonRequest(t, http.MethodPost, "/api/admin/users", map[string]any{
		"name":     "New Editor",
		"email":    email,
		"password": "long-enough-password",
		"role":     "editor",
	}), admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var u models.User
	decodeData(t, rec, &u)
	t.Cleanup(func() { env.DB.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response leaks password material")
	}

	rec = serve(env.UsersAPI.Create, http.MethodPost, "/api/admin/users", jsonRequest(t, http.MethodPost, "/api/admin/users", map[string]any{
		"name":     "Twin",
		"email":    email,
		"password": "long-enough-password",
		"role":     "editor",
	}), admin)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409", rec.Code)
	}

	path := "/api/admin/users/" + u.ID.String()
	rec = serve(env.UsersAPI.Update, http.MethodPatch, "/api/admin/users/{id}", jsonRequest(t, http.MethodPatch, path, map[string]any{
		"role":      "reader",
		"suspended": true,
	}), admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated models.User
	decodeData(t, rec, &updated)
	if updated.Role != models.RoleReader || !updated.Suspended {
		t.Errorf("updated = role %q suspended %v", updated.Role, updated.Suspended)
	}

	rec = serve(env.UsersAPI.Delete, http.MethodDelete, "/api/admin/users/{id}", httptest.NewRequest(http.MethodDelete, path, nil), admin)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = serve(env.UsersAPI.Get, http.MethodGet, "/api/admin/users/{id}", httptest.NewRequest(http.MethodGet, path, nil), admin)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

func TestUsers_AvatarReplacesOldFile(t *testing.T) {
	env := newTestEnv(t)
	editor := env.staff(t, models.RoleEditor)
	path := "/api/admin/users/" + editor.UserID.String() + "/avatar"

	upload := func() string {
		t.Helper()
		req := multipartRequest(t, http.MethodPost, path, nil, "file", "image/png", pngBytes(t))
		rec := serve(env.UsersAPI.Avatar, http.MethodPost, "/api/admin/users/{id}/avatar", req, editor)
		if rec.Code != http.StatusOK {
			t.Fatalf("avatar: status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var up uploaded
		decodeData(t, rec, &up)
		return filepath.Join(env.Dir, filepath.FromSlash(strings.TrimPrefix(up.URL, "/uploads/")))
	}

	first := upload()
	second := upload()
	if first == second {
		t.Fatal("second upload reused the first reference")
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Errorf("replaced avatar still on disk: %v", err)
	}
	if _, err := os.Stat(second); err != nil {
		t.Errorf("new avatar missing: %v", err)
	}
}

func TestUsers_AvatarOfOthersNeedsAdmin(t *testing.T) {
	env := newTestEnv(t)
	editor := env.staff(t, models.RoleEditor)
	other := env.staff(t, models.RoleEditor)

	req := multipartRequest(t, http.MethodPost, "/api/admin/users/"+other.UserID.String()+"/avatar", nil, "file", "image/png", pngBytes(t))
	rec := serve(env.UsersAPI.Avatar, http.MethodPost, "/api/admin/users/{id}/avatar", req, editor)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
