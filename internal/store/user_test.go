// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"newsdesk/internal/models"
	"newsdesk/internal/query"
)

func TestUserStoreCreateAndFindByEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db, query.Postgres)
	ctx := t.Context()

	email := "Reader-" + uuid.NewString()[:8] + "@Test.Local"
	id, err := s.Create(ctx, &models.User{Name: "Reader", Email: email, Role: models.RoleReader}, "hunter22")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", id) })

	u, err := s.FindByEmail(ctx, strings.ToUpper(email))
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.ID != id || u.Email != strings.ToLower(email) {
		t.Errorf("got %s %q", u.ID, u.Email)
	}
	if u.PasswordHash == "hunter22" {
		t.Error("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter22")) != nil {
		t.Error("stored hash does not match the password")
	}

	_, err = s.Create(ctx, &models.User{Name: "Dup", Email: email, Role: models.RoleReader}, "x")
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate email: got %v, want ErrDuplicateKey", err)
	}

	if _, err := s.FindByEmail(ctx, "nobody-"+uuid.NewString()+"@test.local"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}
}

func TestUserStoreUpdatePatch(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db, query.Postgres)
	u := testUser(t, db)
	ctx := t.Context()

	suspended := true
	avatar := "/uploads/avatars/2026/10/x.png"
	avatarPtr := &avatar
	if err := s.Update(ctx, u.ID, models.UserPatch{Suspended: &suspended, AvatarURL: &avatarPtr}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Find(ctx, u.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !got.Suspended || got.AvatarURL == nil || *got.AvatarURL != avatar {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Role != models.RoleEditor || got.Name != u.Name {
		t.Error("fields outside the patch changed")
	}

	var clear *string
	if err := s.Update(ctx, u.ID, models.UserPatch{AvatarURL: &clear}); err != nil {
		t.Fatalf("clear avatar: %v", err)
	}
	if got, _ := s.Find(ctx, u.ID); got.AvatarURL != nil {
		t.Errorf("avatar not cleared: %v", *got.AvatarURL)
	}
}

func TestUserStoreListFilters(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db, query.Postgres)
	u := testUser(t, db)

	page, err := s.List(t.Context(), UserFilter{Search: u.Email, Role: models.RoleEditor}, 1, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Rows[0].ID != u.ID {
		t.Errorf("got %+v", page)
	}
}
