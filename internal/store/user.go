// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"newsdesk/internal/models"
	"newsdesk/internal/query"
)

var (
	userID           = query.NewField[models.User]("id")
	userName         = query.NewField[models.User]("name")
	userEmail        = query.NewField[models.User]("email")
	userPasswordHash = query.NewField[models.User]("password_hash")
	userRole         = query.NewField[models.User]("role")
	userSuspended    = query.NewField[models.User]("suspended")
	userAvatarURL    = query.NewField[models.User]("avatar_url")
	userTOTPSecret   = query.NewField[models.User]("totp_secret")
	userTOTPEnabled  = query.NewField[models.User]("totp_enabled")
	userCreatedAt    = query.NewField[models.User]("created_at")
	userUpdatedAt    = query.NewField[models.User]("updated_at")
)

const userColumns = `usr.id, usr.name, usr.email, usr.password_hash, usr.role, usr.suspended,
	usr.avatar_url, usr.totp_secret, usr.totp_enabled, usr.created_at, usr.updated_at`

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	err := s.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Suspended,
		&u.AvatarURL, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserFilter narrows identity listings.
type UserFilter struct {
	Search    string // name or email contains
	Role      models.Role
	Suspended *bool
}

func (f UserFilter) predicate() query.Predicate[models.User] {
	var conds []query.Cond[models.User]
	if f.Search != "" {
		conds = append(conds, query.Or(query.Like(userName, f.Search), query.Like(userEmail, f.Search)))
	}
	if f.Role != "" {
		conds = append(conds, query.Eq(userRole, string(f.Role)))
	}
	if f.Suspended != nil {
		conds = append(conds, query.Eq(userSuspended, *f.Suspended))
	}
	return query.Where(conds...)
}

// UserStore handles all user-related database operations.
type UserStore struct {
	table *Table[models.User]
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB, d query.Dialect) *UserStore {
	return &UserStore{
		table: newTable(db, d, tableDef[models.User]{
			name:    "users",
			alias:   "usr",
			columns: userColumns,
			id:      userID,
			scan:    scanUser,
		}),
	}
}

// normalizeEmail lowercases and trims an address so lookups match inserts.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail retrieves a user by email address, or ErrNotFound.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.table.FindOne(ctx, query.Where(query.Eq(userEmail, normalizeEmail(email))))
}

// Find retrieves a user by UUID, or ErrNotFound.
func (s *UserStore) Find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.table.Find(ctx, id)
}

// List returns one page of users, oldest first.
func (s *UserStore) List(ctx context.Context, f UserFilter, page, perPage int) (*query.Page[models.User], error) {
	return s.table.Paginate(ctx, f.predicate(), page, perPage, query.Asc(userCreatedAt), query.Asc(userID))
}

// ReferencesAsset reports whether any user has ref as their avatar.
func (s *UserStore) ReferencesAsset(ctx context.Context, ref string) (bool, error) {
	return s.table.Exists(ctx, query.Where(query.Eq(userAvatarURL, ref)))
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, u *models.User, password string) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	set := new(query.Set[models.User]).
		Assign(userName, u.Name).
		Assign(userEmail, normalizeEmail(u.Email)).
		Assign(userPasswordHash, string(hash)).
		Assign(userRole, string(u.Role)).
		Assign(userSuspended, u.Suspended).
		Assign(userAvatarURL, nullable(u.AvatarURL)).
		Assign(userTOTPEnabled, false).
		Assign(userCreatedAt, now).
		Assign(userUpdatedAt, now)
	return s.table.Create(ctx, u.ID, set)
}

// Update applies the non-nil fields of p.
func (s *UserStore) Update(ctx context.Context, id uuid.UUID, p models.UserPatch) error {
	set := new(query.Set[models.User])
	if p.Name != nil {
		set.Assign(userName, *p.Name)
	}
	if p.Email != nil {
		set.Assign(userEmail, normalizeEmail(*p.Email))
	}
	if p.PasswordHash != nil {
		set.Assign(userPasswordHash, *p.PasswordHash)
	}
	if p.Role != nil {
		set.Assign(userRole, string(*p.Role))
	}
	if p.Suspended != nil {
		set.Assign(userSuspended, *p.Suspended)
	}
	if p.AvatarURL != nil {
		set.Assign(userAvatarURL, nullable(*p.AvatarURL))
	}
	if p.TOTPSecret != nil {
		set.Assign(userTOTPSecret, nullable(*p.TOTPSecret))
	}
	if p.TOTPEnabled != nil {
		set.Assign(userTOTPEnabled, *p.TOTPEnabled)
	}
	if set.Len() > 0 {
		set.Assign(userUpdatedAt, time.Now().UTC())
	}
	return s.table.Update(ctx, id, set)
}

// SetPassword replaces the user's password hash.
func (s *UserStore) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	h := string(hash)
	return s.Update(ctx, id, models.UserPatch{PasswordHash: &h})
}

// Delete removes a user by ID. Authored content keeps existing with no author.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.table.Delete(ctx, id)
}
