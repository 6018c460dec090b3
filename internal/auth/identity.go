// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsdesk/internal/assets"
	"newsdesk/internal/models"
	"newsdesk/internal/query"
	"newsdesk/internal/session"
	"newsdesk/internal/store"
)

const avatarNamespace = "avatars"

// NewIdentity is the input for creating an identity.
type NewIdentity struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

func (in *NewIdentity) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateProfile(in.Name, in.Email); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return models.Invalid("password", fmt.Sprintf("Password must be at least %d characters.", minPasswordLen))
	}
	if !in.Role.Valid() {
		return models.Invalid("role", "Role must be admin, editor or reader.")
	}
	return nil
}

func validateProfile(name, email string) error {
	if name == "" {
		return models.Invalid("name", "Name is required.")
	}
	if utf8.RuneCountInString(name) > 200 {
		return models.Invalid("name", "Name is too long (max 200 characters).")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return models.Invalid("email", "A valid email address is required.")
	}
	return nil
}

// CreateIdentity adds a new identity. A taken email surfaces as
// store.ErrDuplicateKey.
func (m *Manager) CreateIdentity(ctx context.Context, in NewIdentity) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	id, err := m.users.Create(ctx, &models.User{Name: in.Name, Email: in.Email, Role: in.Role}, in.Password)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return m.users.Find(ctx, id)
}

// ListIdentities returns one page of identities.
func (m *Manager) ListIdentities(ctx context.Context, f store.UserFilter, page, perPage int) (*query.Page[models.User], error) {
	return m.users.List(ctx, f, page, perPage)
}

// Identity returns one identity.
func (m *Manager) Identity(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.users.Find(ctx, id)
}

// IdentityChange lists the administrable fields of an identity. Nil
// fields are left untouched.
type IdentityChange struct {
	Name      *string
	Email     *string
	Role      *models.Role
	Suspended *bool
}

// UpdateIdentity validates change against target's current record and
// applies it in one write. An admin cannot demote or suspend themself;
// such a request fails before anything is written.
func (m *Manager) UpdateIdentity(ctx context.Context, actor *session.Data, target uuid.UUID, change IdentityChange) (*models.User, error) {
	if change.Role != nil {
		if !change.Role.Valid() {
			return nil, models.Invalid("role", "Role must be admin, editor or reader.")
		}
		if actor.UserID == target && *change.Role != models.RoleAdmin {
			return nil, ErrSelfLockout
		}
	}
	if change.Suspended != nil && *change.Suspended && actor.UserID == target {
		return nil, ErrSelfLockout
	}

	current, err := m.users.Find(ctx, target)
	if err != nil {
		return nil, err
	}

	patch := models.UserPatch{Role: change.Role, Suspended: change.Suspended}
	if change.Name != nil || change.Email != nil {
		name, email := current.Name, current.Email
		if change.Name != nil {
			name = strings.TrimSpace(*change.Name)
		}
		if change.Email != nil {
			email = strings.TrimSpace(*change.Email)
		}
		if err := validateProfile(name, email); err != nil {
			return nil, err
		}
		patch.Name, patch.Email = &name, &email
	}

	if err := m.users.Update(ctx, target, patch); err != nil {
		return nil, err
	}
	return m.users.Find(ctx, target)
}

// ChangePassword replaces the actor's own password after checking the
// current one.
func (m *Manager) ChangePassword(ctx context.Context, actor *session.Data, current, next string) error {
	user, err := m.users.Find(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !checkPassword(user, current) {
		return ErrInvalidCredentials
	}
	if utf8.RuneCountInString(next) < minPasswordLen {
		return models.Invalid("password", fmt.Sprintf("Password must be at least %d characters.", minPasswordLen))
	}
	return m.users.SetPassword(ctx, actor.UserID, next)
}

// DeleteIdentity removes target and then its uploaded avatar. An admin
// cannot delete themself.
func (m *Manager) DeleteIdentity(ctx context.Context, actor *session.Data, target uuid.UUID) error {
	if actor.UserID == target {
		return ErrSelfLockout
	}
	user, err := m.users.Find(ctx, target)
	if err != nil {
		return err
	}
	if err := m.users.Delete(ctx, target); err != nil {
		return err
	}
	if user.AvatarURL != nil {
		if _, err := m.media.DeleteIfOwned(ctx, *user.AvatarURL); err != nil {
			slog.Warn("delete avatar failed", "user_id", target, "error", err)
		}
	}
	return nil
}

// SetAvatar stores up as target's avatar. Identities may change their own
// avatar; admins may change anyone's.
func (m *Manager) SetAvatar(ctx context.Context, actor *session.Data, target uuid.UUID, up assets.Upload) (string, error) {
	if actor.UserID != target && actor.Role != models.RoleAdmin {
		return "", ErrForbidden
	}
	user, err := m.users.Find(ctx, target)
	if err != nil {
		return "", err
	}

	var old string
	if user.AvatarURL != nil {
		old = *user.AvatarURL
	}
	return m.media.Replace(ctx, old, up, avatarNamespace, func(ref string) error {
		avatar := &ref
		return m.users.Update(ctx, target, models.UserPatch{AvatarURL: &avatar})
	})
}
