// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth authenticates staff identities, binds them to sessions and
// enforces role checks and self-lockout rules on identity administration.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"newsdesk/internal/assets"
	"newsdesk/internal/models"
	"newsdesk/internal/query"
	"newsdesk/internal/session"
	"newsdesk/internal/store"
)

var (
	// ErrUnauthorized means there is no authenticated session.
	ErrUnauthorized = errors.New("auth: not authenticated")

	// ErrForbidden means the session's role is not allowed to act.
	ErrForbidden = errors.New("auth: forbidden")

	// ErrInvalidCredentials is the single rejection for unknown emails,
	// wrong passwords and wrong second-factor codes.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrSuspended rejects a correct login for a suspended identity.
	ErrSuspended = errors.New("auth: account suspended")

	// ErrRoleNotPermitted rejects a correct login for a reader.
	ErrRoleNotPermitted = errors.New("auth: account may not sign in to the console")

	// ErrTOTPRequired asks the client to resubmit with a TOTP code.
	ErrTOTPRequired = errors.New("auth: authentication code required")

	// ErrTOTPNotEnrolled is returned when confirming without enrolling first.
	ErrTOTPNotEnrolled = errors.New("auth: two-factor enrollment not started")

	// ErrSelfLockout refuses to delete, suspend or demote the acting admin.
	ErrSelfLockout = errors.New("auth: cannot lock yourself out")
)

const minPasswordLen = 8

// Users is the identity storage the manager needs.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Find(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, f store.UserFilter, page, perPage int) (*query.Page[models.User], error)
	Create(ctx context.Context, u *models.User, password string) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, p models.UserPatch) error
	SetPassword(ctx context.Context, id uuid.UUID, password string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Assets is the part of the asset manager used for avatars.
type Assets interface {
	Replace(ctx context.Context, oldRef string, up assets.Upload, namespace string, commit func(ref string) error) (string, error)
	DeleteIfOwned(ctx context.Context, ref string) (bool, error)
}

// Credentials is one login attempt.
type Credentials struct {
	Email    string
	Password string
	TOTPCode string
}

// Manager is the session and identity manager.
type Manager struct {
	users    Users
	sessions session.Backend
	media    Assets
	issuer   string
}

// NewManager wires the identity store, session backend and asset manager.
func NewManager(users Users, sessions session.Backend, media Assets) *Manager {
	return &Manager{users: users, sessions: sessions, media: media, issuer: "Newsdesk"}
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// compareDummy spends the same bcrypt work as a real check so response
// timing does not reveal whether an email exists.
func compareDummy(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("newsdesk-timing-equaliser"), bcrypt.DefaultCost)
	})
	bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Login checks credentials and, on success, replaces priorSessionID with a
// new authenticated session. The new session starts without a CSRF token,
// so the pre-login token stops working. Rejected attempts leave the prior
// session as it was.
func (m *Manager) Login(ctx context.Context, priorSessionID string, c Credentials) (string, *session.Data, error) {
	user, err := m.users.FindByEmail(ctx, c.Email)
	if errors.Is(err, store.ErrNotFound) {
		compareDummy(c.Password)
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if !checkPassword(user, c.Password) {
		return "", nil, ErrInvalidCredentials
	}

	if user.Suspended {
		return "", nil, ErrSuspended
	}
	if !models.StaffRoles.Allows(user.Role) {
		return "", nil, ErrRoleNotPermitted
	}
	if user.TOTPEnabled && user.TOTPSecret != nil {
		if strings.TrimSpace(c.TOTPCode) == "" {
			return "", nil, ErrTOTPRequired
		}
		if !validateTOTP(c.TOTPCode, *user.TOTPSecret) {
			return "", nil, ErrInvalidCredentials
		}
	}

	data := snapshot(user)
	id, err := m.sessions.Regenerate(ctx, priorSessionID, data)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	return id, data, nil
}

// Logout destroys the session.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	return m.sessions.Destroy(ctx, sessionID)
}

// Current returns the session behind sessionID, authenticated or not.
func (m *Manager) Current(ctx context.Context, sessionID string) (*session.Data, error) {
	data, err := m.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	return data, err
}

// Authorize returns the session if it is authenticated and its role is in
// allowed. The identity is re-read on every call: a deleted or suspended
// identity loses its session, and a role change applies immediately.
func (m *Manager) Authorize(ctx context.Context, sessionID string, allowed models.RoleSet) (*session.Data, error) {
	data, err := m.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !data.Authenticated() {
		return nil, ErrUnauthorized
	}
	if data, err = m.refresh(ctx, sessionID, data); err != nil {
		return nil, err
	}
	if !allowed.Allows(data.Role) {
		return nil, ErrForbidden
	}
	return data, nil
}

// refresh reconciles a session snapshot with the stored identity.
func (m *Manager) refresh(ctx context.Context, sessionID string, data *session.Data) (*session.Data, error) {
	user, err := m.users.Find(ctx, data.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err != nil || user.Suspended {
		if err := m.sessions.Destroy(ctx, sessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.Warn("destroy revoked session failed", "user_id", data.UserID, "error", err)
		}
		return nil, ErrUnauthorized
	}

	fresh := snapshot(user)
	if fresh.Role == data.Role && fresh.Name == data.Name && fresh.Email == data.Email && fresh.AvatarURL == data.AvatarURL {
		return data, nil
	}
	data.Role, data.Name, data.Email, data.AvatarURL = fresh.Role, fresh.Name, fresh.Email, fresh.AvatarURL
	if err := m.sessions.Save(ctx, sessionID, data); err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	return data, nil
}

// checkPassword verifies a plaintext password against the user's stored hash.
func checkPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// snapshot copies the identity fields a session carries.
func snapshot(u *models.User) *session.Data {
	d := &session.Data{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
	}
	if u.AvatarURL != nil {
		d.AvatarURL = *u.AvatarURL
	}
	return d
}
