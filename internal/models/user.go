// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an identity's permission level. Roles are ordered by
// privilege: admin > editor > reader.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleReader Role = "reader"
)

// rank orders roles by privilege. Unknown roles rank below every known one.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleReader:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// AtLeast reports whether r is at least as privileged as min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.rank() >= min.rank()
}

// ParseRole converts a form value into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// RoleSet is the closed set of roles allowed to perform an operation.
type RoleSet []Role

var (
	// StaffRoles may use the editorial console.
	StaffRoles = RoleSet{RoleAdmin, RoleEditor}
	// AdminOnly guards identity management.
	AdminOnly = RoleSet{RoleAdmin}
	// AnyRole accepts every authenticated identity (e.g. commenting).
	AnyRole = RoleSet{RoleAdmin, RoleEditor, RoleReader}
)

// Allows reports whether r is a member of the set.
func (s RoleSet) Allows(r Role) bool {
	if !r.Valid() {
		return false
	}
	for _, allowed := range s {
		if allowed == r {
			return true
		}
	}
	return false
}

// User represents an identity that can sign in to the portal.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	Role         Role      `json:"role"`
	Suspended    bool      `json:"suspended"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA enrollment
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff returns true if the user may enter the editorial console.
func (u *User) IsStaff() bool {
	return StaffRoles.Allows(u.Role)
}

// UserPatch lists the identity fields an update may change. Nil fields
// are left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *Role
	Suspended    *bool
	AvatarURL    **string
	TOTPSecret   **string
	TOTPEnabled  *bool
}
