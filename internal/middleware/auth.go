// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"newsdesk/internal/auth"
	"newsdesk/internal/models"
	"newsdesk/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	sessionKey   contextKey = "session"
	sessionIDKey contextKey = "session_id"
)

// LoginPath is where browsers are sent when a page needs a session.
const LoginPath = "/admin/login"

// Authorizer checks a session id against the roles an operation allows.
// auth.Manager implements it.
type Authorizer interface {
	Authorize(ctx context.Context, sessionID string, allowed models.RoleSet) (*session.Data, error)
}

// LoadSession reads the session cookie and, if the session still exists,
// stores its id and data in the request context. It never rejects a
// request; an unknown or expired id is treated as anonymous.
func LoadSession(cookies session.Cookies, sessions session.Backend) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := cookies.ID(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			data, err := sessions.Get(r.Context(), id)
			switch {
			case errors.Is(err, session.ErrNotFound):
				next.ServeHTTP(w, r)
				return
			case err != nil:
				slog.Error("load session failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, id)
			ctx = context.WithValue(ctx, sessionKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only when its session is
// authenticated with a role in allowed. Browsers without a session are
// redirected to the login page; API clients get 401. A signed-in identity
// with the wrong role gets 403 either way.
func RequireRole(authz Authorizer, allowed models.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := authz.Authorize(r.Context(), SessionIDFromCtx(r.Context()), allowed)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrUnauthorized):
				if WantsHTML(r) {
					http.Redirect(w, r, LoginPath, http.StatusSeeOther)
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", "Please sign in.")
				return
			case errors.Is(err, auth.ErrForbidden):
				writeError(w, http.StatusForbidden, "forbidden", "You do not have permission to do that.")
				return
			default:
				slog.Error("authorize failed", "error", err)
				writeError(w, http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable.")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromCtx returns the session loaded for this request, or nil.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(sessionKey).(*session.Data)
	return data
}

// SessionIDFromCtx returns the id of the session loaded for this request,
// or "".
func SessionIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// WithSession returns ctx carrying id and data, as LoadSession would.
func WithSession(ctx context.Context, id string, data *session.Data) context.Context {
	ctx = context.WithValue(ctx, sessionIDKey, id)
	return context.WithValue(ctx, sessionKey, data)
}
