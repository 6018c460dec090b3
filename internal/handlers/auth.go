// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"newsdesk/internal/auth"
	"newsdesk/internal/csrf"
	"newsdesk/internal/metrics"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/session"
)

// Auth groups the sign-in, sign-out and second-factor handlers.
type Auth struct {
	manager *auth.Manager
	guard   *csrf.Guard
	cookies session.Cookies
	metrics *metrics.Metrics
}

// NewAuth creates the auth handler group. m may be nil.
func NewAuth(manager *auth.Manager, guard *csrf.Guard, cookies session.Cookies, m *metrics.Metrics) *Auth {
	return &Auth{manager: manager, guard: guard, cookies: cookies, metrics: m}
}

type csrfToken struct {
	Token string `json:"csrf_token"`
}

// CSRF returns the session's anti-forgery token, starting an anonymous
// session when the client has none.
func (a *Auth) CSRF(w http.ResponseWriter, r *http.Request) {
	prior := middleware.SessionIDFromCtx(r.Context())
	id, token, err := a.guard.Issue(r.Context(), prior)
	if err != nil {
		fail(w, r, err)
		return
	}
	if id != prior {
		a.cookies.Set(w, id)
	}
	w.Header().Set("Cache-Control", "no-store")
	ok(w, http.StatusOK, csrfToken{Token: token})
}

type loginResult struct {
	User      *session.Data `json:"user"`
	CSRFToken string        `json:"csrf_token"`
}

// Login checks credentials and replaces the current session with an
// authenticated one. The response carries the new session's CSRF token;
// the pre-login token no longer works.
//
// Unknown emails, wrong passwords, suspended accounts and accounts that
// may not use the console all get the same answer.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TOTPCode string `json:"totp_code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}

	id, data, err := a.manager.Login(r.Context(), middleware.SessionIDFromCtx(r.Context()), auth.Credentials{
		Email:    body.Email,
		Password: body.Password,
		TOTPCode: body.TOTPCode,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrTOTPRequired):
		a.metrics.Login("totp_required")
		writeErr(w, http.StatusUnauthorized, ErrorInfo{Code: "totp_required", Message: "Enter the code from your authenticator app."})
		return
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSuspended),
		errors.Is(err, auth.ErrRoleNotPermitted):
		a.metrics.Login(loginOutcome(err))
		slog.Info("login rejected", "reason", loginOutcome(err), "remote", r.RemoteAddr)
		writeErr(w, http.StatusUnauthorized, ErrorInfo{Code: "invalid_credentials", Message: "Invalid email or password."})
		return
	default:
		a.metrics.Login("error")
		fail(w, r, err)
		return
	}

	_, token, err := a.guard.Issue(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	a.cookies.Set(w, id)
	a.metrics.Login("success")
	slog.Info("login", "user_id", data.UserID, "role", data.Role)
	ok(w, http.StatusOK, loginResult{User: data, CSRFToken: token})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrSuspended):
		return "suspended"
	case errors.Is(err, auth.ErrRoleNotPermitted):
		return "role_not_permitted"
	default:
		return "invalid"
	}
}

// Logout destroys the session and clears the cookie.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if id := middleware.SessionIDFromCtx(r.Context()); id != "" {
		if err := a.manager.Logout(r.Context(), id); err != nil && !errors.Is(err, session.ErrNotFound) {
			fail(w, r, err)
			return
		}
	}
	a.cookies.Clear(w)
	noContent(w)
}

// Me returns the signed-in identity.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, middleware.SessionFromCtx(r.Context()))
}

// EnrollTOTP starts two-factor enrollment for the signed-in identity.
func (a *Auth) EnrollTOTP(w http.ResponseWriter, r *http.Request) {
	enrollment, err := a.manager.EnrollTOTP(r.Context(), middleware.SessionFromCtx(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	ok(w, http.StatusCreated, enrollment)
}

// ConfirmTOTP turns two-factor on once a valid code is supplied.
func (a *Auth) ConfirmTOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}

	err := a.manager.ConfirmTOTP(r.Context(), middleware.SessionFromCtx(r.Context()), body.Code)
	switch {
	case errors.Is(err, auth.ErrTOTPNotEnrolled):
		err = models.Invalid("code", "Start two-factor enrollment first.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		err = models.Invalid("code", "The code is not valid. Check your device clock and try again.")
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

// ChangePassword replaces the signed-in identity's password.
func (a *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}

	err := a.manager.ChangePassword(r.Context(), middleware.SessionFromCtx(r.Context()), body.Current, body.New)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		err = models.Invalid("current_password", "Current password is incorrect.")
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}
