// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"newsdesk/internal/csrf"
)

// TokenVerifier checks a submitted CSRF token against a session.
// csrf.Guard implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, sessionID, submitted string) error
}

// VerifyCSRF rejects state-changing requests (anything but GET, HEAD and
// OPTIONS) whose token does not match the session's. The token is read
// from the X-CSRF-Token header, falling back to the csrf_token form field.
// Missing and wrong tokens get the same response.
func VerifyCSRF(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			submitted := r.Header.Get(csrf.HeaderName)
			if submitted == "" {
				submitted = r.FormValue(csrf.FormField)
			}

			if err := v.Verify(r.Context(), SessionIDFromCtx(r.Context()), submitted); err != nil {
				writeError(w, http.StatusForbidden, "csrf", "Invalid or missing security token. Reload the page and try again.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
