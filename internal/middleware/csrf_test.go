// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"newsdesk/internal/csrf"
	"newsdesk/internal/session"
)

func TestVerifyCSRF(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemory()
	guard := csrf.New(sessions)
	id, token, err := guard.Issue(ctx, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	otherID, _, _ := guard.Issue(ctx, "")

	tests := []struct {
		name       string
		method     string
		sessionID  string
		header     string
		form       string
		wantStatus int
	}{
		{"GET skips check", http.MethodGet, "", "", "", http.StatusOK},
		{"HEAD skips check", http.MethodHead, "", "", "", http.StatusOK},
		{"header token", http.MethodPost, id, token, "", http.StatusOK},
		{"form token", http.MethodPost, id, "", token, http.StatusOK},
		{"DELETE with header", http.MethodDelete, id, token, "", http.StatusOK},
		{"missing token", http.MethodPost, id, "", "", http.StatusForbidden},
		{"wrong token", http.MethodPut, id, strings.Repeat("0", 64), "", http.StatusForbidden},
		{"token of another session", http.MethodPost, otherID, token, "", http.StatusForbidden},
		{"no session", http.MethodPatch, "", token, "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called, _ := okHandler()
			handler := VerifyCSRF(guard)(next)

			var req *http.Request
			if tt.form != "" {
				body := url.Values{csrf.FormField: {tt.form}}.Encode()
				req = httptest.NewRequest(tt.method, "/api/admin/posts", strings.NewReader(body))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest(tt.method, "/api/admin/posts", nil)
			}
			if tt.header != "" {
				req.Header.Set(csrf.HeaderName, tt.header)
			}
			req = req.WithContext(WithSession(req.Context(), tt.sessionID, nil))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if *called {
					t.Error("handler ran despite CSRF failure")
				}
				if body := decodeError(t, rr); body.Error.Code != "csrf" {
					t.Errorf("code = %q", body.Error.Code)
				}
			}
		})
	}
}

// Missing and mismatched tokens must be indistinguishable.
func TestVerifyCSRF_UniformFailure(t *testing.T) {
	ctx := context.Background()
	guard := csrf.New(session.NewMemory())
	id, _, _ := guard.Issue(ctx, "")
	next, _, _ := okHandler()
	handler := VerifyCSRF(guard)(next)

	send := func(token string) string {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if token != "" {
			req.Header.Set(csrf.HeaderName, token)
		}
		req = req.WithContext(WithSession(req.Context(), id, nil))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Body.String()
	}

	if missing, wrong := send(""), send("nope"); missing != wrong {
		t.Errorf("responses differ:\n%s\n%s", missing, wrong)
	}
}
