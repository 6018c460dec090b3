// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package csrf issues and verifies session-scoped anti-forgery tokens.
// A token lives inside the session payload and is reused across every form
// rendered during that session; it changes only when the session itself is
// replaced (login, logout).
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"newsdesk/internal/session"
)

const (
	// tokenLength is the byte length of CSRF tokens (32 bytes = 64 hex chars).
	tokenLength = 32

	// HeaderName is the header API clients send the token in.
	HeaderName = "X-CSRF-Token"

	// FormField is the hidden form field name for HTML forms.
	FormField = "csrf_token"
)

// ErrMismatch is returned for a missing, unknown or wrong token. Callers
// cannot tell those cases apart.
var ErrMismatch = errors.New("csrf: token mismatch")

// Guard reads and writes tokens through the session backend.
type Guard struct {
	sessions session.Backend
}

// New creates a guard over the given session backend.
func New(sessions session.Backend) *Guard {
	return &Guard{sessions: sessions}
}

// Issue returns the token for sessionID, generating one when the session
// has none. When sessionID is empty or no longer exists, an anonymous
// session is created; the returned id is the one the client must carry.
func (g *Guard) Issue(ctx context.Context, sessionID string) (id, token string, err error) {
	data, err := g.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		token, err = generateToken()
		if err != nil {
			return "", "", fmt.Errorf("csrf issue: %w", err)
		}
		id, err = g.sessions.Create(ctx, &session.Data{CSRFToken: token})
		if err != nil {
			return "", "", fmt.Errorf("csrf issue: %w", err)
		}
		return id, token, nil
	}
	if err != nil {
		return "", "", fmt.Errorf("csrf issue: %w", err)
	}

	if data.CSRFToken != "" {
		return sessionID, data.CSRFToken, nil
	}

	data.CSRFToken, err = generateToken()
	if err != nil {
		return "", "", fmt.Errorf("csrf issue: %w", err)
	}
	if err := g.sessions.Save(ctx, sessionID, data); err != nil {
		return "", "", fmt.Errorf("csrf issue: %w", err)
	}
	return sessionID, data.CSRFToken, nil
}

// Verify compares submitted against the session's token in constant time.
// Any failure, including an unreachable session store, yields ErrMismatch
// so no request proceeds to a mutation.
func (g *Guard) Verify(ctx context.Context, sessionID, submitted string) error {
	if sessionID == "" || submitted == "" {
		return ErrMismatch
	}
	data, err := g.sessions.Get(ctx, sessionID)
	if err != nil || data.CSRFToken == "" {
		return ErrMismatch
	}
	if subtle.ConstantTimeCompare([]byte(data.CSRFToken), []byte(submitted)) != 1 {
		return ErrMismatch
	}
	return nil
}

// generateToken creates a cryptographically random token.
func generateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
