// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"newsdesk/internal/models"
)

func TestSignVerify(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	id := uuid.New()

	token, exp, err := s.Sign(models.KindVideo, id)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if d := time.Until(exp); d <= 59*time.Minute || d > time.Hour {
		t.Errorf("expiry in %v", d)
	}

	kind, got, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if kind != models.KindVideo || got != id {
		t.Errorf("got (%s, %s), want (video, %s)", kind, got, id)
	}
}

func TestVerify_Expired(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, _ := s.Sign(models.KindPost, uuid.New())

	s.now = time.Now
	if _, _, err := s.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestVerify_Invalid(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	good, _, _ := s.Sign(models.KindPost, uuid.New())
	other, _, _ := NewSigner("other", time.Hour).Sign(models.KindPost, uuid.New())

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Kind: models.KindPost,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	badKind, _, _ := s.Sign("podcast", uuid.New())

	// Good signature over someone else's claims.
	parts := strings.Split(good, ".")
	parts[1] = strings.Split(other, ".")[1]
	tampered := strings.Join(parts, ".")

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": other,
		"tampered":     tampered,
		"alg none":     none,
		"unknown kind": badKind,
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := s.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
