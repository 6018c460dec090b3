// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package preview signs and verifies expiring links that let someone
// without a console account read one draft item.
package preview

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"newsdesk/internal/models"
)

const issuer = "newsdesk-preview"

var (
	ErrInvalidToken = errors.New("preview: invalid token")
	ErrExpiredToken = errors.New("preview: token expired")
)

// Claims identifies the previewed item.
type Claims struct {
	jwt.RegisteredClaims
	Kind models.ContentKind `json:"kind"`
}

// Signer issues HMAC-signed preview tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer; tokens expire after ttl.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for one content item and its expiry time.
func (s *Signer) Sign(kind models.ContentKind, id uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: kind,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Verify checks the signature and expiry and returns the item it names.
func (s *Signer) Verify(tokenString string) (models.ContentKind, uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", uuid.Nil, ErrExpiredToken
		}
		return "", uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", uuid.Nil, ErrInvalidToken
	}
	if _, ok := models.ParseKind(string(claims.Kind)); !ok {
		return "", uuid.Nil, ErrInvalidToken
	}
	return claims.Kind, id, nil
}
