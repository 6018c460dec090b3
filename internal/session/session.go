// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed HTTP session management.
// Sessions are identified by a random id carried in a secure cookie and
// stored as JSON in Valkey with automatic TTL expiry. The id is never
// derived from any database key.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"newsdesk/internal/models"
)

const (
	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrNotFound is returned for unknown, expired or destroyed session ids.
var ErrNotFound = errors.New("session: not found")

// Data holds the session payload. An anonymous session (used to carry a
// CSRF token before login) has a zero UserID. The identity fields are a
// snapshot taken at login and refreshed by authorization.
type Data struct {
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email,omitempty"`
	Name      string      `json:"name,omitempty"`
	Role      models.Role `json:"role,omitempty"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	CSRFToken string      `json:"csrf_token,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Authenticated reports whether the session belongs to a logged-in identity.
func (d *Data) Authenticated() bool {
	return d != nil && d.UserID != uuid.Nil
}

// Backend is the session persistence contract shared by the Valkey store
// and the in-memory store.
type Backend interface {
	Create(ctx context.Context, data *Data) (string, error)
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, data *Data) error
	Regenerate(ctx context.Context, oldID string, data *Data) (string, error)
	Destroy(ctx context.Context, id string) error
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store backed by the given Valkey client.
// A non-positive ttl selects DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Create stores data under a fresh random id and returns the id.
func (s *Store) Create(ctx context.Context, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}
	return id, nil
}

// Get retrieves session data, or ErrNotFound when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &data, nil
}

// Save replaces the payload of an existing session, keeping its TTL. It
// never resurrects an expired session.
func (s *Store) Save(ctx context.Context, id string, data *Data) error {
	if id == "" {
		return ErrNotFound
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	err = s.client.SetArgs(ctx, keyPrefix+id, payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Regenerate stores data under a new id and deletes oldID in one
// MULTI/EXEC transaction, so the old id stops working the moment the new
// one exists.
func (s *Store) Regenerate(ctx context.Context, oldID string, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session regenerate: %w", err)
	}
	data.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+id, payload, s.ttl)
		if oldID != "" {
			pipe.Del(ctx, keyPrefix+oldID)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("session regenerate: %w", err)
	}
	return id, nil
}

// Destroy removes the session. Destroying an unknown id is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
