// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process Backend for tests and single-instance
// development. Sessions do not expire.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]Data
}

// NewMemory returns an empty in-memory session backend.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]Data)}
}

// Create stores data under a fresh random id.
func (m *Memory) Create(_ context.Context, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = *data
	return id, nil
}

// Get returns a copy of the session, or ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (*Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

// Save replaces an existing session's payload.
func (m *Memory) Save(_ context.Context, id string, data *Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	m.sessions[id] = *data
	return nil
}

// Regenerate moves data to a new id and forgets oldID.
func (m *Memory) Regenerate(_ context.Context, oldID string, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session regenerate: %w", err)
	}
	data.CreatedAt = time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, oldID)
	m.sessions[id] = *data
	return id, nil
}

// Destroy forgets the session.
func (m *Memory) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
