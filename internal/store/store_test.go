// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"newsdesk/internal/database"
	"newsdesk/internal/models"
	"newsdesk/internal/query"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "newsdesk")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "newsdesk")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db, query.Postgres); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser inserts a throwaway editor and removes it when the test ends.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	s := NewUserStore(db, query.Postgres)
	u := &models.User{
		Name:  "Test Editor",
		Email: "editor-" + uuid.NewString()[:8] + "@test.local",
		Role:  models.RoleEditor,
	}
	id, err := s.Create(t.Context(), u, "secret-password")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	u.ID = id
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", id) })
	return u
}

// cleanContent removes test content by id. Call in t.Cleanup().
func cleanContent(db *sql.DB, ids ...uuid.UUID) {
	for _, id := range ids {
		db.Exec("DELETE FROM content WHERE id = $1", id)
	}
}

// cleanCategories removes test categories by slug. Call in t.Cleanup().
func cleanCategories(db *sql.DB, slugs ...string) {
	for _, slug := range slugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	}
}
