// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"newsdesk/internal/query"
)

//go:embed seed.yaml
var seedYAML []byte

// Default development credentials.
const (
	SeedAdminEmail    = "admin@newsdesk.local"
	SeedAdminPassword = "admin"
)

// Taxonomy is the default category and tag set loaded by Seed.
type Taxonomy struct {
	Categories []SeedCategory `yaml:"categories"`
	Tags       []SeedTerm     `yaml:"tags"`
}

// SeedCategory is a category with its subcategories.
type SeedCategory struct {
	Name          string     `yaml:"name"`
	Slug          string     `yaml:"slug"`
	Description   string     `yaml:"description"`
	Subcategories []SeedTerm `yaml:"subcategories"`
}

// SeedTerm is a named, slugged taxonomy entry.
type SeedTerm struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// ParseTaxonomy decodes a taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	for _, c := range t.Categories {
		if c.Name == "" || c.Slug == "" {
			return nil, fmt.Errorf("parse taxonomy: category %q needs a name and slug", c.Name)
		}
	}
	return &t, nil
}

// Seed populates the database with initial development data: a default
// admin user when no users exist, and the embedded taxonomy when no
// categories exist. It is safe to call repeatedly.
func Seed(ctx context.Context, db *sql.DB, d query.Dialect) error {
	if err := seedAdmin(ctx, db, d); err != nil {
		return err
	}
	tax, err := ParseTaxonomy(seedYAML)
	if err != nil {
		return err
	}
	return seedTaxonomy(ctx, db, d, tax)
}

// placeholders renders n comma-separated bind markers.
func placeholders(d query.Dialect, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = d.Placeholder(i + 1)
	}
	return strings.Join(marks, ", ")
}

func seedAdmin(ctx context.Context, db *sql.DB, d query.Dialect) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	now := time.Now().UTC()
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, role, suspended, totp_enabled, created_at, updated_at) VALUES ("+placeholders(d, 9)+")",
		uuid.New(), "Admin", SeedAdminEmail, string(hash), "admin", false, false, now, now,
	)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", SeedAdminEmail,
		"password", SeedAdminPassword,
	)
	return nil
}

func seedTaxonomy(ctx context.Context, db *sql.DB, d query.Dialect, tax *Taxonomy) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		slog.Info("taxonomy already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i, c := range tax.Categories {
		catID := uuid.New()
		_, err := tx.ExecContext(ctx,
			"INSERT INTO categories (id, name, slug, description, sort_order, created_at, updated_at) VALUES ("+placeholders(d, 7)+")",
			catID, c.Name, c.Slug, c.Description, i, now, now,
		)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
		for _, sc := range c.Subcategories {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO subcategories (id, category_id, name, slug, created_at, updated_at) VALUES ("+placeholders(d, 6)+")",
				uuid.New(), catID, sc.Name, sc.Slug, now, now,
			)
			if err != nil {
				return fmt.Errorf("seed subcategory %s: %w", sc.Slug, err)
			}
		}
	}
	for _, t := range tax.Tags {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO tags (id, name, slug, created_at) VALUES ("+placeholders(d, 4)+")",
			uuid.New(), t.Name, t.Slug, now,
		)
		if err != nil {
			return fmt.Errorf("seed tag %s: %w", t.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	slog.Info("database seeded with default taxonomy",
		"categories", len(tax.Categories),
		"tags", len(tax.Tags),
	)
	return nil
}
