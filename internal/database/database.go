// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package database handles connection management and migration execution
// using goose. PostgreSQL (via pgx) and MySQL are supported; each has its
// own embedded migration set.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"newsdesk/internal/query"
)

//go:embed migrations
var embedMigrations embed.FS

// ParseDialect maps a DB_DRIVER value onto a query dialect.
func ParseDialect(driver string) (query.Dialect, error) {
	switch driver {
	case "", "postgres", "pgx":
		return query.Postgres, nil
	case "mysql":
		return query.MySQL, nil
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// driverName returns the database/sql driver registered for d.
func driverName(d query.Dialect) string {
	if d == query.MySQL {
		return "mysql"
	}
	return "pgx"
}

// Connect opens a connection pool for the given dialect and DSN.
// It verifies the connection with a ping before returning.
func Connect(d query.Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	slog.Info("database connected", "driver", d.String())
	return db, nil
}

// Migrate runs all pending goose migrations for the dialect from the
// embedded SQL files.
func Migrate(db *sql.DB, d query.Dialect) error {
	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(d.String()); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations/"+d.String()); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	slog.Info("database migrations applied", "driver", d.String())
	return nil
}
