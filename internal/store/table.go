// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access for all newsdesk entities. Every
// entity store is built on a generic Table that turns query predicates into
// parameterized SQL for the configured dialect.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"newsdesk/internal/query"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Table is the generic repository for entity T. Reads select columns from
// from, which may join other tables under their own aliases; writes target
// name only.
type Table[T any] struct {
	db      *sql.DB
	q       querier
	dialect query.Dialect
	name    string
	from    string
	alias   string
	columns string
	id      query.Field[T]
	scan    func(scanner) (*T, error)
}

// tableDef describes how to read and write one entity.
type tableDef[T any] struct {
	name    string
	from    string
	alias   string
	columns string
	id      query.Field[T]
	scan    func(scanner) (*T, error)
}

func newTable[T any](db *sql.DB, d query.Dialect, def tableDef[T]) *Table[T] {
	from := def.from
	if from == "" {
		from = def.name + " " + def.alias
	}
	return &Table[T]{
		db:      db,
		q:       db,
		dialect: d,
		name:    def.name,
		from:    from,
		alias:   def.alias,
		columns: def.columns,
		id:      def.id,
		scan:    def.scan,
	}
}

// bind returns a copy of t whose statements run on q.
func (t *Table[T]) bind(q querier) *Table[T] {
	c := *t
	c.q = q
	return &c
}

// Find returns the row with the given id, or ErrNotFound.
func (t *Table[T]) Find(ctx context.Context, id uuid.UUID) (*T, error) {
	return t.FindOne(ctx, query.Where(query.Eq(t.id, id)))
}

// FindOne returns the first row matching pred, or ErrNotFound.
func (t *Table[T]) FindOne(ctx context.Context, pred query.Predicate[T]) (*T, error) {
	where, args := pred.SQL(t.dialect, t.alias)
	stmt := t.selectSQL(where, "", "LIMIT 1")
	row := t.q.QueryRowContext(ctx, stmt, args...)
	v, err := t.scan(row)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.name, classify(err))
	}
	return v, nil
}

// FindMany returns the rows matching pred in the given order. A limit of
// zero or less returns every matching row.
func (t *Table[T]) FindMany(ctx context.Context, pred query.Predicate[T], order []query.Order[T], limit, offset int) ([]T, error) {
	where, args := pred.SQL(t.dialect, t.alias)
	var page string
	if limit > 0 {
		n := len(args)
		page = "LIMIT " + t.dialect.Placeholder(n+1) + " OFFSET " + t.dialect.Placeholder(n+2)
		args = append(args, limit, offset)
	}
	stmt := t.selectSQL(where, query.OrderBy(t.alias, order...), page)

	rows, err := t.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, classify(err))
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		items = append(items, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, classify(err))
	}
	return items, nil
}

// Count returns the number of rows matching pred. It builds its WHERE
// clause exactly as FindMany does.
func (t *Table[T]) Count(ctx context.Context, pred query.Predicate[T]) (int, error) {
	where, args := pred.SQL(t.dialect, t.alias)
	stmt := "SELECT COUNT(*) FROM " + t.from
	if where != "" {
		stmt += " " + where
	}
	var n int
	if err := t.q.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, classify(err))
	}
	return n, nil
}

// Exists reports whether any row matches pred.
func (t *Table[T]) Exists(ctx context.Context, pred query.Predicate[T]) (bool, error) {
	n, err := t.Count(ctx, pred)
	return n > 0, err
}

// Paginate counts and fetches one page inside a single read-only
// REPEATABLE READ transaction, so total and rows come from one snapshot.
func (t *Table[T]) Paginate(ctx context.Context, pred query.Predicate[T], page, perPage int, order ...query.Order[T]) (*query.Page[T], error) {
	if page < 1 || perPage < 1 {
		return nil, query.ErrInvalidPage
	}
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("paginate %s: %w", t.name, classify(err))
	}
	defer tx.Rollback()

	p, err := query.Paginate[T](ctx, t.bind(tx), pred, page, perPage, order...)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("paginate %s: %w", t.name, classify(err))
	}
	return p, nil
}

// Create inserts set as a new row. When id is uuid.Nil a random one is
// generated. The id actually stored is returned.
func (t *Table[T]) Create(ctx context.Context, id uuid.UUID, set *query.Set[T]) (uuid.UUID, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	set.Assign(t.id, id)

	cols := set.Columns()
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = t.dialect.Placeholder(i + 1)
	}
	stmt := "INSERT INTO " + t.name + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"

	if _, err := t.q.ExecContext(ctx, stmt, set.Values()...); err != nil {
		return uuid.Nil, fmt.Errorf("create %s: %w", t.name, classify(err))
	}
	return id, nil
}

// Update applies the assignments in set to the row with the given id and
// leaves every other column untouched. An empty set only checks that the
// row exists.
func (t *Table[T]) Update(ctx context.Context, id uuid.UUID, set *query.Set[T]) error {
	if set.Len() == 0 {
		ok, err := t.Exists(ctx, query.Where(query.Eq(t.id, id)))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("update %s: %w", t.name, ErrNotFound)
		}
		return nil
	}

	assign, args := set.Assignments(t.dialect, 0)
	stmt := "UPDATE " + t.name + " SET " + assign + " WHERE " + t.id.Bare() + " = " + t.dialect.Placeholder(len(args)+1)
	args = append(append([]any(nil), args...), id)

	res, err := t.q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, classify(err))
	}
	return requireRow(res, "update "+t.name)
}

// Delete removes the row with the given id.
func (t *Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	stmt := "DELETE FROM " + t.name + " WHERE " + t.id.Bare() + " = " + t.dialect.Placeholder(1)
	res, err := t.q.ExecContext(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, classify(err))
	}
	return requireRow(res, "delete "+t.name)
}

// Increment adds one to the integer column f of the row with the given id
// and returns the new value. The addition happens in the database, so
// concurrent increments are never lost.
func (t *Table[T]) Increment(ctx context.Context, id uuid.UUID, f query.Field[T]) (int64, error) {
	col := f.Bare()
	idCol := t.id.Bare()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", t.name, classify(err))
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE "+t.name+" SET "+col+" = "+col+" + 1 WHERE "+idCol+" = "+t.dialect.Placeholder(1), id)
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", t.name, classify(err))
	}
	if err := requireRow(res, "increment "+t.name); err != nil {
		return 0, err
	}

	var n int64
	err = tx.QueryRowContext(ctx,
		"SELECT "+col+" FROM "+t.name+" WHERE "+idCol+" = "+t.dialect.Placeholder(1), id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", t.name, classify(err))
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("increment %s: %w", t.name, classify(err))
	}
	return n, nil
}

func (t *Table[T]) selectSQL(where, order, page string) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(t.columns)
	sb.WriteString(" FROM ")
	sb.WriteString(t.from)
	for _, part := range []string{where, order, page} {
		if part != "" {
			sb.WriteString(" ")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// inTx runs fn inside a transaction, committing when it returns nil.
func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return classify(tx.Commit())
}
