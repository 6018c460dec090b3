// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package query builds parameterized WHERE, ORDER BY, and SET clauses for
// the store package and paginates result sets. Values are always bound as
// parameters; only column identifiers declared up front as Field values
// ever appear in the generated SQL text.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax and operator spelling.
type Dialect int

const (
	// Postgres uses $1, $2, ... placeholders and ILIKE.
	Postgres Dialect = iota
	// MySQL uses ? placeholders and relies on case-insensitive collations.
	MySQL
)

// String returns the dialect name as goose and database/sql expect it.
func (d Dialect) String() string {
	if d == MySQL {
		return "mysql"
	}
	return "postgres"
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == MySQL {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

func (d Dialect) likeOperator() string {
	if d == MySQL {
		return "LIKE"
	}
	return "ILIKE"
}

// identifier matches a column name, optionally qualified by a table alias.
var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// Field is a column of entity T. Fields are declared once per entity by
// the store package; a Field of one entity cannot be used in a predicate
// for another.
type Field[T any] struct {
	name string
}

// NewField declares a column of T. It panics on anything that is not a
// plain (optionally alias-qualified) identifier, so it must only be called
// with constants.
func NewField[T any](name string) Field[T] {
	if !identifier.MatchString(name) {
		panic(fmt.Sprintf("query: invalid field name %q", name))
	}
	return Field[T]{name: name}
}

// Name returns the field name as declared.
func (f Field[T]) Name() string {
	return f.name
}

// column returns the field qualified with alias unless it already
// carries its own qualifier.
func (f Field[T]) column(alias string) string {
	if alias == "" || strings.Contains(f.name, ".") {
		return f.name
	}
	return alias + "." + f.name
}

// Bare returns the unqualified column name, as used in INSERT and UPDATE.
func (f Field[T]) Bare() string {
	if i := strings.LastIndexByte(f.name, '.'); i >= 0 {
		return f.name[i+1:]
	}
	return f.name
}

// Relation describes a many-to-many join table linking T to another
// entity, e.g. content_categories(content_id, category_id).
type Relation[T any] struct {
	local Field[T]
	table string
	key   string
	other string
}

// NewRelation declares that local matches table.key, and table.other
// holds the related entity's identifier.
func NewRelation[T any](local Field[T], table, key, other string) Relation[T] {
	for _, name := range []string{table, key, other} {
		if !identifier.MatchString(name) || strings.Contains(name, ".") {
			panic(fmt.Sprintf("query: invalid relation identifier %q", name))
		}
	}
	return Relation[T]{local: local, table: table, key: key, other: other}
}

// Order is one ORDER BY term.
type Order[T any] struct {
	field Field[T]
	desc  bool
}

// Asc orders by f ascending.
func Asc[T any](f Field[T]) Order[T] { return Order[T]{field: f} }

// Desc orders by f descending.
func Desc[T any](f Field[T]) Order[T] { return Order[T]{field: f, desc: true} }

// OrderBy renders an ORDER BY clause, or "" when no terms are given.
func OrderBy[T any](alias string, orders ...Order[T]) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		dir := "ASC"
		if o.desc {
			dir = "DESC"
		}
		parts[i] = o.field.column(alias) + " " + dir
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// Set is an ordered list of column assignments for INSERT and UPDATE.
// Assigning the same field twice keeps the last value.
type Set[T any] struct {
	columns []string
	values  []any
}

// Assign records f = v and returns s for chaining.
func (s *Set[T]) Assign(f Field[T], v any) *Set[T] {
	col := f.Bare()
	for i, c := range s.columns {
		if c == col {
			s.values[i] = v
			return s
		}
	}
	s.columns = append(s.columns, col)
	s.values = append(s.values, v)
	return s
}

// Has reports whether f has been assigned.
func (s *Set[T]) Has(f Field[T]) bool {
	col := f.Bare()
	for _, c := range s.columns {
		if c == col {
			return true
		}
	}
	return false
}

// Len returns the number of assignments.
func (s *Set[T]) Len() int { return len(s.columns) }

// Columns returns the assigned column names in assignment order.
func (s *Set[T]) Columns() []string { return s.columns }

// Values returns the assigned values in assignment order.
func (s *Set[T]) Values() []any { return s.values }

// Assignments renders "a = $1, b = $2" starting at placeholder index
// start+1, together with the bound values.
func (s *Set[T]) Assignments(d Dialect, start int) (string, []any) {
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		parts[i] = c + " = " + d.Placeholder(start+i+1)
	}
	return strings.Join(parts, ", "), s.values
}
