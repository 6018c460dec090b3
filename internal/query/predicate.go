// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package query

import (
	"strings"
)

// builder accumulates SQL text and the values bound to its placeholders.
type builder struct {
	dialect Dialect
	alias   string
	sb      strings.Builder
	args    []any
}

// bind appends v to the argument list and returns its placeholder.
func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Cond is a single boolean condition over entity T.
type Cond[T any] struct {
	render func(b *builder)
}

func compare[T any](f Field[T], op string, v any) Cond[T] {
	return Cond[T]{render: func(b *builder) {
		b.sb.WriteString(f.column(b.alias))
		b.sb.WriteString(" " + op + " ")
		b.sb.WriteString(b.bind(v))
	}}
}

// Eq matches rows where f equals v.
func Eq[T any](f Field[T], v any) Cond[T] { return compare(f, "=", v) }

// Ne matches rows where f differs from v.
func Ne[T any](f Field[T], v any) Cond[T] { return compare(f, "<>", v) }

// Gte matches rows where f >= v.
func Gte[T any](f Field[T], v any) Cond[T] { return compare(f, ">=", v) }

// Lte matches rows where f <= v.
func Lte[T any](f Field[T], v any) Cond[T] { return compare(f, "<=", v) }

// Between matches rows where lo <= f <= hi.
func Between[T any](f Field[T], lo, hi any) Cond[T] {
	return And(Gte(f, lo), Lte(f, hi))
}

// IsNull matches rows where f is NULL.
func IsNull[T any](f Field[T]) Cond[T] {
	return Cond[T]{render: func(b *builder) {
		b.sb.WriteString(f.column(b.alias) + " IS NULL")
	}}
}

// NotNull matches rows where f is not NULL.
func NotNull[T any](f Field[T]) Cond[T] {
	return Cond[T]{render: func(b *builder) {
		b.sb.WriteString(f.column(b.alias) + " IS NOT NULL")
	}}
}

// likeEscaper escapes the LIKE wildcards so the term matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Like matches rows where f contains substr, ignoring case.
func Like[T any](f Field[T], substr string) Cond[T] {
	return Cond[T]{render: func(b *builder) {
		b.sb.WriteString(f.column(b.alias))
		b.sb.WriteString(" " + b.dialect.likeOperator() + " ")
		b.sb.WriteString(b.bind("%" + likeEscaper.Replace(substr) + "%"))
	}}
}

// In matches rows where f is one of vs. An empty set matches nothing.
func In[T any, V any](f Field[T], vs []V) Cond[T] {
	return Cond[T]{render: func(b *builder) {
		if len(vs) == 0 {
			b.sb.WriteString("1 = 0")
			return
		}
		b.sb.WriteString(f.column(b.alias) + " IN (")
		writeList(b, vs)
		b.sb.WriteString(")")
	}}
}

// NotIn matches rows where f is none of vs. An empty set matches
// everything.
func NotIn[T any, V any](f Field[T], vs []V) Cond[T] {
	return Cond[T]{render: func(b *builder) {
		if len(vs) == 0 {
			b.sb.WriteString("1 = 1")
			return
		}
		b.sb.WriteString(f.column(b.alias) + " NOT IN (")
		writeList(b, vs)
		b.sb.WriteString(")")
	}}
}

// HasAny matches rows linked through r to at least one of ids. An empty
// set matches nothing.
func HasAny[T any, V any](r Relation[T], ids []V) Cond[T] {
	return Cond[T]{render: func(b *builder) {
		if len(ids) == 0 {
			b.sb.WriteString("1 = 0")
			return
		}
		b.sb.WriteString(r.local.column(b.alias))
		b.sb.WriteString(" IN (SELECT " + r.key + " FROM " + r.table + " WHERE " + r.other + " IN (")
		writeList(b, ids)
		b.sb.WriteString("))")
	}}
}

func writeList[V any](b *builder, vs []V) {
	for i, v := range vs {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(b.bind(v))
	}
}

// Or matches rows satisfying at least one of cs. An empty group matches
// nothing.
func Or[T any](cs ...Cond[T]) Cond[T] {
	return group(" OR ", "1 = 0", cs)
}

// And matches rows satisfying all of cs. An empty group matches everything.
func And[T any](cs ...Cond[T]) Cond[T] {
	return group(" AND ", "1 = 1", cs)
}

func group[T any](sep, empty string, cs []Cond[T]) Cond[T] {
	return Cond[T]{render: func(b *builder) {
		switch len(cs) {
		case 0:
			b.sb.WriteString(empty)
		case 1:
			cs[0].render(b)
		default:
			b.sb.WriteString("(")
			for i, c := range cs {
				if i > 0 {
					b.sb.WriteString(sep)
				}
				c.render(b)
			}
			b.sb.WriteString(")")
		}
	}}
}

// Predicate is a conjunction of conditions over entity T. The zero value
// matches every row.
type Predicate[T any] struct {
	conds []Cond[T]
}

// Where combines cs with AND.
func Where[T any](cs ...Cond[T]) Predicate[T] {
	return Predicate[T]{conds: append([]Cond[T](nil), cs...)}
}

// And returns a new predicate with cs appended.
func (p Predicate[T]) And(cs ...Cond[T]) Predicate[T] {
	conds := make([]Cond[T], 0, len(p.conds)+len(cs))
	conds = append(conds, p.conds...)
	conds = append(conds, cs...)
	return Predicate[T]{conds: conds}
}

// IsEmpty reports whether the predicate has no conditions.
func (p Predicate[T]) IsEmpty() bool {
	return len(p.conds) == 0
}

// SQL renders "WHERE ..." with placeholders numbered from 1, qualifying
// unqualified fields with alias. An empty predicate renders "".
func (p Predicate[T]) SQL(d Dialect, alias string) (string, []any) {
	if len(p.conds) == 0 {
		return "", nil
	}
	b := &builder{dialect: d, alias: alias}
	b.sb.WriteString("WHERE ")
	for i, c := range p.conds {
		if i > 0 {
			b.sb.WriteString(" AND ")
		}
		c.render(b)
	}
	return b.sb.String(), b.args
}
