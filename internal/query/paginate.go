// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package query

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidPage is returned when page or perPage is below 1.
var ErrInvalidPage = errors.New("query: page and per-page must be at least 1")

// Page is one page of rows plus the metadata needed to navigate the rest.
// Total and LastPage are computed from the same predicate as Rows.
type Page[T any] struct {
	Rows     []T `json:"rows"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
}

// Source is anything that can count and fetch rows of T for a predicate.
// The store's tables implement it, optionally bound to a transaction.
type Source[T any] interface {
	Count(ctx context.Context, pred Predicate[T]) (int, error)
	FindMany(ctx context.Context, pred Predicate[T], order []Order[T], limit, offset int) ([]T, error)
}

// Offset returns the number of rows that precede page.
func Offset(page, perPage int) int {
	return (page - 1) * perPage
}

// LastPage returns ceil(total / perPage), or 0 when there are no rows.
func LastPage(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Paginate counts the rows matching pred and fetches page of them.
// Pages past the end return no rows rather than an error. Unless src is
// bound to a single snapshot, a concurrent write between the two
// statements can make Total disagree with the rows returned.
func Paginate[T any](ctx context.Context, src Source[T], pred Predicate[T], page, perPage int, order ...Order[T]) (*Page[T], error) {
	if page < 1 || perPage < 1 {
		return nil, ErrInvalidPage
	}

	total, err := src.Count(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("paginate count: %w", err)
	}

	rows, err := src.FindMany(ctx, pred, order, perPage, Offset(page, perPage))
	if err != nil {
		return nil, fmt.Errorf("paginate fetch: %w", err)
	}
	if rows == nil {
		rows = []T{}
	}

	return &Page[T]{
		Rows:     rows,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		LastPage: LastPage(total, perPage),
	}, nil
}
