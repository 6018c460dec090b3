// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/models"
	"newsdesk/internal/query"
)

var (
	subscriberID        = query.NewField[models.Subscriber]("id")
	subscriberEmail     = query.NewField[models.Subscriber]("email")
	subscriberName      = query.NewField[models.Subscriber]("name")
	subscriberConfirmed = query.NewField[models.Subscriber]("confirmed")
	subscriberCreatedAt = query.NewField[models.Subscriber]("created_at")
)

func scanSubscriber(s scanner) (*models.Subscriber, error) {
	var sub models.Subscriber
	if err := s.Scan(&sub.ID, &sub.Email, &sub.Name, &sub.Confirmed, &sub.CreatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// SubscriberFilter narrows newsletter subscriber listings.
type SubscriberFilter struct {
	Search    string // email or name contains
	Confirmed *bool
}

func (f SubscriberFilter) predicate() query.Predicate[models.Subscriber] {
	var conds []query.Cond[models.Subscriber]
	if f.Search != "" {
		conds = append(conds, query.Or(query.Like(subscriberEmail, f.Search), query.Like(subscriberName, f.Search)))
	}
	if f.Confirmed != nil {
		conds = append(conds, query.Eq(subscriberConfirmed, *f.Confirmed))
	}
	return query.Where(conds...)
}

// SubscriberStore manages newsletter subscribers.
type SubscriberStore struct {
	table *Table[models.Subscriber]
}

// NewSubscriberStore returns a new SubscriberStore.
func NewSubscriberStore(db *sql.DB, d query.Dialect) *SubscriberStore {
	return &SubscriberStore{
		table: newTable(db, d, tableDef[models.Subscriber]{
			name:    "subscribers",
			alias:   "sb",
			columns: "sb.id, sb.email, sb.name, sb.confirmed, sb.created_at",
			id:      subscriberID,
			scan:    scanSubscriber,
		}),
	}
}

// List returns one page of subscribers, newest first.
func (s *SubscriberStore) List(ctx context.Context, f SubscriberFilter, page, perPage int) (*query.Page[models.Subscriber], error) {
	return s.table.Paginate(ctx, f.predicate(), page, perPage, query.Desc(subscriberCreatedAt), query.Asc(subscriberID))
}

// Find retrieves a subscriber by id, or ErrNotFound.
func (s *SubscriberStore) Find(ctx context.Context, id uuid.UUID) (*models.Subscriber, error) {
	return s.table.Find(ctx, id)
}

// Create inserts a subscriber. A second signup with the same email fails
// with a DuplicateKeyError.
func (s *SubscriberStore) Create(ctx context.Context, sub *models.Subscriber) (uuid.UUID, error) {
	set := new(query.Set[models.Subscriber]).
		Assign(subscriberEmail, normalizeEmail(sub.Email)).
		Assign(subscriberName, sub.Name).
		Assign(subscriberConfirmed, sub.Confirmed).
		Assign(subscriberCreatedAt, time.Now().UTC())
	return s.table.Create(ctx, sub.ID, set)
}

// SetConfirmed marks a subscriber as confirmed or not.
func (s *SubscriberStore) SetConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error {
	return s.table.Update(ctx, id, new(query.Set[models.Subscriber]).Assign(subscriberConfirmed, confirmed))
}

// Delete removes a subscriber.
func (s *SubscriberStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.table.Delete(ctx, id)
}
