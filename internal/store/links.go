// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"newsdesk/internal/query"
)

// link is a row of a many-to-many join table.
type link struct{}

// linkTable is a join table keyed by (owner, other).
type linkTable struct {
	name  string
	owner query.Field[link]
	other query.Field[link]
}

var (
	categoryLinks = linkTable{
		name:  "content_categories",
		owner: query.NewField[link]("content_id"),
		other: query.NewField[link]("category_id"),
	}
	tagLinks = linkTable{
		name:  "content_tags",
		owner: query.NewField[link]("content_id"),
		other: query.NewField[link]("tag_id"),
	}
)

// replace makes ids the exact set linked to owner: rows not in ids are
// removed and missing ones inserted, all in one transaction. Rows already
// present are left alone.
func (l linkTable) replace(ctx context.Context, db *sql.DB, d query.Dialect, owner uuid.UUID, ids []uuid.UUID) error {
	want := dedupe(ids)

	return inTx(ctx, db, func(tx *sql.Tx) error {
		where, args := query.Where(
			query.Eq(l.owner, owner),
			query.NotIn(l.other, want),
		).SQL(d, "")
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+l.name+" "+where, args...); err != nil {
			return classify(err)
		}

		where, args = query.Where(query.Eq(l.owner, owner)).SQL(d, "")
		rows, err := tx.QueryContext(ctx, "SELECT "+l.other.Name()+" FROM "+l.name+" "+where, args...)
		if err != nil {
			return classify(err)
		}
		have := make(map[uuid.UUID]bool)
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			have[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return classify(err)
		}

		insert := "INSERT INTO " + l.name + " (" + l.owner.Name() + ", " + l.other.Name() + ") VALUES (" +
			d.Placeholder(1) + ", " + d.Placeholder(2) + ")"
		for _, id := range want {
			if have[id] {
				continue
			}
			if _, err := tx.ExecContext(ctx, insert, owner, id); err != nil {
				return classify(err)
			}
		}
		return nil
	})
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
