// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"newsdesk/internal/models"
	"newsdesk/internal/store"
)

// Featured slots are display hints. Two items may claim the same slot;
// readers see whichever comes first in featured order.

// Slot is one resolved featured position.
type Slot struct {
	Position int            `json:"position"`
	Item     models.Content `json:"item"`
	Shadowed []uuid.UUID    `json:"shadowed,omitempty"`
}

// SetFeatured assigns or clears (position nil) an item's featured slot.
// It returns the other items of the same kind already claiming that slot
// so the caller can warn about the collision.
func (s *Service) SetFeatured(ctx context.Context, kind models.ContentKind, id uuid.UUID, position *int) (*models.Content, []models.Content, error) {
	c, err := s.Update(ctx, kind, id, Patch{FeaturedPosition: &position})
	if err != nil {
		return nil, nil, err
	}
	if position == nil {
		return c, nil, nil
	}
	conflicts, err := s.FeaturedConflicts(ctx, kind, *position, id)
	if err != nil {
		return nil, nil, err
	}
	return c, conflicts, nil
}

// FeaturedConflicts lists items of kind claiming position, excluding one id.
func (s *Service) FeaturedConflicts(ctx context.Context, kind models.ContentKind, position int, except uuid.UUID) ([]models.Content, error) {
	f := store.ContentFilter{Kind: kind, FeaturedPosition: &position}
	if except != uuid.Nil {
		f.ExcludeID = &except
	}
	return s.repo.FindMany(ctx, f, store.SortNewest, 0)
}

// Featured returns the visible featured items of kind, one per slot.
func (s *Service) Featured(ctx context.Context, kind models.ContentKind) ([]Slot, error) {
	f := store.ContentFilter{Kind: kind, FeaturedOnly: true}
	if kind.HasStatus() {
		f.Status = models.ContentStatusPublished
	}
	items, err := s.repo.FindMany(ctx, f, store.SortFeatured, 0)
	if err != nil {
		return nil, err
	}
	return ResolveSlots(items), nil
}

// ResolveSlots groups items by featured position in ascending slot order.
// Within a slot the first item in the given order wins; the rest are
// reported as shadowed. Items without a position are ignored.
func ResolveSlots(items []models.Content) []Slot {
	index := make(map[int]int)
	var slots []Slot
	for _, it := range items {
		if it.FeaturedPosition == nil {
			continue
		}
		pos := *it.FeaturedPosition
		if i, ok := index[pos]; ok {
			slots[i].Shadowed = append(slots[i].Shadowed, it.ID)
			continue
		}
		index[pos] = len(slots)
		slots = append(slots, Slot{Position: pos, Item: it})
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Position < slots[j].Position })
	return slots
}
