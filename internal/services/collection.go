// Package services keeps the locally cached trip collections in step with
// confirmed mutations, and drives the mutation flows that produce them.
//
// The slice functions in this file are the whole cache contract: they turn
// the previous snapshot plus a mutation outcome into the next snapshot, and
// never modify their input. A nil slice means "not cached yet".
package services

import "viagem/internal/core"

// AppendCreated returns old with created appended. The server-assigned id
// of created is trusted as-is.
func AppendCreated[E any](old []E, created E) []E {
	out := make([]E, 0, len(old)+1)
	out = append(out, old...)
	return append(out, created)
}

// ReplaceUpdated swaps the entry whose id equals previous.Identity() for
// updated. An absent collection becomes [updated]; when no entry matches,
// old is returned unchanged.
func ReplaceUpdated[E core.Record[E]](old []E, previous, updated E) []E {
	if old == nil {
		return []E{updated}
	}
	idx := indexOf(old, previous.Identity())
	if idx < 0 {
		return old
	}
	out := make([]E, len(old))
	copy(out, old)
	out[idx] = updated
	return out
}

// RemoveAndRenumber drops deletedID and shifts every greater id down by
// one, mirroring the spreadsheet rows moving up after a row deletion.
func RemoveAndRenumber[E core.Record[E]](old []E, deletedID int) []E {
	out := make([]E, 0, len(old))
	for _, item := range old {
		id := item.Identity()
		switch {
		case id == deletedID:
			continue
		case id > deletedID:
			item = item.WithID(id - 1)
		}
		out = append(out, item)
	}
	return out
}

// removeOnly drops deletedID without touching the remaining ids.
func removeOnly[E core.Record[E]](old []E, deletedID int) []E {
	out := make([]E, 0, len(old))
	for _, item := range old {
		if item.Identity() != deletedID {
			out = append(out, item)
		}
	}
	return out
}

// FindByID returns the entry with the given id.
func FindByID[E core.Record[E]](items []E, id int) (E, bool) {
	if idx := indexOf(items, id); idx >= 0 {
		return items[idx], true
	}
	var zero E
	return zero, false
}

func indexOf[E core.Record[E]](items []E, id int) int {
	for i, item := range items {
		if item.Identity() == id {
			return i
		}
	}
	return -1
}
