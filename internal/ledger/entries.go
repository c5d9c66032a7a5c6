package ledger

import (
	"sort"

	"github.com/roach88/priorledger/internal/ir"
)

// View selects which entries Query returns.
type View string

const (
	// ViewAll returns every entry.
	ViewAll View = "all"
	// ViewEffective omits entries that a later entry supersedes.
	ViewEffective View = "effective"
)

// ParseView validates a view name.
func ParseView(s string) (View, bool) {
	switch View(s) {
	case ViewAll, ViewEffective:
		return View(s), true
	}
	return "", false
}

// Contains reports whether an entry with entryID is present.
func Contains(entries []ir.LearningEntry, entryID string) bool {
	_, ok := FindEntry(entries, entryID)
	return ok
}

// FindEntry returns the entry with entryID.
func FindEntry(entries []ir.LearningEntry, entryID string) (ir.LearningEntry, bool) {
	for _, e := range entries {
		if e.EntryID == entryID {
			return e, true
		}
	}
	return ir.LearningEntry{}, false
}

// SortByCreatedAt returns a copy of entries ordered by created_at ascending.
// created_at is RFC 3339 UTC, so string order is time order.
func SortByCreatedAt(entries []ir.LearningEntry) []ir.LearningEntry {
	out := make([]ir.LearningEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}

// Effective drops every entry referenced by another entry's
// supersedes_entry_id. Relative order is preserved.
func Effective(entries []ir.LearningEntry) []ir.LearningEntry {
	superseded := make(map[string]bool)
	for _, e := range entries {
		if e.SupersedesEntryID != "" {
			superseded[e.SupersedesEntryID] = true
		}
	}

	out := make([]ir.LearningEntry, 0, len(entries))
	for _, e := range entries {
		if !superseded[e.EntryID] {
			out = append(out, e)
		}
	}
	return out
}

// Select sorts entries and applies view.
func Select(entries []ir.LearningEntry, view View) []ir.LearningEntry {
	sorted := SortByCreatedAt(entries)
	if view == ViewEffective {
		return Effective(sorted)
	}
	return sorted
}
