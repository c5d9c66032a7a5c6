package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/priorledger/internal/ir"
)

// Backend persists ledger entries for each business.
type Backend interface {
	// Load returns every entry for business in storage order.
	// A business with no ledger yet has no entries and no error.
	Load(ctx context.Context, business string) ([]ir.LearningEntry, error)

	// Write persists one entry. Callers check for duplicates first.
	Write(ctx context.Context, business string, entry ir.LearningEntry) error
}

// AppendResult reports the outcome of Append.
type AppendResult struct {
	// Appended is false when the entry_id was already present.
	Appended bool
	Warnings []string
}

// Ledger applies the append-only rules on top of a Backend.
type Ledger struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a Ledger. A nil logger uses slog.Default().
func New(backend Backend, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{backend: backend, logger: logger}
}

// Backend returns the underlying storage.
func (l *Ledger) Backend() Backend {
	return l.backend
}

// Append adds entry unless its entry_id already exists.
//
// A supersedes_entry_id naming an unknown entry is not an error: the entry is
// still appended and a warning is returned.
func (l *Ledger) Append(ctx context.Context, business string, entry ir.LearningEntry) (AppendResult, error) {
	existing, err := l.backend.Load(ctx, business)
	if err != nil {
		return AppendResult{}, fmt.Errorf("append %s: load ledger: %w", entry.EntryID, err)
	}

	if Contains(existing, entry.EntryID) {
		l.logger.Info("ledger entry already present",
			"business", business,
			"entry_id", entry.EntryID,
		)
		return AppendResult{Appended: false}, nil
	}

	var result AppendResult
	if entry.SupersedesEntryID != "" && !Contains(existing, entry.SupersedesEntryID) {
		msg := "Superseded entry not found in ledger: " + entry.SupersedesEntryID
		l.logger.Warn("dangling supersede reference",
			"business", business,
			"entry_id", entry.EntryID,
			"supersedes_entry_id", entry.SupersedesEntryID,
		)
		result.Warnings = append(result.Warnings, msg)
	}

	if err := l.backend.Write(ctx, business, entry); err != nil {
		return AppendResult{}, fmt.Errorf("append %s: %w", entry.EntryID, err)
	}

	l.logger.Debug("ledger entry appended",
		"business", business,
		"entry_id", entry.EntryID,
		"supersedes_entry_id", entry.SupersedesEntryID,
	)
	result.Appended = true
	return result, nil
}

// Query returns the business's entries under view, oldest first.
func (l *Ledger) Query(ctx context.Context, business string, view View) ([]ir.LearningEntry, error) {
	entries, err := l.backend.Load(ctx, business)
	if err != nil {
		return nil, fmt.Errorf("query %s ledger: %w", business, err)
	}
	return Select(entries, view), nil
}

// Find returns one entry by id.
func (l *Ledger) Find(ctx context.Context, business, entryID string) (ir.LearningEntry, bool, error) {
	entries, err := l.backend.Load(ctx, business)
	if err != nil {
		return ir.LearningEntry{}, false, fmt.Errorf("find %s: %w", entryID, err)
	}
	e, ok := FindEntry(entries, entryID)
	return e, ok, nil
}
