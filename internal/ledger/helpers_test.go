package ledger

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/priorledger/internal/ir"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func entry(id, createdAt, supersedes string) ir.LearningEntry {
	return ir.LearningEntry{
		SchemaVersion:     ir.SchemaVersion,
		EntryID:           id,
		RunID:             "run-001",
		ExperimentID:      "exp-" + id,
		ReadoutPath:       "/readouts/" + id + ".md",
		ReadoutDigest:     "digest-" + id,
		CreatedAt:         createdAt,
		Verdict:           ir.VerdictPass,
		Confidence:        ir.ConfidenceHigh,
		AffectedPriors:    []string{"target.orders"},
		PriorDeltasPath:   ir.PriorDeltasFileName(id),
		SupersedesEntryID: supersedes,
	}
}

func ids(entries []ir.LearningEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.EntryID
	}
	return out
}

// backends returns a fresh instance of every Backend for table tests.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   NewFileBackend(t.TempDir()),
		"sqlite": sqlite,
	}
}
