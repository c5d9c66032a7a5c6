package snapshot

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/priorledger/internal/atomicfile"
	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/priors"
)

// Options configures a Writer.
type Options struct {
	// Clock dates updated priors and the block marker. Defaults to SystemClock.
	Clock ir.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Writer applies prior deltas to artifacts and writes snapshots.
type Writer struct {
	clock  ir.Clock
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(opts Options) *Writer {
	w := &Writer{clock: opts.Clock, logger: opts.Logger}
	if w.clock == nil {
		w.clock = ir.SystemClock{}
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Result describes one written snapshot.
type Result struct {
	Path string `json:"path"`

	// Applied lists prior ids whose confidence was updated.
	Applied []string `json:"applied"`

	// Skipped lists delta prior ids not present in the artifact.
	Skipped []string `json:"skipped,omitempty"`

	// Unchanged is true when an identical snapshot already existed.
	Unchanged bool `json:"unchanged,omitempty"`
}

// Apply writes the snapshot of source with deltas applied for entryID.
func (w *Writer) Apply(source string, deltas []ir.PriorDelta, entryID string) (*Result, error) {
	return w.ApplyOnto(source, source, deltas, entryID)
}

// ApplyOnto reads priors from input but names the snapshot after base.
// Chaining corrections uses this: input is an earlier snapshot of base.
func (w *Writer) ApplyOnto(base, input string, deltas []ir.PriorDelta, entryID string) (*Result, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("apply deltas: read %s: %w", input, err)
	}
	doc := string(data)

	ps, err := priors.Extract(doc)
	if err != nil {
		return nil, fmt.Errorf("apply deltas: extract %s: %w", input, err)
	}

	date := w.clock.Now().UTC().Format(ir.DateLayout)
	applied, skipped := applyDeltas(ps, deltas, date)
	for _, id := range skipped {
		w.logger.Warn("delta targets unknown prior",
			"prior_id", id,
			"artifact", input,
			"entry_id", entryID,
		)
	}

	if err := priors.Validate(ps); err != nil {
		return nil, fmt.Errorf("apply deltas: %s: %w", input, err)
	}

	block, err := priors.Serialize(ps, date)
	if err != nil {
		return nil, fmt.Errorf("apply deltas: %w", err)
	}
	updated, err := priors.ReplaceMachineBlock(doc, block)
	if err != nil {
		return nil, fmt.Errorf("apply deltas: %w", err)
	}

	path := ComputeSnapshotPath(base, entryID)
	result := &Result{Path: path, Applied: applied, Skipped: skipped}

	if _, statErr := os.Stat(path); statErr == nil {
		if err := VerifyIntegrity(path, []byte(updated)); err != nil {
			return nil, err
		}
		result.Unchanged = true
		w.logger.Debug("snapshot already present", "path", path)
		return result, nil
	}

	if err := atomicfile.Write(path, []byte(updated)); err != nil {
		return nil, fmt.Errorf("apply deltas: %w", err)
	}

	w.logger.Info("snapshot written",
		"path", path,
		"entry_id", entryID,
		"applied", len(applied),
	)
	return result, nil
}

// applyDeltas updates ps in place. Each matched prior takes the delta's new
// confidence, today's date and the evidence ref (once).
func applyDeltas(ps []ir.Prior, deltas []ir.PriorDelta, date string) (applied, skipped []string) {
	pos := make(map[string]int, len(ps))
	for i, p := range ps {
		pos[p.ID] = i
	}

	applied = []string{}
	for _, d := range deltas {
		i, ok := pos[d.PriorID]
		if !ok {
			skipped = append(skipped, d.PriorID)
			continue
		}
		p := &ps[i]
		p.Confidence = d.NewConfidence
		p.LastUpdated = date
		if d.EvidenceRef != "" && !contains(p.Evidence, d.EvidenceRef) {
			p.Evidence = append(p.Evidence, d.EvidenceRef)
		}
		applied = append(applied, d.PriorID)
	}
	return applied, skipped
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
