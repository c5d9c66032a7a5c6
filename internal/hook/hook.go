package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/priorledger/internal/atomicfile"
	"github.com/roach88/priorledger/internal/compiler"
	"github.com/roach88/priorledger/internal/index"
	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/ledger"
	"github.com/roach88/priorledger/internal/snapshot"
)

// InversionReasonPrefix marks deltas that undo a superseded entry.
const InversionReasonPrefix = "[SUPERSEDE INVERSION] "

// InversionIDSuffix marks the snapshot id used for an inversion. It cannot
// collide with a real entry id, which is lowercase hex.
const InversionIDSuffix = "-inv"

// InversionID derives the snapshot id for inverting supersededID. It keeps
// the full short prefix of the superseded id.
func InversionID(supersededID string) string {
	return ir.ShortID(supersededID) + InversionIDSuffix
}

// Input is a readout plus an optional entry it corrects.
type Input struct {
	ir.ExperimentReadout
	SupersedesEntryID string `json:"supersedes_entry_id,omitempty"`
}

// Options configures a Hook.
type Options struct {
	Paths Paths

	// ArtifactBaseDir resolves relative manifest artifact paths.
	// Defaults to Paths.Root.
	ArtifactBaseDir string

	// Reader defaults to index.OSReader.
	Reader index.ArtifactReader

	// Ledger defaults to a file ledger under Paths.BaselinesRoot().
	Ledger *ledger.Ledger

	// LedgerRef is recorded as learning_ledger in the stage result.
	LedgerRef string

	// StrictIDs rejects manifests whose artifacts share a bare prior id.
	StrictIDs bool

	Clock  ir.Clock
	Logger *slog.Logger
}

// Hook runs the learning pipeline.
type Hook struct {
	paths     Paths
	baseDir   string
	reader    index.ArtifactReader
	ledger    *ledger.Ledger
	ledgerRef string
	strictIDs bool
	writer    *snapshot.Writer
	clock     ir.Clock
	logger    *slog.Logger
}

// New creates a Hook.
func New(opts Options) *Hook {
	h := &Hook{
		paths:     opts.Paths.withDefaults(),
		baseDir:   opts.ArtifactBaseDir,
		reader:    opts.Reader,
		ledger:    opts.Ledger,
		ledgerRef: opts.LedgerRef,
		strictIDs: opts.StrictIDs,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}
	if h.baseDir == "" {
		h.baseDir = h.paths.Root
	}
	if h.reader == nil {
		h.reader = index.OSReader{}
	}
	if h.clock == nil {
		h.clock = ir.SystemClock{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.ledger == nil {
		h.ledger = ledger.New(ledger.NewFileBackend(h.paths.BaselinesRoot()), h.logger)
	}
	if h.ledgerRef == "" {
		h.ledgerRef = ledger.FileName
	}
	h.writer = snapshot.NewWriter(snapshot.Options{Clock: h.clock, Logger: h.logger})
	return h
}

// Paths returns the resolved layout.
func (h *Hook) Paths() Paths {
	return h.paths
}

// run carries per-invocation state between steps.
type run struct {
	business string
	in       Input
	runDir   string
	manifest *ir.BaselineManifest
	compiled *compiler.Result
	entry    ir.LearningEntry

	warnings []string
	updated  []string

	// latest maps a source artifact to its newest snapshot from this run.
	latest map[string]string
}

func (r *run) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Run compiles one readout for business and applies the result.
func (h *Hook) Run(ctx context.Context, in Input, business string) Result {
	if err := ir.ValidateReadout(in.ExperimentReadout); err != nil {
		return errorResult("", nil, err.Error())
	}

	logger := h.logger.With("business", business, "experiment_id", in.ExperimentID, "run_id", in.RunID)

	r := &run{
		business: business,
		in:       in,
		runDir:   h.paths.RunDir(business, in.RunID),
		warnings: []string{},
		updated:  []string{},
		latest:   make(map[string]string),
	}

	manifest, err := LoadManifest(h.paths.ManifestPath(business, in.RunID))
	if err != nil {
		return errorResult("", nil, "Failed to load manifest: "+err.Error())
	}
	r.manifest = manifest

	idx, err := index.Build(manifest.Baselines, index.Options{
		BaseDir: h.baseDir,
		Reader:  h.reader,
		Logger:  logger,
	})
	if err != nil {
		return errorResult("", nil, "Failed to build prior index: "+err.Error())
	}
	if h.strictIDs {
		if err := index.ValidateNoDuplicateBareIDs(idx); err != nil {
			return errorResult("", nil, "Failed to build prior index: "+err.Error())
		}
	}

	compiled, err := compiler.Compile(in.ExperimentReadout, idx, idx)
	if err != nil {
		return errorResult("", nil, "Compilation failed: "+err.Error())
	}
	r.compiled = compiled
	diags := compiled.MappingDiagnostics

	r.entry = compiled.Entry
	r.entry.CreatedAt = h.clock.Now().UTC().Format(ir.CreatedAtLayout)
	r.entry.SupersedesEntryID = in.SupersedesEntryID

	appended, err := h.ledger.Append(ctx, business, r.entry)
	if err != nil {
		return errorResult(r.entry.EntryID, diags, "Failed to append to ledger: "+err.Error())
	}
	if !appended.Appended {
		logger.Info("readout already compiled", "entry_id", r.entry.EntryID)
		return Result{
			Status:              StatusPartial,
			EntryID:             r.entry.EntryID,
			UpdatedBaselines:    []string{},
			CompilerDiagnostics: diags,
			Warnings:            []string{WarnDuplicateEntry},
		}
	}
	r.warnings = append(r.warnings, appended.Warnings...)

	h.writeDeltas(r)

	if in.SupersedesEntryID != "" {
		h.invert(ctx, r, logger)
	}
	h.applyNew(r)

	manifestUpdated := h.updateManifest(r, logger)
	h.writeStageResult(r)

	status := StatusSuccess
	if len(r.warnings) > 0 {
		status = StatusPartial
	}

	logger.Info("learning compiled",
		"entry_id", r.entry.EntryID,
		"status", status,
		"deltas", len(compiled.PriorDeltas),
		"snapshots", len(r.updated),
		"warnings", len(r.warnings),
	)

	return Result{
		Status:              status,
		EntryID:             r.entry.EntryID,
		LedgerAppended:      true,
		PriorDeltasPath:     r.entry.PriorDeltasPath,
		UpdatedBaselines:    r.updated,
		ManifestUpdated:     manifestUpdated,
		CompilerDiagnostics: diags,
		Warnings:            r.warnings,
	}
}

func (h *Hook) writeDeltas(r *run) {
	path := filepath.Join(r.runDir, r.entry.PriorDeltasPath)
	data, err := ir.EncodeJSON(r.compiled.PriorDeltas, "  ")
	if err == nil {
		err = atomicfile.Write(path, append(data, '\n'))
	}
	if err != nil {
		r.warn("Failed to write prior-deltas artifact: %v", err)
	}
}

// invert undoes the superseded entry's deltas, one snapshot per artifact.
// Each inversion starts from the superseded snapshot when it still exists.
func (h *Hook) invert(ctx context.Context, r *run, logger *slog.Logger) {
	supersededID := r.in.SupersedesEntryID

	prev, found, err := h.ledger.Find(ctx, r.business, supersededID)
	if err != nil {
		r.warn("Failed to apply supersede inversions: %v", err)
		return
	}
	if !found {
		// Ledger.Append already reported the dangling reference.
		return
	}

	deltasPath := filepath.Join(h.paths.RunDir(r.business, prev.RunID), prev.PriorDeltasPath)
	data, err := os.ReadFile(deltasPath)
	if os.IsNotExist(err) {
		r.warn("Superseded deltas file not found: %s", deltasPath)
		return
	}
	if err != nil {
		r.warn("Failed to apply supersede inversions: %v", err)
		return
	}
	var prevDeltas []ir.PriorDelta
	if err := json.Unmarshal(data, &prevDeltas); err != nil {
		r.warn("Failed to apply supersede inversions: parse %s: %v", deltasPath, err)
		return
	}

	invID := InversionID(supersededID)
	for _, g := range groupByArtifact(InvertDeltas(prevDeltas)) {
		input := g.artifact
		prevSnap := snapshot.ComputeSnapshotPath(g.artifact, supersededID)
		if _, err := os.Stat(prevSnap); err == nil {
			input = prevSnap
		}

		res, err := h.writer.ApplyOnto(g.artifact, input, g.deltas, invID)
		if err != nil {
			r.warn("Failed to apply supersede inversion for %s: %v", g.artifact, err)
			continue
		}
		logger.Info("superseded deltas inverted",
			"supersedes_entry_id", supersededID,
			"artifact", g.artifact,
			"snapshot", res.Path,
		)
		r.updated = append(r.updated, res.Path)
		r.latest[g.artifact] = res.Path
	}
}

// applyNew writes this entry's snapshots, chaining onto an inversion of the
// same artifact when one was just written.
func (h *Hook) applyNew(r *run) {
	for _, g := range groupByArtifact(r.compiled.PriorDeltas) {
		input := g.artifact
		if inv, ok := r.latest[g.artifact]; ok {
			input = inv
		}

		res, err := h.writer.ApplyOnto(g.artifact, input, g.deltas, r.entry.EntryID)
		if err != nil {
			r.warn("Failed to apply deltas for %s: %v", g.artifact, err)
			continue
		}
		r.updated = append(r.updated, res.Path)
		r.latest[g.artifact] = res.Path
	}
}

// updateManifest points next_seed at the newest snapshot of each scope.
func (h *Hook) updateManifest(r *run, logger *slog.Logger) bool {
	if len(r.latest) == 0 {
		return false
	}

	updates := make(map[string]string, len(r.latest))
	for _, ptr := range r.manifest.Baselines {
		resolved := index.ResolvePath(h.baseDir, ptr.ArtifactPath)
		snap, ok := r.latest[resolved]
		if !ok {
			continue
		}
		if !filepath.IsAbs(ptr.ArtifactPath) && h.baseDir != "" {
			if rel, err := filepath.Rel(h.baseDir, snap); err == nil {
				snap = rel
			}
		}
		updates[ptr.ArtifactScope] = snap
	}
	if len(updates) == 0 {
		logger.Warn("snapshots written for artifacts outside the manifest", "snapshots", len(r.latest))
		return false
	}

	if err := MergeNextSeed(h.paths.ManifestPath(r.business, r.in.RunID), updates); err != nil {
		r.warn("Failed to update manifest: %v", err)
		return false
	}
	return true
}

func (h *Hook) writeStageResult(r *run) {
	sr := StageResult{
		LearningLedger:   h.ledgerRef,
		PriorDeltasPath:  r.entry.PriorDeltasPath,
		UpdatedBaselines: r.updated,
		CompilerDiagnostics: StageDiagnosticsSet{
			MappingDiagnostics: r.compiled.MappingDiagnostics,
			Warnings:           r.warnings,
		},
	}
	data, err := ir.EncodeJSON(sr, "  ")
	if err == nil {
		err = atomicfile.Write(h.paths.StageResultPath(r.business, r.in.RunID), append(data, '\n'))
	}
	if err != nil {
		r.warn("Failed to write stage-result: %v", err)
	}
}

// InvertDeltas swaps old and new confidence, negates each delta and marks
// the reason.
func InvertDeltas(deltas []ir.PriorDelta) []ir.PriorDelta {
	out := make([]ir.PriorDelta, len(deltas))
	for i, d := range deltas {
		d.OldConfidence, d.NewConfidence = d.NewConfidence, d.OldConfidence
		d.Delta = -d.Delta
		d.Reason = InversionReasonPrefix + d.Reason
		out[i] = d
	}
	return out
}

type artifactDeltas struct {
	artifact string
	deltas   []ir.PriorDelta
}

// groupByArtifact groups deltas by artifact path in first-appearance order.
func groupByArtifact(deltas []ir.PriorDelta) []artifactDeltas {
	var groups []artifactDeltas
	pos := make(map[string]int)
	for _, d := range deltas {
		i, ok := pos[d.ArtifactPath]
		if !ok {
			i = len(groups)
			pos[d.ArtifactPath] = i
			groups = append(groups, artifactDeltas{artifact: d.ArtifactPath})
		}
		groups[i].deltas = append(groups[i].deltas, d)
	}
	return groups
}
