package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/roach88/priorledger/internal/atomicfile"
	"github.com/roach88/priorledger/internal/hook"
	"github.com/roach88/priorledger/internal/index"
	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/ledger"
	"github.com/roach88/priorledger/internal/priors"
	"github.com/roach88/priorledger/internal/testutil"
)

// DefaultBusiness is used when a scenario names none.
const DefaultBusiness = "ACME"

// Harness is the scenario execution engine.
// It runs one scenario against a scratch workspace with a fixed clock.
type Harness struct {
	scenario *Scenario
	business string
	root     string
	paths    hook.Paths
	clock    *testutil.FixedClock
	ledger   *ledger.Ledger
	hook     *hook.Hook
	logger   *slog.Logger
}

// Run executes a scenario in a fresh temporary workspace that is removed
// afterwards.
func Run(scenario *Scenario) (*Result, error) {
	root, err := os.MkdirTemp("", "priorledger-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer os.RemoveAll(root)

	return RunIn(root, scenario)
}

// RunIn executes a scenario with root as the repository root. root should
// be empty.
//
// Execution flow:
// 1. Write artifacts and the run manifest
// 2. Feed each step's readout to the hook, checking expect clauses
// 3. Collect the ledger and each scope's current seed
// 4. Evaluate assertions
func RunIn(root string, scenario *Scenario) (*Result, error) {
	business := scenario.Business
	if business == "" {
		business = DefaultBusiness
	}

	// Suppress logs in scenario runs.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	paths := hook.Paths{Root: root}
	clock := testutil.NewDefaultClock()
	l := ledger.New(ledger.NewFileBackend(paths.BaselinesRoot()), logger)

	h := &Harness{
		scenario: scenario,
		business: business,
		root:     root,
		paths:    paths,
		clock:    clock,
		ledger:   l,
		logger:   logger,
		hook: hook.New(hook.Options{
			Paths:     paths,
			Ledger:    l,
			StrictIDs: scenario.StrictIDs,
			Clock:     clock,
			Logger:    logger,
		}),
	}

	if err := h.setup(); err != nil {
		return nil, fmt.Errorf("failed to set up workspace: %w", err)
	}

	ctx := context.Background()
	result := NewResult()
	if err := h.executeSteps(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	manifest, err := h.collect(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to collect final state: %w", err)
	}

	actx := &AssertionContext{
		Root:      root,
		Artifacts: scenario.Artifacts,
		Manifest:  manifest,
		Ledger:    l,
		Business:  business,
		Ctx:       ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// setup writes every artifact and a manifest listing them in order.
func (h *Harness) setup() error {
	manifest := ir.BaselineManifest{RunID: h.scenario.RunID}
	for _, a := range h.scenario.Artifacts {
		if err := atomicfile.Write(filepath.Join(h.root, a.Path), []byte(a.Content)); err != nil {
			return fmt.Errorf("write artifact %s: %w", a.Scope, err)
		}
		manifest.Baselines = append(manifest.Baselines, ir.ManifestPointer{
			ArtifactScope: a.Scope,
			ArtifactPath:  a.Path,
		})
	}

	data, err := ir.EncodeJSON(manifest, "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return atomicfile.Write(h.paths.ManifestPath(h.business, h.scenario.RunID), data)
}

// executeSteps runs every step in order. Hook failures are recorded on the
// step outcome; only workspace I/O errors abort the run.
func (h *Harness) executeSteps(ctx context.Context, result *Result) error {
	for i, step := range h.scenario.Steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			h.clock.Advance(d)
		}

		in := hook.Input{
			ExperimentReadout: step.Readout.ToReadout(h.scenario.RunID),
			SupersedesEntryID: step.SupersedesEntryID,
		}
		if step.SupersedesStep != nil {
			in.SupersedesEntryID = result.stepEntryID(*step.SupersedesStep)
		}

		res := h.hook.Run(ctx, in, h.business)
		outcome := StepOutcome{Index: i, Result: res, Deltas: []ir.PriorDelta{}}

		if res.LedgerAppended && res.PriorDeltasPath != "" {
			deltas, err := h.readDeltas(res.PriorDeltasPath)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			outcome.Deltas = deltas
		}
		result.Steps = append(result.Steps, outcome)

		if step.Expect != nil {
			for _, msg := range checkExpect(i, step.Expect, res) {
				result.AddError(msg)
			}
		}
	}
	return nil
}

func (h *Harness) readDeltas(name string) ([]ir.PriorDelta, error) {
	path := filepath.Join(h.paths.RunDir(h.business, h.scenario.RunID), name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prior deltas: %w", err)
	}
	var deltas []ir.PriorDelta
	if err := json.Unmarshal(data, &deltas); err != nil {
		return nil, fmt.Errorf("decode prior deltas %s: %w", path, err)
	}
	return deltas, nil
}

// collect loads the ledger and each scope's current seed into result.
func (h *Harness) collect(ctx context.Context, result *Result) (*ir.BaselineManifest, error) {
	entries, err := h.ledger.Query(ctx, h.business, ledger.ViewAll)
	if err != nil {
		return nil, err
	}
	result.Ledger = entries

	manifest, err := hook.LoadManifest(h.paths.ManifestPath(h.business, h.scenario.RunID))
	if err != nil {
		return nil, err
	}

	for _, a := range h.scenario.Artifacts {
		ps, err := readSeed(h.root, a, manifest)
		if err != nil {
			return nil, err
		}
		result.Seeds[a.Scope] = ps
	}
	return manifest, nil
}

// seedPath is the document the next run would read for an artifact.
func seedPath(root string, a Artifact, manifest *ir.BaselineManifest) string {
	if p, ok := manifest.NextSeed[a.Scope]; ok {
		return index.ResolvePath(root, p)
	}
	return index.ResolvePath(root, a.Path)
}

func readSeed(root string, a Artifact, manifest *ir.BaselineManifest) ([]ir.Prior, error) {
	path := seedPath(root, a, manifest)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed for %s: %w", a.Scope, err)
	}
	ps, err := priors.Extract(string(data))
	if err != nil {
		return nil, fmt.Errorf("extract seed for %s: %w", a.Scope, err)
	}
	return ps, nil
}

// checkExpect compares a hook result against a step's expect clause.
func checkExpect(step int, want *ExpectClause, got hook.Result) []string {
	var errs []string
	if got.Status != want.Status {
		errs = append(errs, fmt.Sprintf("step %d: expected status %s, got %s (error: %q, warnings: %v)",
			step, want.Status, got.Status, got.Error, got.Warnings))
	}
	if want.Warnings != nil && !slices.Equal(want.Warnings, got.Warnings) {
		errs = append(errs, fmt.Sprintf("step %d: expected warnings %v, got %v", step, want.Warnings, got.Warnings))
	}
	for _, d := range want.Diagnostics {
		if !slices.Contains(got.CompilerDiagnostics, d) {
			errs = append(errs, fmt.Sprintf("step %d: expected diagnostic %q, got %v", step, d, got.CompilerDiagnostics))
		}
	}
	if want.Snapshots != nil && *want.Snapshots != len(got.UpdatedBaselines) {
		errs = append(errs, fmt.Sprintf("step %d: expected %d snapshot(s), got %d",
			step, *want.Snapshots, len(got.UpdatedBaselines)))
	}
	return errs
}
