package harness

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/roach88/priorledger/internal/index"
	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/ledger"
	"github.com/roach88/priorledger/internal/snapshot"
)

// confidenceTolerance absorbs float rounding in prior_confidence checks.
const confidenceTolerance = 1e-9

// AssertionContext carries the final workspace state assertions read.
type AssertionContext struct {
	Root      string
	Artifacts []Artifact
	Manifest  *ir.BaselineManifest
	Ledger    *ledger.Ledger
	Business  string
	Ctx       context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Ledger   []ir.LearningEntry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Ledger) > 0 {
		fmt.Fprintf(&buf, "\nLedger:\n")
		for i, entry := range e.Ledger {
			fmt.Fprintf(&buf, "  [%d] %s %s %s/%s", i+1, ir.ShortID(entry.EntryID), entry.ExperimentID, entry.Verdict, entry.Confidence)
			if entry.SupersedesEntryID != "" {
				fmt.Fprintf(&buf, " supersedes %s", ir.ShortID(entry.SupersedesEntryID))
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertLedgerCount:
			err = assertLedgerCount(actx, a)
		case AssertPriorConfidence:
			err = assertPriorConfidence(result, a)
		case AssertNextSeed:
			err = assertNextSeed(result, actx, a)
		case AssertSupersedes:
			err = assertSupersedes(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertLedgerCount(actx *AssertionContext, a Assertion) error {
	view, ok := ledger.ParseView(a.View)
	if !ok {
		return fmt.Errorf("invalid view %q", a.View)
	}
	entries, err := actx.Ledger.Query(actx.Ctx, actx.Business, view)
	if err != nil {
		return err
	}
	if len(entries) != a.Count {
		return &AssertionError{
			Type:     AssertLedgerCount,
			Expected: fmt.Sprintf("%d entr(ies) in %s view", a.Count, view),
			Actual:   fmt.Sprintf("%d", len(entries)),
			Ledger:   entries,
		}
	}
	return nil
}

func assertPriorConfidence(result *Result, a Assertion) error {
	seed, ok := result.Seeds[a.Scope]
	if !ok {
		return fmt.Errorf("unknown scope %q", a.Scope)
	}
	for _, p := range seed {
		if p.ID != a.Prior {
			continue
		}
		if math.Abs(p.Confidence-a.Confidence) > confidenceTolerance {
			return &AssertionError{
				Type:     AssertPriorConfidence,
				Expected: fmt.Sprintf("%s#%s confidence %v", a.Scope, a.Prior, a.Confidence),
				Actual:   fmt.Sprintf("%v", p.Confidence),
				Ledger:   result.Ledger,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertPriorConfidence,
		Expected: fmt.Sprintf("prior %s in scope %s", a.Prior, a.Scope),
		Actual:   "not found in seed",
	}
}

func assertNextSeed(result *Result, actx *AssertionContext, a Assertion) error {
	var artifact *Artifact
	for i := range actx.Artifacts {
		if actx.Artifacts[i].Scope == a.Scope {
			artifact = &actx.Artifacts[i]
			break
		}
	}
	if artifact == nil {
		return fmt.Errorf("unknown scope %q", a.Scope)
	}

	entryID := result.stepEntryID(*a.Step)
	if entryID == "" {
		return fmt.Errorf("step %d produced no entry", *a.Step)
	}
	source := index.ResolvePath(actx.Root, artifact.Path)
	want, err := filepath.Rel(actx.Root, snapshot.ComputeSnapshotPath(source, entryID))
	if err != nil {
		return err
	}

	got := actx.Manifest.NextSeed[a.Scope]
	if got != want {
		return &AssertionError{
			Type:     AssertNextSeed,
			Expected: fmt.Sprintf("next_seed[%s] = %s", a.Scope, want),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func assertSupersedes(result *Result, a Assertion) error {
	entryID := result.stepEntryID(*a.Step)
	target := result.stepEntryID(*a.SupersedesStep)

	entry, ok := ledger.FindEntry(result.Ledger, entryID)
	if !ok {
		return fmt.Errorf("step %d has no ledger entry", *a.Step)
	}
	if entry.SupersedesEntryID != target {
		return &AssertionError{
			Type:     AssertSupersedes,
			Expected: fmt.Sprintf("step %d supersedes step %d (%s)", *a.Step, *a.SupersedesStep, ir.ShortID(target)),
			Actual:   fmt.Sprintf("supersedes %q", entry.SupersedesEntryID),
			Ledger:   result.Ledger,
		}
	}
	return nil
}
