package harness

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/priorledger/internal/hook"
	"github.com/roach88/priorledger/internal/ir"
)

// TraceSnapshot is the workspace-independent record of a scenario run.
// Entry ids are replaced by step labels ("step[0]") and confidences are
// rounded to four places so golden files stay stable.
type TraceSnapshot struct {
	ScenarioName string                        `json:"scenario_name"`
	Steps        []StepTrace                   `json:"steps"`
	Ledger       []LedgerTrace                 `json:"ledger"`
	Seeds        map[string]map[string]float64 `json:"seeds"`
}

// StepTrace summarizes one hook result.
type StepTrace struct {
	Status         hook.Status  `json:"status"`
	Entry          string       `json:"entry,omitempty"`
	LedgerAppended bool         `json:"ledger_appended"`
	Snapshots      int          `json:"snapshots"`
	Deltas         []DeltaTrace `json:"deltas"`
	Diagnostics    []string     `json:"diagnostics"`
	Warnings       []string     `json:"warnings"`
}

// DeltaTrace is one prior delta.
type DeltaTrace struct {
	PriorID           string               `json:"prior_id"`
	OldConfidence     float64              `json:"old_confidence"`
	NewConfidence     float64              `json:"new_confidence"`
	Delta             float64              `json:"delta"`
	MappingConfidence ir.MappingConfidence `json:"mapping_confidence"`
}

// LedgerTrace is one ledger entry.
type LedgerTrace struct {
	Entry          string             `json:"entry"`
	ExperimentID   string             `json:"experiment_id"`
	Verdict        ir.Verdict         `json:"verdict"`
	Confidence     ir.ConfidenceLevel `json:"confidence"`
	CreatedAt      string             `json:"created_at"`
	AffectedPriors []string           `json:"affected_priors"`
	Supersedes     string             `json:"supersedes,omitempty"`
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// NewTraceSnapshot builds the golden record for a scenario result.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	labels := make(map[string]string)
	for _, s := range result.Steps {
		if id := s.Result.EntryID; id != "" {
			if _, seen := labels[id]; !seen {
				labels[id] = fmt.Sprintf("step[%d]", s.Index)
			}
		}
	}
	label := func(id string) string {
		if l, ok := labels[id]; ok {
			return l
		}
		return ir.ShortID(id)
	}
	scrub := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			for id, l := range labels {
				s = strings.ReplaceAll(s, id, l)
			}
			out[i] = s
		}
		return out
	}

	snap := TraceSnapshot{
		ScenarioName: name,
		Steps:        make([]StepTrace, len(result.Steps)),
		Ledger:       make([]LedgerTrace, len(result.Ledger)),
		Seeds:        make(map[string]map[string]float64, len(result.Seeds)),
	}

	for i, s := range result.Steps {
		st := StepTrace{
			Status:         s.Result.Status,
			LedgerAppended: s.Result.LedgerAppended,
			Snapshots:      len(s.Result.UpdatedBaselines),
			Deltas:         make([]DeltaTrace, len(s.Deltas)),
			Diagnostics:    scrub(s.Result.CompilerDiagnostics),
			Warnings:       scrub(s.Result.Warnings),
		}
		if s.Result.EntryID != "" {
			st.Entry = label(s.Result.EntryID)
		}
		for j, d := range s.Deltas {
			st.Deltas[j] = DeltaTrace{
				PriorID:           d.PriorID,
				OldConfidence:     round4(d.OldConfidence),
				NewConfidence:     round4(d.NewConfidence),
				Delta:             round4(d.Delta),
				MappingConfidence: d.MappingConfidence,
			}
		}
		snap.Steps[i] = st
	}

	for i, e := range result.Ledger {
		lt := LedgerTrace{
			Entry:          label(e.EntryID),
			ExperimentID:   e.ExperimentID,
			Verdict:        e.Verdict,
			Confidence:     e.Confidence,
			CreatedAt:      e.CreatedAt,
			AffectedPriors: append([]string{}, e.AffectedPriors...),
		}
		if e.SupersedesEntryID != "" {
			lt.Supersedes = label(e.SupersedesEntryID)
		}
		snap.Ledger[i] = lt
	}

	for scope, ps := range result.Seeds {
		m := make(map[string]float64, len(ps))
		for _, p := range ps {
			m[p.ID] = round4(p.Confidence)
		}
		snap.Seeds[scope] = m
	}

	return snap
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := RunIn(t.TempDir(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := ir.MarshalCanonical(NewTraceSnapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
