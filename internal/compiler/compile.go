package compiler

import (
	"fmt"

	"github.com/roach88/priorledger/internal/index"
	"github.com/roach88/priorledger/internal/ir"
)

// PriorSource supplies prior contents for indexed artifacts.
// *index.Index satisfies it from the priors extracted during Build.
type PriorSource interface {
	Prior(path, priorID string) (ir.Prior, bool)
}

// Result is the output of one compilation.
type Result struct {
	Entry              ir.LearningEntry `json:"learning_entry"`
	PriorDeltas        []ir.PriorDelta  `json:"prior_deltas"`
	MappingDiagnostics []string         `json:"mapping_diagnostics"`
}

// Compile routes a validated readout to priors and computes their deltas.
//
// Non-empty prior_refs are resolved exactly and never fall back to keyword
// matching. The entry's CreatedAt and SupersedesEntryID are left empty; the
// caller stamps them when appending to the ledger.
func Compile(r ir.ExperimentReadout, idx *index.Index, src PriorSource) (*Result, error) {
	if idx == nil {
		return nil, fmt.Errorf("compile %s: nil index", r.ExperimentID)
	}
	if src == nil {
		src = idx
	}

	digest, err := ir.ReadoutDigest(r)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", r.ExperimentID, err)
	}
	entryID, err := ir.EntryID(r.RunID, r.ExperimentID, digest)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", r.ExperimentID, err)
	}

	var (
		targets []target
		diags   []string
	)
	if len(r.PriorRefs) > 0 {
		targets, diags = routeRefs(r.PriorRefs, idx)
	} else {
		targets, diags = routeKeywords(r.ExperimentID, idx, src)
	}

	deltas := make([]ir.PriorDelta, 0, len(targets))
	affected := make([]string, 0, len(targets))
	for _, t := range targets {
		p, ok := src.Prior(t.entry.ArtifactPath, t.entry.PriorID)
		if !ok {
			diags = append(diags, "Prior data unavailable: "+t.entry.QualifiedRef)
			continue
		}
		deltas = append(deltas, newDelta(r, t.entry, p.Confidence, t.confidence))
		affected = append(affected, t.entry.PriorID)
	}

	if diags == nil {
		diags = []string{}
	}

	return &Result{
		Entry: ir.LearningEntry{
			SchemaVersion:   ir.SchemaVersion,
			EntryID:         entryID,
			RunID:           r.RunID,
			ExperimentID:    r.ExperimentID,
			ReadoutPath:     r.ReadoutPath,
			ReadoutDigest:   digest,
			Verdict:         r.Verdict,
			Confidence:      r.Confidence,
			AffectedPriors:  affected,
			PriorDeltasPath: ir.PriorDeltasFileName(entryID),
		},
		PriorDeltas:        deltas,
		MappingDiagnostics: diags,
	}, nil
}
