package compiler

import (
	"fmt"

	"github.com/roach88/priorledger/internal/ir"
)

// Base deltas before confidence weighting.
const (
	PassDelta = 0.2
	FailDelta = -0.3
)

// DeltaFor returns the confidence change a verdict applies at a given
// readout confidence. INCONCLUSIVE and unknown verdicts change nothing.
func DeltaFor(v ir.Verdict, c ir.ConfidenceLevel) float64 {
	switch v {
	case ir.VerdictPass:
		return PassDelta * c.Weight()
	case ir.VerdictFail:
		return FailDelta * c.Weight()
	default:
		return 0
	}
}

// Reason renders the human-readable explanation recorded on each delta.
func Reason(r ir.ExperimentReadout) string {
	return fmt.Sprintf("Experiment %s verdict: %s (%s)", r.ExperimentID, r.Verdict, r.Confidence)
}

func newDelta(r ir.ExperimentReadout, e ir.PriorIndexEntry, old float64, mc ir.MappingConfidence) ir.PriorDelta {
	d := DeltaFor(r.Verdict, r.Confidence)
	return ir.PriorDelta{
		PriorID:           e.PriorID,
		ArtifactPath:      e.ArtifactPath,
		OldConfidence:     old,
		NewConfidence:     ir.Clamp(old+d, 0, 1),
		Delta:             d,
		Reason:            Reason(r),
		EvidenceRef:       r.ReadoutPath,
		MappingConfidence: mc,
	}
}
