package harness

import (
	"github.com/roach88/priorledger/internal/hook"
	"github.com/roach88/priorledger/internal/ir"
)

// StepOutcome is what one scenario step produced.
type StepOutcome struct {
	Index  int             `json:"index"`
	Result hook.Result     `json:"result"`
	Deltas []ir.PriorDelta `json:"deltas"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Steps holds one outcome per scenario step, in order.
	Steps []StepOutcome `json:"steps"`

	// Ledger is the business's full ledger after the last step.
	Ledger []ir.LearningEntry `json:"ledger"`

	// Seeds maps each scope to the prior set its current seed carries.
	Seeds map[string][]ir.Prior `json:"seeds"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Ledger: []ir.LearningEntry{},
		Seeds:  make(map[string][]ir.Prior),
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// stepEntryID returns the entry id a step produced, or "" when the step index
// is out of range.
func (r *Result) stepEntryID(step int) string {
	if step < 0 || step >= len(r.Steps) {
		return ""
	}
	return r.Steps[step].Result.EntryID
}
