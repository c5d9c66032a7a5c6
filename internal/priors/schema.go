package priors

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/priorledger/internal/ir"
)

// priorSchema states the per-field invariants of a prior. Cross-field rules
// (value/unit pairing, operator requires value) are checked in crossField.
// Unknown fields are allowed so authored extras survive validation.
const priorSchema = `
#Prior: {
	id:           string & !=""
	type:         "assumption" | "constraint" | "target" | "preference" | "risk"
	statement:    string
	confidence:   number & >=0 & <=1
	value?:       number
	unit?:        string
	operator?:    "eq" | "lt" | "lte" | "gt" | "gte"
	last_updated: string
	evidence: [string, ...string]
	...
}
`

// Violation is one prior that failed the schema.
type Violation struct {
	Index   int
	PriorID string
	Message string
}

// SchemaError collects every violation found in a prior set.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = fmt.Sprintf("prior[%d] (%s): %s", v.Index, v.PriorID, v.Message)
	}
	return fmt.Sprintf("%d invalid prior(s):\n  %s", len(e.Violations), strings.Join(lines, "\n  "))
}

// A cue.Context is not safe for concurrent use.
var (
	schemaMu  sync.Mutex
	schemaCtx *cue.Context
	schemaDef cue.Value
)

func compiledSchema() (*cue.Context, cue.Value, error) {
	if schemaCtx == nil {
		ctx := cuecontext.New()
		v := ctx.CompileString(priorSchema, cue.Filename("prior.cue"))
		if err := v.Err(); err != nil {
			return nil, cue.Value{}, fmt.Errorf("compile prior schema: %w", err)
		}
		schemaCtx = ctx
		schemaDef = v.LookupPath(cue.ParsePath("#Prior"))
	}
	return schemaCtx, schemaDef, nil
}

// Validate checks every prior against the schema and that ids are unique
// within the set. All violations are reported, not just the first.
func Validate(priors []ir.Prior) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, def, err := compiledSchema()
	if err != nil {
		return err
	}

	var violations []Violation
	seen := make(map[string]int, len(priors))
	for i, p := range priors {
		if first, dup := seen[p.ID]; dup && p.ID != "" {
			violations = append(violations, Violation{
				Index:   i,
				PriorID: p.ID,
				Message: fmt.Sprintf("duplicate id (first at index %d)", first),
			})
		} else {
			seen[p.ID] = i
		}

		data, err := ir.EncodeJSON(p, "")
		if err != nil {
			return fmt.Errorf("validate prior %d: %w", i, err)
		}
		v := ctx.CompileBytes(data, cue.Filename(fmt.Sprintf("prior[%d].json", i)))
		if err := v.Err(); err != nil {
			return fmt.Errorf("validate prior %d: %w", i, err)
		}

		if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
			violations = append(violations, Violation{
				Index:   i,
				PriorID: p.ID,
				Message: formatCUEError(err),
			})
		}
		if msg := crossField(p); msg != "" {
			violations = append(violations, Violation{Index: i, PriorID: p.ID, Message: msg})
		}
	}

	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}

// formatCUEError flattens a CUE error list into one line.
func formatCUEError(err error) string {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func crossField(p ir.Prior) string {
	switch {
	case p.Operator != nil && p.Value == nil:
		return "operator requires value"
	case p.Value != nil && p.Unit == nil:
		return "value requires unit"
	case p.Unit != nil && p.Value == nil:
		return "unit requires value"
	}
	return ""
}
