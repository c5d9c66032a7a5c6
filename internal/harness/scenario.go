package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/priorledger/internal/hook"
	"github.com/roach88/priorledger/internal/ir"
)

// Scenario defines one end-to-end learning scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Business defaults to "ACME".
	Business string `yaml:"business,omitempty"`

	// RunID is stamped on every readout and names the manifest's run.
	RunID string `yaml:"run_id"`

	// Artifacts are written into the workspace and listed in the manifest
	// in order.
	Artifacts []Artifact `yaml:"artifacts"`

	// StrictIDs rejects manifests with ambiguous bare prior ids.
	StrictIDs bool `yaml:"strict_ids,omitempty"`

	// Steps are fed to the learning hook in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final ledger, manifest and seeds.
	Assertions []Assertion `yaml:"assertions"`
}

// Artifact is one baseline document and its manifest pointer.
type Artifact struct {
	Scope string `yaml:"scope"`

	// Path is the repository-relative location the artifact is written to.
	Path string `yaml:"path"`

	// File is read relative to the scenario file. Exactly one of File and
	// Content must be set.
	File    string `yaml:"file,omitempty"`
	Content string `yaml:"content,omitempty"`
}

// Step submits one readout.
type Step struct {
	// Advance moves the clock before the step (Go duration syntax).
	Advance string `yaml:"advance,omitempty"`

	Readout Readout `yaml:"readout"`

	// SupersedesStep names an earlier step whose entry this one corrects.
	SupersedesStep *int `yaml:"supersedes_step,omitempty"`

	// SupersedesEntryID names an entry directly, for dangling references.
	SupersedesEntryID string `yaml:"supersedes_entry_id,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Readout is the YAML form of an experiment readout. run_id comes from the
// scenario.
type Readout struct {
	ExperimentID string             `yaml:"experiment_id"`
	ReadoutPath  string             `yaml:"readout_path,omitempty"`
	Verdict      string             `yaml:"verdict"`
	Confidence   string             `yaml:"confidence"`
	PriorRefs    []string           `yaml:"prior_refs,omitempty"`
	Metrics      map[string]float64 `yaml:"metrics,omitempty"`
}

// ExpectClause checks a step's hook result.
type ExpectClause struct {
	Status hook.Status `yaml:"status"`

	// Warnings must match exactly when set.
	Warnings []string `yaml:"warnings,omitempty"`

	// Diagnostics must each appear among the compiler diagnostics.
	Diagnostics []string `yaml:"diagnostics,omitempty"`

	// Snapshots is the expected number of updated baselines when set.
	Snapshots *int `yaml:"snapshots,omitempty"`
}

// Assertion types.
const (
	AssertLedgerCount     = "ledger_count"
	AssertPriorConfidence = "prior_confidence"
	AssertNextSeed        = "next_seed"
	AssertSupersedes      = "supersedes"
)

// Assertion validates final scenario state.
type Assertion struct {
	Type string `yaml:"type"`

	// ledger_count
	View  string `yaml:"view,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// prior_confidence, next_seed
	Scope      string  `yaml:"scope,omitempty"`
	Prior      string  `yaml:"prior,omitempty"`
	Confidence float64 `yaml:"confidence,omitempty"`

	// next_seed, supersedes
	Step           *int `yaml:"step,omitempty"`
	SupersedesStep *int `yaml:"supersedes_step,omitempty"`
}

// ToReadout builds the readout a step submits.
func (r Readout) ToReadout(runID string) ir.ExperimentReadout {
	path := r.ReadoutPath
	if path == "" {
		path = "/readouts/" + r.ExperimentID + ".md"
	}
	return ir.ExperimentReadout{
		ExperimentID: r.ExperimentID,
		RunID:        runID,
		ReadoutPath:  path,
		Verdict:      ir.Verdict(r.Verdict),
		Confidence:   ir.ConfidenceLevel(r.Confidence),
		PriorRefs:    r.PriorRefs,
		Metrics:      r.Metrics,
	}
}

// LoadScenario loads a scenario, resolving artifact files relative to the
// scenario file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath loads a scenario and inlines artifact files
// resolved against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos in field names.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, a := range scenario.Artifacts {
		if a.File == "" {
			continue
		}
		if a.Content != "" {
			return nil, fmt.Errorf("invalid scenario: artifacts[%d]: file and content are mutually exclusive", i)
		}
		file := a.File
		if !filepath.IsAbs(file) && basePath != "" {
			file = filepath.Join(basePath, file)
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: artifacts[%d]: %w", i, err)
		}
		scenario.Artifacts[i].Content = string(content)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if len(s.Artifacts) == 0 {
		return fmt.Errorf("artifacts list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, a := range s.Artifacts {
		if a.Scope == "" {
			return fmt.Errorf("artifacts[%d]: scope is required", i)
		}
		if a.Path == "" || filepath.IsAbs(a.Path) {
			return fmt.Errorf("artifacts[%d]: path must be a relative path", i)
		}
		if a.Content == "" {
			return fmt.Errorf("artifacts[%d]: file or content is required", i)
		}
	}

	for i, step := range s.Steps {
		if step.Readout.ExperimentID == "" {
			return fmt.Errorf("steps[%d]: readout.experiment_id is required", i)
		}
		if step.Advance != "" {
			if _, err := time.ParseDuration(step.Advance); err != nil {
				return fmt.Errorf("steps[%d]: invalid advance %q: %w", i, step.Advance, err)
			}
		}
		if step.SupersedesStep != nil && (*step.SupersedesStep < 0 || *step.SupersedesStep >= i) {
			return fmt.Errorf("steps[%d]: supersedes_step must name an earlier step", i)
		}
		if step.SupersedesStep != nil && step.SupersedesEntryID != "" {
			return fmt.Errorf("steps[%d]: supersedes_step and supersedes_entry_id are mutually exclusive", i)
		}
		if step.Expect != nil && step.Expect.Status == "" {
			return fmt.Errorf("steps[%d].expect: status is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	validStep := func(p *int) bool { return p != nil && *p >= 0 && *p < steps }

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertLedgerCount:
		if a.View == "" {
			a.View = "all"
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for ledger_count", index)
		}
	case AssertPriorConfidence:
		if a.Scope == "" || a.Prior == "" {
			return fmt.Errorf("assertions[%d]: scope and prior are required for prior_confidence", index)
		}
	case AssertNextSeed:
		if a.Scope == "" || !validStep(a.Step) {
			return fmt.Errorf("assertions[%d]: scope and a valid step are required for next_seed", index)
		}
	case AssertSupersedes:
		if !validStep(a.Step) || !validStep(a.SupersedesStep) {
			return fmt.Errorf("assertions[%d]: step and supersedes_step are required for supersedes", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
