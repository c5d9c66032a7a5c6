package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/priorledger/internal/harness"
)

// ScenarioResult is the JSON payload of the scenario command.
type ScenarioResult struct {
	Name   string                `json:"name"`
	Pass   bool                  `json:"pass"`
	Trace  harness.TraceSnapshot `json:"trace"`
	Errors []string              `json:"errors,omitempty"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <scenario.yaml>",
		Short: "Run a learning scenario in a scratch workspace",
		Long: `Run a YAML learning scenario end to end without touching the repository.

The scenario's artifacts and manifest are written to a temporary workspace,
each step's readout is fed through the learning pipeline with a fixed clock,
and the scenario's expectations and assertions are checked.

Exit status is 1 when any expectation or assertion fails.

Example:
  priorledger scenario testdata/scenarios/pass_then_supersede.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd, "")

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenario not found: %s", path), err, nil)
		}
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, "failed to load scenario", err, nil)
	}
	f.VerboseLog("Running scenario %s (%d step(s))", scenario.Name, len(scenario.Steps))

	result, err := harness.Run(scenario)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to run scenario", err, nil)
	}

	out := ScenarioResult{
		Name:   scenario.Name,
		Pass:   result.Pass,
		Trace:  harness.NewTraceSnapshot(scenario.Name, result),
		Errors: result.Errors,
	}
	if !result.Pass {
		return f.Fail(ExitFailure, ErrCodeScenario,
			fmt.Sprintf("scenario %s failed with %d error(s)", scenario.Name, len(result.Errors)), nil, out)
	}
	return f.Success(out, formatScenario(out))
}

func formatScenario(r ScenarioResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Scenario %s passed\n", r.Name)
	for i, s := range r.Trace.Steps {
		fmt.Fprintf(&b, "  step %d: %s, %d delta(s), %d snapshot(s)\n", i, s.Status, len(s.Deltas), s.Snapshots)
	}
	return strings.TrimRight(b.String(), "\n")
}
