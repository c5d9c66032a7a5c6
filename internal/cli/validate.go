package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/priorledger/internal/priors"
)

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Path        string             `json:"path"`
	Valid       bool               `json:"valid"`
	Priors      int                `json:"priors"`
	LastUpdated string             `json:"last_updated,omitempty"`
	Violations  []ViolationSummary `json:"violations,omitempty"`
}

// ViolationSummary is one invalid prior.
type ViolationSummary struct {
	Index   int    `json:"index"`
	PriorID string `json:"prior_id"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <artifact.md>",
		Short: "Check a baseline artifact's machine priors block",
		Long: `Locate the "## Priors (Machine)" block in a baseline artifact, decode it,
and check every prior against the prior schema.

Exit status is 1 when the block is missing, unparsable, or holds an invalid
prior.

Example:
  priorledger validate docs/business-os/startup-baselines/ACME/baseline-forecast.md`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	f := s.formatter

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("artifact not found: %s", path), err, nil)
		}
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to read artifact", err, nil)
	}
	doc := string(data)

	ps, err := priors.Extract(doc)
	if err != nil {
		var blockErr *priors.BlockError
		if errors.As(err, &blockErr) {
			return f.Fail(ExitFailure, ErrCodeBlock, blockErr.Error(), nil, map[string]string{"block_error": string(blockErr.Code)})
		}
		return f.Fail(ExitFailure, ErrCodeBlock, "failed to extract priors", err, nil)
	}
	f.VerboseLog("Extracted %d prior(s) from %s", len(ps), path)

	result := ValidationResult{Path: path, Valid: true, Priors: len(ps)}
	if ts, err := priors.LastUpdated(doc); err == nil {
		result.LastUpdated = ts
	}

	if err := priors.Validate(ps); err != nil {
		var schemaErr *priors.SchemaError
		if !errors.As(err, &schemaErr) {
			return f.Fail(ExitFailure, ErrCodeSchema, "failed to validate priors", err, nil)
		}
		result.Valid = false
		for _, v := range schemaErr.Violations {
			result.Violations = append(result.Violations, ViolationSummary{Index: v.Index, PriorID: v.PriorID, Message: v.Message})
		}
		return f.Fail(ExitFailure, ErrCodeSchema, fmt.Sprintf("%s: %s", path, schemaErr.Error()), nil, result)
	}

	return f.Success(result, formatValidation(result))
}

func formatValidation(r ValidationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s: %d valid prior(s)", r.Path, r.Priors)
	if r.LastUpdated != "" {
		fmt.Fprintf(&b, " (last updated %s)", r.LastUpdated)
	}
	return b.String()
}
