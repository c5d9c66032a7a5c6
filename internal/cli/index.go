package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/priorledger/internal/hook"
	"github.com/roach88/priorledger/internal/index"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	Business string
	RunID    string
	Strict   bool
}

// IndexResult is the JSON payload of the index command.
type IndexResult struct {
	Manifest  string           `json:"manifest"`
	Index     *index.Index     `json:"index"`
	Conflicts []index.Conflict `json:"conflicts,omitempty"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the prior index for a run's manifest",
		Long: `Read every artifact named in a run's baseline manifest and list the
priors it defines with their qualified refs (scope#id).

Bare prior ids that appear in more than one scope are reported as
conflicts. With --strict any conflict fails the command.

Example:
  priorledger index --business ACME --run-id run-001
  priorledger index --business ACME --run-id run-001 --strict`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Business, "business", "b", "", "business the run belongs to (required)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run whose manifest to index (required)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on ambiguous bare prior ids")
	_ = cmd.MarkFlagRequired("business")
	_ = cmd.MarkFlagRequired("run-id")

	return cmd
}

func runIndex(opts *IndexOptions, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f := s.formatter

	manifestPath := s.cfg.Paths().ManifestPath(opts.Business, opts.RunID)
	manifest, err := hook.LoadManifest(manifestPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeManifest, "failed to load manifest", err, nil)
	}
	f.VerboseLog("Loaded manifest %s with %d baseline(s)", manifestPath, len(manifest.Baselines))

	idx, err := index.Build(manifest.Baselines, index.Options{BaseDir: s.cfg.Root, Logger: s.logger})
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeIndex, "failed to build prior index", err, nil)
	}

	result := IndexResult{Manifest: manifestPath, Index: idx}
	if err := index.ValidateNoDuplicateBareIDs(idx); err != nil {
		var dup *index.DuplicateIDError
		if !errors.As(err, &dup) {
			return f.Fail(ExitFailure, ErrCodeIndex, "failed to check prior ids", err, nil)
		}
		result.Conflicts = dup.Conflicts
		if s.cfg.StrictIDs || opts.Strict {
			return f.Fail(ExitFailure, ErrCodeDuplicateIDs, dup.Error(), nil, dup.Conflicts)
		}
		s.logger.Warn("ambiguous bare prior ids", "count", len(dup.Conflicts))
	}

	return f.Success(result, formatIndex(result))
}

func formatIndex(r IndexResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d prior(s) indexed from %s\n", len(r.Index.Entries), r.Manifest)
	for _, e := range r.Index.Entries {
		fmt.Fprintf(&b, "  %s  %s\n", e.QualifiedRef, e.ArtifactPath)
	}
	for _, c := range r.Conflicts {
		fmt.Fprintf(&b, "  conflict: %s defined in scopes %s\n", c.PriorID, strings.Join(c.Scopes, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
