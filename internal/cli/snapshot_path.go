package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/priorledger/internal/snapshot"
)

// SnapshotPathResult is the JSON payload of the snapshot-path command.
type SnapshotPathResult struct {
	Source   string `json:"source"`
	EntryID  string `json:"entry_id"`
	Snapshot string `json:"snapshot"`
}

// NewSnapshotPathCommand creates the snapshot-path command.
func NewSnapshotPathCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot-path <source.md> <entry-id>",
		Short: "Print the snapshot path an entry writes for a source artifact",
		Long: `Print the deterministic snapshot path for a source artifact and ledger
entry: {dir}/{stem}.{short-id}.snapshot.md.

Example:
  priorledger snapshot-path baselines/ACME/forecast.md <entry-id>`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd, "")
			result := SnapshotPathResult{
				Source:   args[0],
				EntryID:  args[1],
				Snapshot: snapshot.ComputeSnapshotPath(args[0], args[1]),
			}
			return f.Success(result, result.Snapshot)
		},
	}

	return cmd
}
