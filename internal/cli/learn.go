package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/priorledger/internal/hook"
	"github.com/roach88/priorledger/internal/ir"
)

// LearnOptions holds flags for the learn command.
type LearnOptions struct {
	*RootOptions
	Business   string
	Supersedes string
	Strict     bool
}

// NewLearnCommand creates the learn command.
func NewLearnCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LearnOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "learn <readout.json>",
		Short: "Compile a readout into prior deltas and update baselines",
		Long: `Run the learning pipeline for one experiment readout.

The readout is validated, compiled against the priors of the run's baseline
manifest, recorded in the learning ledger, and applied to new baseline
snapshots. The manifest's next_seed is pointed at the snapshots.

Exit status is 0 on success, 1 when the run ended partial or in error, and
2 for command errors.

Example:
  priorledger learn --business ACME readouts/booking-flow.json
  priorledger learn --business ACME --supersedes <entry-id> readouts/fixed.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLearn(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Business, "business", "b", "", "business the run belongs to (required)")
	cmd.Flags().StringVar(&opts.Supersedes, "supersedes", "", "entry id this readout corrects")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject manifests with ambiguous bare prior ids")
	_ = cmd.MarkFlagRequired("business")

	return cmd
}

func runLearn(opts *LearnOptions, readoutPath string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f := s.formatter

	in, err := readInput(readoutPath)
	if err != nil {
		if os.IsNotExist(err) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("readout not found: %s", readoutPath), err, nil)
		}
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, "failed to read readout", err, nil)
	}
	if opts.Supersedes != "" {
		in.SupersedesEntryID = opts.Supersedes
	}

	l, ref, closeLedger, err := s.openLedger()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err, nil)
	}
	defer func() {
		if err := closeLedger(); err != nil {
			s.logger.Error("error closing ledger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hook.New(hook.Options{
		Paths:     s.cfg.Paths(),
		Ledger:    l,
		LedgerRef: ref,
		StrictIDs: s.cfg.StrictIDs || opts.Strict,
		Clock:     s.clock,
		Logger:    s.logger,
	})

	s.logger.Info("learning run started",
		"business", opts.Business,
		"experiment_id", in.ExperimentID,
		"run_id", in.RunID,
	)
	res := h.Run(ctx, in, opts.Business)
	s.logger.Info("learning run finished", "status", res.Status, "entry_id", res.EntryID)

	switch res.Status {
	case hook.StatusError:
		return f.Fail(ExitFailure, ErrCodePipeline, res.Error, nil, res)
	case hook.StatusPartial:
		if err := f.Success(res, formatLearnResult(res)); err != nil {
			return err
		}
		return &ExitError{Code: ExitFailure, Message: "learning run completed with warnings", Reported: true}
	default:
		return f.Success(res, formatLearnResult(res))
	}
}

// readInput decodes a readout file. Fields outside the readout (timestamps,
// notes) are ignored.
func readInput(path string) (hook.Input, error) {
	var in hook.Input
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("decode %s: %w", path, err)
	}
	return in, nil
}

func formatLearnResult(res hook.Result) string {
	var b strings.Builder
	mark := "✓"
	if res.Status != hook.StatusSuccess {
		mark = "!"
	}
	fmt.Fprintf(&b, "%s Learning run %s\n", mark, res.Status)
	fmt.Fprintf(&b, "  entry:    %s\n", ir.ShortID(res.EntryID))
	if res.LedgerAppended {
		fmt.Fprintln(&b, "  ledger:   appended")
	} else {
		fmt.Fprintln(&b, "  ledger:   unchanged")
	}
	if res.PriorDeltasPath != "" {
		fmt.Fprintf(&b, "  deltas:   %s\n", res.PriorDeltasPath)
	}
	for _, p := range res.UpdatedBaselines {
		fmt.Fprintf(&b, "  snapshot: %s\n", p)
	}
	if res.ManifestUpdated {
		fmt.Fprintln(&b, "  manifest: next_seed updated")
	}
	for _, d := range res.CompilerDiagnostics {
		fmt.Fprintf(&b, "  diagnostic: %s\n", d)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", w)
	}
	return strings.TrimRight(b.String(), "\n")
}
