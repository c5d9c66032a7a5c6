package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/ledger"
)

// LedgerOptions holds flags for the ledger command.
type LedgerOptions struct {
	*RootOptions
	Business string
	View     string
	EntryID  string
}

// LedgerResult is the JSON payload of the ledger command.
type LedgerResult struct {
	Business string             `json:"business"`
	View     ledger.View        `json:"view"`
	Count    int                `json:"count"`
	Entries  []ir.LearningEntry `json:"entries"`
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List learning ledger entries",
		Long: `List a business's learning ledger ordered by created_at.

The "all" view returns every entry. The "effective" view drops entries that
a later entry supersedes.

Example:
  priorledger ledger --business ACME
  priorledger ledger --business ACME --view effective --format json
  priorledger ledger --business ACME --entry <entry-id>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Business, "business", "b", "", "business to list (required)")
	cmd.Flags().StringVar(&opts.View, "view", string(ledger.ViewAll), "entries to show (all|effective)")
	cmd.Flags().StringVar(&opts.EntryID, "entry", "", "show only this entry id")
	_ = cmd.MarkFlagRequired("business")

	return cmd
}

func runLedger(opts *LedgerOptions, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f := s.formatter

	view, ok := ledger.ParseView(opts.View)
	if !ok {
		return f.Fail(ExitCommandError, ErrCodeInvalidInput,
			fmt.Sprintf("invalid view %q: must be %s or %s", opts.View, ledger.ViewAll, ledger.ViewEffective), nil, nil)
	}

	l, _, closeLedger, err := s.openLedger()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err, nil)
	}
	defer func() {
		if err := closeLedger(); err != nil {
			s.logger.Error("error closing ledger", "error", err)
		}
	}()

	ctx := cmd.Context()
	var entries []ir.LearningEntry
	if opts.EntryID != "" {
		entry, found, err := l.Find(ctx, opts.Business, opts.EntryID)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeLedger, "failed to read ledger", err, nil)
		}
		if !found {
			return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("entry not found in ledger: %s", opts.EntryID), nil, nil)
		}
		entries = []ir.LearningEntry{entry}
	} else {
		entries, err = l.Query(ctx, opts.Business, view)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeLedger, "failed to read ledger", err, nil)
		}
	}

	result := LedgerResult{
		Business: opts.Business,
		View:     view,
		Count:    len(entries),
		Entries:  entries,
	}
	return f.Success(result, formatLedger(result))
}

func formatLedger(r LedgerResult) string {
	if r.Count == 0 {
		return fmt.Sprintf("No ledger entries for %s", r.Business)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d ledger entr%s for %s (%s)\n", r.Count, plural(r.Count, "y", "ies"), r.Business, r.View)
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "  %s  %s  %s  %s/%s", ir.ShortID(e.EntryID), e.CreatedAt, e.ExperimentID, e.Verdict, e.Confidence)
		if len(e.AffectedPriors) > 0 {
			fmt.Fprintf(&b, "  [%s]", strings.Join(e.AffectedPriors, ", "))
		}
		if e.SupersedesEntryID != "" {
			fmt.Fprintf(&b, "  supersedes %s", ir.ShortID(e.SupersedesEntryID))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
