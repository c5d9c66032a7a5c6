package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/priorledger/internal/config"
	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/ledger"
)

// session is the per-invocation state shared by every command.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	formatter *OutputFormatter
	clock     ir.Clock
	traceID   string
}

// newSession loads configuration, applies flag overrides, and builds the
// logger. Config problems are reported through the formatter.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	traceID := uuid.NewString()
	formatter := newFormatter(opts, cmd, traceID)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err, nil)
	}
	if opts.Root != "" {
		root, err := filepath.Abs(opts.Root)
		if err != nil {
			return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid --root", err, nil)
		}
		cfg.Root = root
	}

	clock := opts.Clock
	if clock == nil {
		clock = ir.SystemClock{}
	}

	return &session{
		cfg:       cfg,
		logger:    newLogger(opts, cfg, cmd.ErrOrStderr()).With("trace_id", traceID),
		formatter: formatter,
		clock:     clock,
		traceID:   traceID,
	}, nil
}

// newLogger writes JSON records in json mode and text records otherwise.
// --verbose forces debug level.
func newLogger(opts *RootOptions, cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openLedger opens the configured backend. The returned ref is recorded as
// learning_ledger in stage results.
func (s *session) openLedger() (l *ledger.Ledger, ref string, closeFn func() error, err error) {
	switch s.cfg.Ledger.Backend {
	case config.BackendSQLite:
		path := s.cfg.SQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, "", nil, fmt.Errorf("create ledger directory: %w", err)
		}
		backend, err := ledger.OpenSQLite(path)
		if err != nil {
			return nil, "", nil, err
		}
		s.logger.Debug("ledger opened", "backend", config.BackendSQLite, "path", path)
		return ledger.New(backend, s.logger), ledgerRef(s.cfg.Paths().BaselinesRoot(), path), backend.Close, nil
	default:
		root := s.cfg.Paths().BaselinesRoot()
		s.logger.Debug("ledger opened", "backend", config.BackendFile, "root", root)
		return ledger.New(ledger.NewFileBackend(root), s.logger), ledger.FileName, func() error { return nil }, nil
	}
}

// ledgerRef expresses path relative to base when it lives under base.
func ledgerRef(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
