// Package config loads priorledger settings from priorledger.yaml with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/priorledger/internal/hook"
)

// FileName is the config file looked up in the working directory.
const FileName = "priorledger.yaml"

// Ledger backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultSQLiteFile is the SQLite ledger name under the baselines root.
const DefaultSQLiteFile = "learning-ledger.db"

// Environment overrides.
const (
	EnvRoot          = "PRIORLEDGER_ROOT"
	EnvBaselinesDir  = "PRIORLEDGER_BASELINES_DIR"
	EnvLedgerBackend = "PRIORLEDGER_LEDGER_BACKEND"
)

// Config holds all configuration for the priorledger CLI.
type Config struct {
	Root         string       `yaml:"root" validate:"required"`
	BaselinesDir string       `yaml:"baselines_dir" validate:"required"`
	Stage        string       `yaml:"stage" validate:"required"`
	Ledger       LedgerConfig `yaml:"ledger"`
	StrictIDs    bool         `yaml:"strict_ids"`
	LogLevel     string       `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// LedgerConfig selects the ledger backend.
type LedgerConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=file sqlite"`
	SQLitePath string `yaml:"sqlite_path"`
}

var validate = validator.New()

// Default returns the built-in configuration rooted at the working directory.
func Default() *Config {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return &Config{
		Root:         root,
		BaselinesDir: hook.DefaultBaselinesDir,
		Stage:        hook.DefaultStage,
		Ledger:       LedgerConfig{Backend: BackendFile},
		LogLevel:     "info",
	}
}

// Load reads configuration in three layers: defaults, the YAML file, then
// environment variables. An empty path reads ./priorledger.yaml when it
// exists; an explicit path must exist. A relative or absent root is taken
// from the config file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg.Root = ""
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if !filepath.IsAbs(cfg.Root) {
			cfg.Root = filepath.Join(dir, cfg.Root)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Root = getEnv(EnvRoot, c.Root)
	c.BaselinesDir = getEnv(EnvBaselinesDir, c.BaselinesDir)
	c.Ledger.Backend = getEnv(EnvLedgerBackend, c.Ledger.Backend)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks required settings and enum values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: invalid value %q (%s)", fe.Namespace(), fe.Value(), fe.ActualTag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Paths returns the run directory layout.
func (c *Config) Paths() hook.Paths {
	return hook.Paths{Root: c.Root, BaselinesDir: c.BaselinesDir, Stage: c.Stage}
}

// SQLitePath resolves the SQLite ledger location. Relative paths are taken
// from Root.
func (c *Config) SQLitePath() string {
	p := c.Ledger.SQLitePath
	if p == "" {
		return filepath.Join(c.Paths().BaselinesRoot(), DefaultSQLiteFile)
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// SlogLevel maps LogLevel onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
