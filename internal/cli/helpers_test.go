package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/priorledger/internal/config"
	"github.com/roach88/priorledger/internal/hook"
	"github.com/roach88/priorledger/internal/testutil"
)

const forecastArtifact = "# ACME Forecast Seed\n" +
	"\n" +
	"## Priors (Machine)\n" +
	"\n" +
	"Last updated: 2026-02-13 12:00 UTC\n" +
	"\n" +
	"```json\n" +
	"[\n" +
	"  {\"id\": \"target.orders\", \"type\": \"target\", \"statement\": \"Orders target for 90 days is 100\", \"confidence\": 0.6, \"value\": 100, \"unit\": \"orders\", \"last_updated\": \"2026-02-13T12:00:00Z\", \"evidence\": [\"Market sizing\"]},\n" +
	"  {\"id\": \"constraint.cac\", \"type\": \"constraint\", \"statement\": \"CAC must be <=EUR 15\", \"confidence\": 0.7, \"value\": 15, \"unit\": \"EUR\", \"operator\": \"lte\", \"last_updated\": \"2026-02-13T12:00:00Z\", \"evidence\": [\"Contribution analysis\"]}\n" +
	"]\n" +
	"```\n"

const (
	business    = "ACME"
	runID       = "run-001"
	artifactRel = "docs/business-os/startup-baselines/ACME/baseline-forecast.md"
)

type workspace struct {
	root     string
	artifact string
	paths    hook.Paths
}

// newWorkspace lays out one business run with a forecast artifact and its
// manifest. PRIORLEDGER_* variables are cleared for the test.
func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	t.Setenv(config.EnvRoot, "")
	t.Setenv(config.EnvBaselinesDir, "")
	t.Setenv(config.EnvLedgerBackend, "")

	root := t.TempDir()
	artifact := filepath.Join(root, artifactRel)
	writeFile(t, artifact, forecastArtifact)

	paths := hook.Paths{Root: root}
	writeJSON(t, paths.ManifestPath(business, runID), map[string]any{
		"run_id": runID,
		"baselines": []any{
			map[string]any{"artifact_scope": "forecast", "artifact_path": artifactRel},
		},
	})

	return &workspace{root: root, artifact: artifact, paths: paths}
}

// readout writes a readout file and returns its path.
func (w *workspace) readout(t *testing.T, name string, v map[string]any) string {
	t.Helper()
	path := filepath.Join(w.root, "readouts", name)
	writeJSON(t, path, v)
	return path
}

func passReadout() map[string]any {
	return map[string]any{
		"experiment_id": "booking-flow-test",
		"run_id":        runID,
		"readout_path":  "/readouts/booking-flow-test.md",
		"verdict":       "PASS",
		"confidence":    "HIGH",
		"prior_refs":    []string{"forecast#target.orders"},
	}
}

type execResult struct {
	stdout string
	stderr string
	err    error
}

// execute runs the CLI with a fixed clock.
func execute(t *testing.T, args ...string) execResult {
	t.Helper()
	cmd := newRootCommand(&RootOptions{Clock: testutil.NewDefaultClock()})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return execResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// decodeResponse parses a JSON CLIResponse and re-decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout: %s", out)
	if v != nil && resp.Data != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, v))
	}
	return resp
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	writeFile(t, path, string(data))
}
