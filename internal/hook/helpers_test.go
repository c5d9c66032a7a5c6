package hook

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/ledger"
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
	"```\n" +
	"\n" +
	"## Notes\n" +
	"\n" +
	"Narrative.\n"

const (
	business       = "ACME"
	runID          = "run-001"
	forecastRelDir = "docs/business-os/startup-baselines/ACME"
)

type fixture struct {
	root     string
	artifact string
	paths    Paths
	clock    *testutil.FixedClock
	ledger   *ledger.Ledger
	hook     *Hook
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture lays out one business run with a forecast artifact and a
// manifest pointing at it by repository-relative path.
func newFixture(t *testing.T, manifest map[string]any) *fixture {
	t.Helper()
	root := t.TempDir()
	paths := Paths{Root: root}

	artifactRel := filepath.Join(forecastRelDir, "baseline-forecast.md")
	artifact := filepath.Join(root, artifactRel)
	require.NoError(t, os.MkdirAll(filepath.Dir(artifact), 0o755))
	require.NoError(t, os.WriteFile(artifact, []byte(forecastArtifact), 0o644))

	if manifest == nil {
		manifest = map[string]any{
			"run_id": runID,
			"baselines": []any{
				map[string]any{"artifact_scope": "forecast", "artifact_path": artifactRel},
			},
		}
	}
	writeJSON(t, paths.ManifestPath(business, runID), manifest)

	clock := testutil.NewDefaultClock()
	l := ledger.New(ledger.NewFileBackend(paths.BaselinesRoot()), discardLogger())
	h := New(Options{
		Paths:  paths,
		Ledger: l,
		Clock:  clock,
		Logger: discardLogger(),
	})

	return &fixture{root: root, artifact: artifact, paths: paths, clock: clock, ledger: l, hook: h}
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func input(experimentID string, v ir.Verdict, c ir.ConfidenceLevel, refs ...string) Input {
	return Input{ExperimentReadout: ir.ExperimentReadout{
		ExperimentID: experimentID,
		RunID:        runID,
		ReadoutPath:  "/readouts/" + experimentID + ".md",
		Verdict:      v,
		Confidence:   c,
		PriorRefs:    refs,
	}}
}

func entryIDFor(t *testing.T, in Input) string {
	t.Helper()
	digest, err := ir.ReadoutDigest(in.ExperimentReadout)
	require.NoError(t, err)
	id, err := ir.EntryID(in.RunID, in.ExperimentID, digest)
	require.NoError(t, err)
	return id
}
