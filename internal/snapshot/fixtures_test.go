package snapshot

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/testutil"
)

const forecastArtifact = "---\n" +
	"Type: Startup-Baseline-Seed\n" +
	"Status: Draft\n" +
	"Business: ACME\n" +
	"Artifact-Scope: forecast\n" +
	"Created: 2026-02-13\n" +
	"---\n" +
	"\n" +
	"# ACME Forecast Seed\n" +
	"\n" +
	"## Business Context\n" +
	"\n" +
	"Forecast narrative content.\n" +
	"\n" +
	"## Priors (Machine)\n" +
	"\n" +
	"Last updated: 2026-02-13 12:00 UTC\n" +
	"\n" +
	"```json\n" +
	"[\n" +
	"  {\n" +
	"    \"id\": \"target.orders\",\n" +
	"    \"type\": \"target\",\n" +
	"    \"statement\": \"Orders target for 90 days is 100\",\n" +
	"    \"confidence\": 0.6,\n" +
	"    \"value\": 100,\n" +
	"    \"unit\": \"orders\",\n" +
	"    \"last_updated\": \"2026-02-13T12:00:00Z\",\n" +
	"    \"evidence\": [\"Market sizing\"]\n" +
	"  },\n" +
	"  {\n" +
	"    \"id\": \"constraint.cac\",\n" +
	"    \"type\": \"constraint\",\n" +
	"    \"statement\": \"CAC must be <=EUR 15\",\n" +
	"    \"confidence\": 0.7,\n" +
	"    \"value\": 15,\n" +
	"    \"unit\": \"EUR\",\n" +
	"    \"operator\": \"lte\",\n" +
	"    \"last_updated\": \"2026-02-13T12:00:00Z\",\n" +
	"    \"evidence\": [\"Contribution analysis\"]\n" +
	"  }\n" +
	"]\n" +
	"```\n" +
	"\n" +
	"## Other Context\n" +
	"\n" +
	"More narrative.\n"

const testEntryID = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"

func testWriter() *Writer {
	return NewWriter(Options{
		Clock:  testutil.NewDefaultClock(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func delta(source, priorID string, old, next float64, evidence string) ir.PriorDelta {
	return ir.PriorDelta{
		PriorID:           priorID,
		ArtifactPath:      source,
		OldConfidence:     old,
		NewConfidence:     next,
		Delta:             next - old,
		Reason:            "Experiment exp verdict: PASS (HIGH)",
		EvidenceRef:       evidence,
		MappingConfidence: ir.MappingExact,
	}
}
