package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/priorledger/internal/index"
)

// addOfferScope adds a second artifact that redefines target.orders.
func addOfferScope(t *testing.T, w *workspace) {
	t.Helper()
	offerRel := "docs/business-os/startup-baselines/ACME/baseline-offer.md"
	writeFile(t, filepath.Join(w.root, offerRel), forecastArtifact)
	writeJSON(t, w.paths.ManifestPath(business, runID), map[string]any{
		"run_id": runID,
		"baselines": []any{
			map[string]any{"artifact_scope": "forecast", "artifact_path": artifactRel},
			map[string]any{"artifact_scope": "offer", "artifact_path": offerRel},
		},
	})
}

func TestIndex_JSON(t *testing.T) {
	w := newWorkspace(t)

	r := execute(t, "--root", w.root, "--format", "json", "index", "-b", business, "--run-id", runID)
	require.NoError(t, r.err, "stdout: %s", r.stdout)

	var result struct {
		Manifest string `json:"manifest"`
		Index    struct {
			Entries []struct {
				QualifiedRef string `json:"qualified_ref"`
				ArtifactPath string `json:"artifact_path"`
			} `json:"entries"`
		} `json:"index"`
		Conflicts []index.Conflict `json:"conflicts"`
	}
	decodeResponse(t, r.stdout, &result)

	assert.Equal(t, w.paths.ManifestPath(business, runID), result.Manifest)
	require.Len(t, result.Index.Entries, 2)
	assert.Equal(t, "forecast#target.orders", result.Index.Entries[0].QualifiedRef)
	assert.Equal(t, "forecast#constraint.cac", result.Index.Entries[1].QualifiedRef)
	assert.Equal(t, w.artifact, result.Index.Entries[0].ArtifactPath)
	assert.Empty(t, result.Conflicts)
}

func TestIndex_ConflictsReported(t *testing.T) {
	w := newWorkspace(t)
	addOfferScope(t, w)

	r := execute(t, "--root", w.root, "index", "-b", business, "--run-id", runID)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "4 prior(s) indexed")
	assert.Contains(t, r.stdout, "offer#target.orders")
	assert.Contains(t, r.stdout, "conflict: target.orders defined in scopes forecast, offer")
}

func TestIndex_StrictFails(t *testing.T) {
	w := newWorkspace(t)
	addOfferScope(t, w)

	r := execute(t, "--root", w.root, "--format", "json", "index", "-b", business, "--run-id", runID, "--strict")
	require.Error(t, r.err)
	assert.Equal(t, ExitFailure, GetExitCode(r.err))

	resp := decodeResponse(t, r.stdout, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDuplicateIDs, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "target.orders (scopes: forecast, offer)")
}

func TestIndex_MissingManifest(t *testing.T) {
	w := newWorkspace(t)

	r := execute(t, "--root", w.root, "--format", "json", "index", "-b", business, "--run-id", "run-404")
	require.Error(t, r.err)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))

	resp := decodeResponse(t, r.stdout, nil)
	assert.Equal(t, ErrCodeManifest, resp.Error.Code)
}
