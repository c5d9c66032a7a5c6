package compiler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/priorledger/internal/index"
	"github.com/roach88/priorledger/internal/ir"
)

func artifact(priorsJSON string) string {
	return "# Baseline\n\n## Priors (Machine)\n\nLast updated: 2026-02-13 12:00 UTC\n\n```json\n" + priorsJSON + "\n```\n"
}

var (
	forecastDoc = artifact(`[
  {"id": "target.orders", "type": "target", "statement": "Orders target for 90 days is 100", "confidence": 0.6, "value": 100, "unit": "orders", "last_updated": "2026-02-13T12:00:00Z", "evidence": ["Market sizing"]},
  {"id": "constraint.cac", "type": "constraint", "statement": "CAC must be <=EUR 15", "confidence": 0.7, "value": 15, "unit": "EUR", "operator": "lte", "last_updated": "2026-02-13T12:00:00Z", "evidence": ["Contribution analysis"]}
]`)

	offerDoc = artifact(`[
  {"id": "assumption.conversion", "type": "assumption", "statement": "Conversion rate is 5%", "confidence": 0.8, "last_updated": "2026-02-13T12:00:00Z", "evidence": ["Benchmark"]}
]`)

	channelsDoc = artifact(`[
  {"id": "target.orders", "type": "target", "statement": "Paid channel orders target is 40", "confidence": 0.4, "value": 40, "unit": "orders", "last_updated": "2026-02-13T12:00:00Z", "evidence": ["Channel plan"]}
]`)

	multiMatchDoc = artifact(`[
  {"id": "prior.test.one", "type": "assumption", "statement": "Test prior number one", "confidence": 0.6, "value": null, "unit": null, "operator": null, "range": null, "last_updated": "2026-01-01T12:00:00Z", "evidence": []},
  {"id": "prior.test.two", "type": "assumption", "statement": "Test prior number two", "confidence": 0.7, "value": null, "unit": null, "operator": null, "range": null, "last_updated": "2026-01-01T12:00:00Z", "evidence": []}
]`)
)

var fixtureReader = index.MapReader{
	"/biz/forecast.md": forecastDoc,
	"/biz/offer.md":    offerDoc,
	"/biz/channels.md": channelsDoc,
	"/biz/multi.md":    multiMatchDoc,
}

func buildIndex(t *testing.T, scopes ...string) *index.Index {
	t.Helper()
	pointers := make([]ir.ManifestPointer, len(scopes))
	for i, s := range scopes {
		pointers[i] = ir.ManifestPointer{ArtifactScope: s, ArtifactPath: "/biz/" + s + ".md"}
	}
	idx, err := index.Build(pointers, index.Options{Reader: fixtureReader})
	require.NoError(t, err)
	return idx
}

// singlePriorIndex indexes one artifact "t" holding prior "p" at confidence c.
func singlePriorIndex(t *testing.T, c float64) *index.Index {
	t.Helper()
	doc := artifact(fmt.Sprintf(`[{"id": "p", "type": "target", "statement": "Single prior", "confidence": %v, "last_updated": "2026-02-13", "evidence": ["seed"]}]`, c))
	idx, err := index.Build([]ir.ManifestPointer{{ArtifactScope: "t", ArtifactPath: "/t.md"}},
		index.Options{Reader: index.MapReader{"/t.md": doc}})
	require.NoError(t, err)
	return idx
}

func readout(id string, v ir.Verdict, c ir.ConfidenceLevel, refs ...string) ir.ExperimentReadout {
	return ir.ExperimentReadout{
		ExperimentID: id,
		RunID:        "run-001",
		ReadoutPath:  "/test/readout.md",
		Verdict:      v,
		Confidence:   c,
		PriorRefs:    refs,
	}
}
