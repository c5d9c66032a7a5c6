package compiler

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/priorledger/internal/ir"
)

func TestCompileEntryFields(t *testing.T) {
	idx := buildIndex(t, "forecast")
	r := readout("booking-flow-test", ir.VerdictPass, ir.ConfidenceHigh, "forecast#target.orders")

	res, err := Compile(r, idx, nil)
	require.NoError(t, err)

	e := res.Entry
	assert.Equal(t, ir.SchemaVersion, e.SchemaVersion)
	assert.Regexp(t, regexp.MustCompile(`^[a-f0-9]{64}$`), e.EntryID)
	assert.Regexp(t, regexp.MustCompile(`^prior-deltas-[a-f0-9]{8}\.json$`), e.PriorDeltasPath)
	assert.Equal(t, "prior-deltas-"+e.EntryID[:8]+".json", e.PriorDeltasPath)
	assert.Equal(t, ir.MustReadoutDigest(r), e.ReadoutDigest)
	assert.Equal(t, "run-001", e.RunID)
	assert.Equal(t, "booking-flow-test", e.ExperimentID)
	assert.Equal(t, "/test/readout.md", e.ReadoutPath)
	assert.Equal(t, ir.VerdictPass, e.Verdict)
	assert.Equal(t, ir.ConfidenceHigh, e.Confidence)
	assert.Equal(t, []string{"target.orders"}, e.AffectedPriors)
	assert.Empty(t, e.CreatedAt)
	assert.Empty(t, e.SupersedesEntryID)

	d := res.PriorDeltas[0]
	assert.Equal(t, "/biz/forecast.md", d.ArtifactPath)
	assert.Equal(t, "/test/readout.md", d.EvidenceRef)
	assert.Equal(t, "Experiment booking-flow-test verdict: PASS (HIGH)", d.Reason)
}

func TestCompileDeterministic(t *testing.T) {
	idx := buildIndex(t, "forecast", "offer")
	r := readout("exp-assumption-conversion-rate", ir.VerdictFail, ir.ConfidenceMedium)

	a, err := Compile(r, idx, nil)
	require.NoError(t, err)
	b, err := Compile(r, idx, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompileEntryIDIgnoresReadoutPath(t *testing.T) {
	idx := buildIndex(t, "forecast")
	r1 := readout("exp-016", ir.VerdictPass, ir.ConfidenceHigh, "forecast#target.orders")
	r2 := r1
	r2.ReadoutPath = "/path/two/readout.md"

	a, err := Compile(r1, idx, nil)
	require.NoError(t, err)
	b, err := Compile(r2, idx, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Entry.ReadoutDigest, b.Entry.ReadoutDigest)
	assert.Equal(t, a.Entry.EntryID, b.Entry.EntryID)
	assert.Equal(t, "/path/two/readout.md", b.PriorDeltas[0].EvidenceRef)
}

func TestCompileEntryIDDependsOnRun(t *testing.T) {
	idx := buildIndex(t, "forecast")
	r1 := readout("exp-016", ir.VerdictPass, ir.ConfidenceHigh, "forecast#target.orders")
	r2 := r1
	r2.RunID = "run-002"

	a, err := Compile(r1, idx, nil)
	require.NoError(t, err)
	b, err := Compile(r2, idx, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Entry.ReadoutDigest, b.Entry.ReadoutDigest)
	assert.NotEqual(t, a.Entry.EntryID, b.Entry.EntryID)
}

func TestCompileNilIndex(t *testing.T) {
	_, err := Compile(readout("exp", ir.VerdictPass, ir.ConfidenceHigh), nil, nil)
	assert.Error(t, err)
}

type emptySource struct{}

func (emptySource) Prior(string, string) (ir.Prior, bool) { return ir.Prior{}, false }

func TestCompileMissingPriorData(t *testing.T) {
	idx := buildIndex(t, "forecast")

	res, err := Compile(readout("exp", ir.VerdictPass, ir.ConfidenceHigh, "forecast#target.orders"), idx, emptySource{})
	require.NoError(t, err)
	assert.Empty(t, res.PriorDeltas)
	assert.Contains(t, res.MappingDiagnostics, "Prior data unavailable: forecast#target.orders")
}
