package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/priors"
)

func TestBuild_OrderAndQualifiedRefs(t *testing.T) {
	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "forecast.md"},
		{ArtifactScope: "offer", ArtifactPath: "offer.md"},
	}, Options{BaseDir: "/biz", Reader: fixtureReader()})
	require.NoError(t, err)

	require.Len(t, idx.Entries, 3)
	assert.Equal(t, ir.PriorIndexEntry{
		PriorID:       "target.orders",
		ArtifactScope: "forecast",
		ArtifactPath:  "/biz/forecast.md",
		QualifiedRef:  "forecast#target.orders",
	}, idx.Entries[0])
	assert.Equal(t, "forecast#constraint.cac", idx.Entries[1].QualifiedRef)
	assert.Equal(t, "offer#assumption.booking_flow", idx.Entries[2].QualifiedRef)

	for _, e := range idx.Entries {
		assert.Equal(t, e.ArtifactScope+"#"+e.PriorID, e.QualifiedRef)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	pointers := []ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
		{ArtifactScope: "channels", ArtifactPath: "/biz/channels.md"},
	}
	a, err := Build(pointers, Options{Reader: fixtureReader()})
	require.NoError(t, err)
	b, err := Build(pointers, Options{Reader: fixtureReader()})
	require.NoError(t, err)

	assert.Equal(t, a.Entries, b.Entries)
	assert.Equal(t, a.ByID, b.ByID)
}

func TestBuild_DuplicateBareIDsAllowed(t *testing.T) {
	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
		{ArtifactScope: "channels", ArtifactPath: "/biz/channels.md"},
	}, Options{Reader: fixtureReader()})
	require.NoError(t, err)

	entries := idx.ByID["target.orders"]
	require.Len(t, entries, 2)
	assert.Equal(t, "forecast", entries[0].ArtifactScope)
	assert.Equal(t, "channels", entries[1].ArtifactScope)
	assert.Equal(t, []string{"forecast", "channels"}, idx.Scopes("target.orders"))
}

func TestBuild_EmptyPointers(t *testing.T) {
	idx, err := Build(nil, Options{Reader: fixtureReader()})
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
	assert.Empty(t, idx.ByID)
}

func TestBuild_MissingArtifact(t *testing.T) {
	_, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
		{ArtifactScope: "ghost", ArtifactPath: "/biz/ghost.md"},
	}, Options{Reader: fixtureReader()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "ghost")
}

func TestBuild_ArtifactWithoutBlock(t *testing.T) {
	reader := MapReader{"/biz/plain.md": "# Plain\n\nNo priors here.\n"}
	_, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "plain", ArtifactPath: "/biz/plain.md"},
	}, Options{Reader: reader})
	require.Error(t, err)
	assert.True(t, errors.Is(err, priors.ErrMissingBlock))
}

func TestBuild_OSReader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "offer.md"), []byte(offerDoc), 0o644))

	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "offer", ArtifactPath: "offer.md"},
	}, Options{BaseDir: dir})
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, filepath.Join(dir, "offer.md"), idx.Entries[0].ArtifactPath)

	ps, err := idx.Priors(filepath.Join(dir, "offer.md"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, ps[0].Confidence)
}

func TestLookups(t *testing.T) {
	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
		{ArtifactScope: "channels", ArtifactPath: "/biz/channels.md"},
	}, Options{Reader: fixtureReader()})
	require.NoError(t, err)

	e, ok := idx.ByScope("channels", "target.orders")
	require.True(t, ok)
	assert.Equal(t, "/biz/channels.md", e.ArtifactPath)

	_, ok = idx.ByScope("offer", "target.orders")
	assert.False(t, ok)

	e, ok = idx.ByPath("/biz/./forecast.md", "target.orders")
	require.True(t, ok)
	assert.Equal(t, "forecast", e.ArtifactScope)

	p, ok := idx.Prior("/biz/forecast.md", "constraint.cac")
	require.True(t, ok)
	assert.Equal(t, 0.7, p.Confidence)

	_, err = idx.Priors("/biz/offer.md")
	assert.Error(t, err)
}

func TestByPath_RelativeToBaseDir(t *testing.T) {
	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "forecast.md"},
	}, Options{BaseDir: "/biz", Reader: fixtureReader()})
	require.NoError(t, err)

	e, ok := idx.ByPath("forecast.md", "target.orders")
	require.True(t, ok)
	assert.Equal(t, "/biz/forecast.md", e.ArtifactPath)

	e, ok = idx.ByPathRef("./forecast.md#constraint.cac")
	require.True(t, ok)
	assert.Equal(t, "forecast", e.ArtifactScope)

	_, ok = idx.ByPath("/biz/forecast.md", "target.orders")
	assert.True(t, ok)

	_, ok = idx.ByPath("channels.md", "target.orders")
	assert.False(t, ok)
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref      string
		left, id string
		ok       bool
	}{
		{"forecast#target.orders", "forecast", "target.orders", true},
		{"docs/a#b.md#target.orders", "docs/a#b.md", "target.orders", true},
		{"target.orders", "", "target.orders", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			left, id, ok := SplitRef(tt.ref)
			assert.Equal(t, tt.left, left)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "rel.md", ResolvePath("", "rel.md"))
	assert.Equal(t, "/abs.md", ResolvePath("/base", "/abs.md"))
	assert.Equal(t, filepath.Join("/base", "rel.md"), ResolvePath("/base", "rel.md"))
}

func TestRefLookups(t *testing.T) {
	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
		{ArtifactScope: "channels", ArtifactPath: "/biz/channels.md"},
	}, Options{Reader: fixtureReader()})
	require.NoError(t, err)

	e, ok := idx.ByQualifiedRef("channels#target.orders")
	require.True(t, ok)
	assert.Equal(t, "/biz/channels.md", e.ArtifactPath)

	_, ok = idx.ByQualifiedRef("target.orders")
	assert.False(t, ok)

	e, ok = idx.ByPathRef("/biz/forecast.md#constraint.cac")
	require.True(t, ok)
	assert.Equal(t, "forecast#constraint.cac", e.QualifiedRef)

	assert.Len(t, idx.ByBareID("target.orders"), 2)
	assert.Empty(t, idx.ByBareID("missing"))
}
