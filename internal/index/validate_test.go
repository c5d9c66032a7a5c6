package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/priorledger/internal/ir"
)

func TestValidateNoDuplicateBareIDs_Clean(t *testing.T) {
	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
		{ArtifactScope: "offer", ArtifactPath: "/biz/offer.md"},
	}, Options{Reader: fixtureReader()})
	require.NoError(t, err)

	assert.NoError(t, ValidateNoDuplicateBareIDs(idx))
}

func TestValidateNoDuplicateBareIDs_Conflict(t *testing.T) {
	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
		{ArtifactScope: "offer", ArtifactPath: "/biz/offer.md"},
		{ArtifactScope: "channels", ArtifactPath: "/biz/channels.md"},
	}, Options{Reader: fixtureReader()})
	require.NoError(t, err)

	err = ValidateNoDuplicateBareIDs(idx)
	require.Error(t, err)

	var dup *DuplicateIDError
	require.True(t, errors.As(err, &dup))
	require.Len(t, dup.Conflicts, 1)
	assert.Equal(t, Conflict{PriorID: "target.orders", Scopes: []string{"forecast", "channels"}}, dup.Conflicts[0])

	msg := err.Error()
	assert.Contains(t, msg, "ambiguous")
	assert.Contains(t, msg, "target.orders")
	assert.Contains(t, msg, "forecast")
	assert.Contains(t, msg, "channels")
}

func TestValidateNoDuplicateBareIDs_SameScopeTwice(t *testing.T) {
	idx, err := Build([]ir.ManifestPointer{
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
		{ArtifactScope: "forecast", ArtifactPath: "/biz/forecast.md"},
	}, Options{Reader: fixtureReader()})
	require.NoError(t, err)

	assert.NoError(t, ValidateNoDuplicateBareIDs(idx))
}
