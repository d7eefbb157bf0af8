package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

func TestApply_DropsEmptyName(t *testing.T) {
	input := []models.NormalizedName{
		{AccountID: "a1", NameBase: ""},
		{AccountID: "a2", NameBase: "acme corp"},
	}
	result := Apply(input, nil)
	require.Len(t, result.Kept, 1)
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "a1", result.Dropped[0].AccountID)
	assert.Equal(t, ReasonEmptyName, result.Dropped[0].Reason)
}

func TestApply_DropsNoiseOnlyName(t *testing.T) {
	input := []models.NormalizedName{
		{AccountID: "a1", NameBase: "n/a"},
		{AccountID: "a2", NameBase: "acme corp"},
	}
	result := Apply(input, nil)
	require.Len(t, result.Kept, 1)
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, ReasonNoiseOnly, result.Dropped[0].Reason)
}

func TestApply_KeepsValidNames(t *testing.T) {
	input := []models.NormalizedName{
		{AccountID: "a1", NameBase: "acme corp"},
		{AccountID: "a2", NameBase: "beta industries"},
	}
	result := Apply(input, nil)
	assert.Len(t, result.Kept, 2)
	assert.Empty(t, result.Dropped)
}

func TestApply_AuditRecordsCarryRawName(t *testing.T) {
	input := []models.NormalizedName{{AccountID: "a1", NameBase: ""}}
	raw := map[string]string{"a1": "   "}
	result := Apply(input, raw)
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "   ", result.Dropped[0].NameRaw)
}
